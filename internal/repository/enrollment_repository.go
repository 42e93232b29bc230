package repository

import (
	"context"
	"course_sync/internal/util"
	"encoding/json"
	"fmt"
	"sync"
)

// EnrollmentRepository 用户选修的课程 id 集合，决定首页展示哪些课程
type EnrollmentRepository struct {
	Store KVStore
	mu    sync.Mutex
}

func NewEnrollmentRepository(store KVStore) *EnrollmentRepository {
	return &EnrollmentRepository{Store: store}
}

func (r *EnrollmentRepository) List(ctx context.Context) ([]string, error) {
	data, ok, err := r.Store.Get(ctx, util.EnrollmentKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("%w: decode enrollments: %v", util.ErrStorage, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (r *EnrollmentRepository) save(ctx context.Context, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("%w: encode enrollments: %v", util.ErrStorage, err)
	}
	return r.Store.Set(ctx, util.EnrollmentKey, string(data))
}

func (r *EnrollmentRepository) Enroll(ctx context.Context, courseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.List(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == courseID {
			return nil
		}
	}
	return r.save(ctx, append(ids, courseID))
}

func (r *EnrollmentRepository) Unenroll(ctx context.Context, courseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.List(ctx)
	if err != nil {
		return err
	}
	filtered := ids[:0]
	for _, id := range ids {
		if id != courseID {
			filtered = append(filtered, id)
		}
	}
	return r.save(ctx, filtered)
}

func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, courseID string) (bool, error) {
	ids, err := r.List(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == courseID {
			return true, nil
		}
	}
	return false, nil
}
