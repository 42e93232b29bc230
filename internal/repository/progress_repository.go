package repository

import (
	"context"
	"course_sync/internal/model"
	"course_sync/internal/util"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// ProgressRepository 本地课程进度与证书存储
//
// 每门课程一个键（course_progress_<id>），证书整体存放在 user_certificates。
// 写操作是读-改-写：同一课程的写入由 keyedMutex 串行化，不同逻辑写入方之间仍然后写覆盖。
type ProgressRepository struct {
	Store KVStore
	Now   func() time.Time

	courseLocks *keyedMutex
	certMu      sync.Mutex
}

func NewProgressRepository(store KVStore) *ProgressRepository {
	return &ProgressRepository{
		Store:       store,
		Now:         time.Now,
		courseLocks: newKeyedMutex(),
	}
}

func courseProgressKey(courseID string) string {
	return util.ProgressKeyPrefix + courseID
}

func (r *ProgressRepository) now() time.Time {
	return r.Now().UTC()
}

// Get 返回已保存的进度；不存在时返回新的空记录（不落盘）
func (r *ProgressRepository) Get(ctx context.Context, courseID string) (*model.CourseProgress, error) {
	data, ok, err := r.Store.Get(ctx, courseProgressKey(courseID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return model.NewCourseProgress(courseID, r.now()), nil
	}

	var progress model.CourseProgress
	if err := json.Unmarshal([]byte(data), &progress); err != nil {
		return nil, fmt.Errorf("%w: decode progress for course %q: %v", util.ErrStorage, courseID, err)
	}
	if progress.Sections == nil {
		progress.Sections = []model.SectionProgress{}
	}
	if progress.CourseID == "" {
		progress.CourseID = courseID
	}
	return &progress, nil
}

func (r *ProgressRepository) save(ctx context.Context, progress *model.CourseProgress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("%w: encode progress: %v", util.ErrStorage, err)
	}
	return r.Store.Set(ctx, courseProgressKey(progress.CourseID), string(data))
}

// SaveSectionProgress 标记小节完成并写入分数，重复完成会原位覆盖
func (r *ProgressRepository) SaveSectionProgress(ctx context.Context, courseID, sectionID string, score, totalQuestions int) error {
	unlock := r.courseLocks.Lock(courseID)
	defer unlock()

	progress, err := r.Get(ctx, courseID)
	if err != nil {
		return err
	}

	now := r.now()
	progress.UpsertSection(model.SectionProgress{
		SectionID:      sectionID,
		Completed:      true,
		Score:          score,
		TotalQuestions: totalQuestions,
		CompletedAt:    &now,
	})
	progress.LastAccessedAt = now

	return r.save(ctx, progress)
}

// MarkCourseCompleted 仅在未设置时写入完成时间，不校验小节是否全部完成
func (r *ProgressRepository) MarkCourseCompleted(ctx context.Context, courseID string) error {
	unlock := r.courseLocks.Lock(courseID)
	defer unlock()

	progress, err := r.Get(ctx, courseID)
	if err != nil {
		return err
	}
	if progress.CompletedAt != nil {
		return nil
	}

	now := r.now()
	progress.CompletedAt = &now
	return r.save(ctx, progress)
}

func (r *ProgressRepository) IsSectionCompleted(ctx context.Context, courseID, sectionID string) (bool, error) {
	progress, err := r.Get(ctx, courseID)
	if err != nil {
		return false, err
	}
	s, ok := progress.Section(sectionID)
	return ok && s.Completed, nil
}

// CourseIDs 本地有进度记录的课程
func (r *ProgressRepository) CourseIDs(ctx context.Context) ([]string, error) {
	keys, err := r.Store.Keys(ctx, util.ProgressKeyPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = k[len(util.ProgressKeyPrefix):]
	}
	return ids, nil
}

func (r *ProgressRepository) ListCertificates(ctx context.Context) ([]model.Certificate, error) {
	data, ok, err := r.Store.Get(ctx, util.CertificatesKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []model.Certificate{}, nil
	}

	var certificates []model.Certificate
	if err := json.Unmarshal([]byte(data), &certificates); err != nil {
		return nil, fmt.Errorf("%w: decode certificates: %v", util.ErrStorage, err)
	}
	if certificates == nil {
		certificates = []model.Certificate{}
	}
	return certificates, nil
}

// SaveCertificate 按 courseId 插入或覆盖
func (r *ProgressRepository) SaveCertificate(ctx context.Context, certificate model.Certificate) error {
	r.certMu.Lock()
	defer r.certMu.Unlock()

	certificates, err := r.ListCertificates(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i := range certificates {
		if certificates[i].CourseID == certificate.CourseID {
			certificates[i] = certificate
			replaced = true
			break
		}
	}
	if !replaced {
		certificates = append(certificates, certificate)
	}

	data, err := json.Marshal(certificates)
	if err != nil {
		return fmt.Errorf("%w: encode certificates: %v", util.ErrStorage, err)
	}
	return r.Store.Set(ctx, util.CertificatesKey, string(data))
}

// GetCertificate 不存在时返回 nil, nil
func (r *ProgressRepository) GetCertificate(ctx context.Context, courseID string) (*model.Certificate, error) {
	certificates, err := r.ListCertificates(ctx)
	if err != nil {
		return nil, err
	}
	for i := range certificates {
		if certificates[i].CourseID == courseID {
			return &certificates[i], nil
		}
	}
	return nil, nil
}

func (r *ProgressRepository) HasCertificate(ctx context.Context, courseID string) (bool, error) {
	cert, err := r.GetCertificate(ctx, courseID)
	if err != nil {
		return false, err
	}
	return cert != nil, nil
}

// ClearAll 删除所有课程进度和证书（测试/重置用）
func (r *ProgressRepository) ClearAll(ctx context.Context) error {
	keys, err := r.Store.Keys(ctx, util.ProgressKeyPrefix)
	if err != nil {
		return err
	}
	return r.Store.Delete(ctx, append(keys, util.CertificatesKey)...)
}

// keyedMutex 按键加锁，锁在无人持有时回收
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
