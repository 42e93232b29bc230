package service

import (
	"context"
	"course_sync/internal/model"
	"course_sync/internal/repository"
	"course_sync/internal/util"
	"course_sync/pkg/logger"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// CatalogService 课程目录，后端不可用时回退到本地缓存
type CatalogService struct {
	Backend     CourseBackend
	Cache       repository.KVStore
	Enrollments *repository.EnrollmentRepository
}

func NewCatalogService(backend CourseBackend, cache repository.KVStore, enrollments *repository.EnrollmentRepository) *CatalogService {
	return &CatalogService{
		Backend:     backend,
		Cache:       cache,
		Enrollments: enrollments,
	}
}

func (s *CatalogService) ListCourses(ctx context.Context) ([]model.Course, error) {
	courses, err := s.Backend.ListCourses(ctx)
	if err == nil {
		s.writeCache(ctx, util.CatalogKey, courses)
		return courses, nil
	}

	var cached []model.Course
	if ok := s.readCache(ctx, util.CatalogKey, &cached); ok {
		logger.Log.Warn("Serving cached catalog", zap.Error(err))
		return cached, nil
	}
	return nil, err
}

// GetCourse 后端明确返回 404 时不使用缓存
func (s *CatalogService) GetCourse(ctx context.Context, courseID string) (*model.Course, error) {
	course, err := s.Backend.GetCourse(ctx, courseID)
	if err == nil {
		s.writeCache(ctx, util.CatalogKeyPrefix+courseID, course)
		return course, nil
	}
	if errors.Is(err, util.ErrCourseNotFound) {
		return nil, err
	}

	var cached model.Course
	if ok := s.readCache(ctx, util.CatalogKeyPrefix+courseID, &cached); ok {
		logger.Log.Warn("Serving cached course", zap.String("courseId", courseID), zap.Error(err))
		return &cached, nil
	}

	var list []model.Course
	if ok := s.readCache(ctx, util.CatalogKey, &list); ok {
		for i := range list {
			if list[i].ID == courseID {
				logger.Log.Warn("Serving course from cached catalog", zap.String("courseId", courseID), zap.Error(err))
				return &list[i], nil
			}
		}
	}
	return nil, err
}

// EnrolledCourses 按选课顺序返回目录中存在的课程
func (s *CatalogService) EnrolledCourses(ctx context.Context) ([]model.Course, error) {
	ids, err := s.Enrollments.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.Course{}, nil
	}

	courses, err := s.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	enrolled := make([]model.Course, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			enrolled = append(enrolled, c)
		}
	}
	return enrolled, nil
}

func (s *CatalogService) Enroll(ctx context.Context, courseID string) error {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return err
	}
	return s.Enrollments.Enroll(ctx, courseID)
}

func (s *CatalogService) Unenroll(ctx context.Context, courseID string) error {
	return s.Enrollments.Unenroll(ctx, courseID)
}

// 缓存写入失败不影响请求
func (s *CatalogService) writeCache(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Warn("Failed to encode catalog cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.Cache.Set(ctx, key, string(data)); err != nil {
		logger.Log.Warn("Failed to write catalog cache", zap.String("key", key), zap.Error(err))
	}
}

func (s *CatalogService) readCache(ctx context.Context, key string, v interface{}) bool {
	data, ok, err := s.Cache.Get(ctx, key)
	if err != nil || !ok {
		return false
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		logger.Log.Warn("Discarding unreadable catalog cache", zap.String("key", key), zap.Error(fmt.Errorf("%w: %v", util.ErrStorage, err)))
		return false
	}
	return true
}
