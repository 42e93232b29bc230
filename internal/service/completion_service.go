package service

import (
	"context"
	"course_sync/internal/progress"
	"course_sync/internal/repository"
	"course_sync/internal/util"
	"course_sync/pkg/logger"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// 完成小节后的跳转目标
const (
	NavigateCertificate = "certificate"
	NavigateCourse      = "course"
	NavigateSection     = "section"
)

type Navigation struct {
	Target    string `json:"target"`
	CourseID  string `json:"courseId"`
	SectionID string `json:"sectionId,omitempty"`
}

// CompletionResult 小节完成后的课程状态和下一步
type CompletionResult struct {
	CourseID             string     `json:"courseId"`
	SectionID            string     `json:"sectionId"`
	CompletionPercentage int        `json:"completionPercentage"`
	ScorePercentage      int        `json:"scorePercentage"`
	CourseCompleted      bool       `json:"courseCompleted"`
	Passed               bool       `json:"passed"`
	Navigation           Navigation `json:"navigation"`
	// 课程信息暂不可用：已保存并推送，完成度未计算
	CourseUnavailable bool `json:"courseUnavailable,omitempty"`
}

type CompletionService struct {
	Catalog  *CatalogService
	Progress *repository.ProgressRepository
	Sync     *SyncService
}

func NewCompletionService(catalog *CatalogService, progressRepo *repository.ProgressRepository, syncService *SyncService) *CompletionService {
	return &CompletionService{
		Catalog:  catalog,
		Progress: progressRepo,
		Sync:     syncService,
	}
}

// CompleteSection 本地保存后立即返回，推送在后台进行。
// 后端不可达且无缓存时仍保存小节，完成度留待课程信息可用时再计算。
func (s *CompletionService) CompleteSection(ctx context.Context, courseID, sectionID string, score, totalQuestions int) (*CompletionResult, error) {
	if totalQuestions < 0 || score < 0 || score > totalQuestions {
		return nil, fmt.Errorf("%w: score %d, totalQuestions %d", util.ErrInvalidScore, score, totalQuestions)
	}

	course, err := s.Catalog.GetCourse(ctx, courseID)
	if errors.Is(err, util.ErrRemote) {
		logger.Log.Warn("Course unavailable, saving section without evaluation",
			zap.String("courseId", courseID),
			zap.String("sectionId", sectionID),
			zap.Error(err))
		return s.saveOffline(ctx, courseID, sectionID, score, totalQuestions)
	}
	if err != nil {
		return nil, err
	}
	if !course.HasSection(sectionID) {
		return nil, fmt.Errorf("%w: %s/%s", util.ErrSectionNotFound, courseID, sectionID)
	}

	if err := s.Progress.SaveSectionProgress(ctx, courseID, sectionID, score, totalQuestions); err != nil {
		return nil, err
	}

	p, err := s.Progress.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}

	total := len(course.Sections)
	result := &CompletionResult{
		CourseID:             courseID,
		SectionID:            sectionID,
		CompletionPercentage: progress.CompletionPercentage(p, total),
		ScorePercentage:      progress.ScorePercentage(p),
		CourseCompleted:      progress.IsCourseCompleted(p, total),
		Passed:               progress.HasPassedCourse(p, total, course.PassingThreshold),
	}

	if result.CourseCompleted && p.CompletedAt == nil {
		if err := s.Progress.MarkCourseCompleted(ctx, courseID); err != nil {
			return nil, err
		}
		logger.Log.Info("Course completed",
			zap.String("courseId", courseID),
			zap.Int("score", result.ScorePercentage),
			zap.Bool("passed", result.Passed))
	}

	s.Sync.PushInBackground(courseID)

	result.Navigation = Navigation{Target: NavigateCourse, CourseID: courseID}
	switch {
	case result.Passed:
		result.Navigation.Target = NavigateCertificate
	case result.CourseCompleted:
		// 已完成但未通过，回到课程页
	default:
		if next, ok := progress.NextSectionID(course.SectionIDs(), sectionID); ok {
			result.Navigation.Target = NavigateSection
			result.Navigation.SectionID = next
		}
	}

	return result, nil
}

func (s *CompletionService) saveOffline(ctx context.Context, courseID, sectionID string, score, totalQuestions int) (*CompletionResult, error) {
	if err := s.Progress.SaveSectionProgress(ctx, courseID, sectionID, score, totalQuestions); err != nil {
		return nil, err
	}
	p, err := s.Progress.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}

	s.Sync.PushInBackground(courseID)

	return &CompletionResult{
		CourseID:          courseID,
		SectionID:         sectionID,
		ScorePercentage:   progress.ScorePercentage(p),
		CourseUnavailable: true,
		Navigation:        Navigation{Target: NavigateCourse, CourseID: courseID},
	}, nil
}
