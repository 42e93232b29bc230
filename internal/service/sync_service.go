package service

import (
	"context"
	"course_sync/internal/model"
	"course_sync/internal/remote"
	"course_sync/internal/repository"
	"course_sync/internal/util"
	"course_sync/pkg/logger"
	"course_sync/pkg/monitoring"
	"course_sync/pkg/tracing"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	syncKindCourse           = "course"
	syncKindPush             = "push"
	syncKindAll              = "all"
	syncKindCertificatesPush = "certificates_push"
	syncKindCertificatesPull = "certificates_pull"
)

// SyncReport 一次全量同步的统计
type SyncReport struct {
	Skipped            bool      `json:"skipped"`
	Courses            int       `json:"courses"`
	CoursesFailed      int       `json:"coursesFailed"`
	SectionsPulled     int       `json:"sectionsPulled"`
	SectionsPushed     int       `json:"sectionsPushed"`
	CertificatesPushed int       `json:"certificatesPushed"`
	CertificatesPulled int       `json:"certificatesPulled"`
	Errors             []string  `json:"errors,omitempty"`
	StartedAt          time.Time `json:"startedAt"`
	FinishedAt         time.Time `json:"finishedAt"`
}

// CourseSyncResult 单门课程同步结果
type CourseSyncResult struct {
	CourseID       string `json:"courseId"`
	SectionsPulled int    `json:"sectionsPulled"`
	SectionsPushed int    `json:"sectionsPushed"`
	CompletionSent bool   `json:"completionSent"`
}

// SyncService 本地与后端之间的进度、证书双向同步
//
// 每门课程先拉取后推送。拉取时后端较新的小节覆盖本地，推送时本地所有已完成小节全部上传。
type SyncService struct {
	Backend  CourseBackend
	Progress *repository.ProgressRepository
	Users    *repository.UserRepository
	// 后台同步使用的超时
	Timeout time.Duration

	wg sync.WaitGroup
}

func NewSyncService(backend CourseBackend, progress *repository.ProgressRepository, users *repository.UserRepository, timeout time.Duration) *SyncService {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &SyncService{
		Backend:  backend,
		Progress: progress,
		Users:    users,
		Timeout:  timeout,
	}
}

func (s *SyncService) currentUser(ctx context.Context) (string, error) {
	userID, err := s.Users.Username(ctx)
	if err != nil {
		return "", err
	}
	if userID == "" {
		return "", util.ErrNoUser
	}
	return userID, nil
}

// SyncProgress 同步单门课程；拉取失败仍会推送本地已完成小节，两者的错误合并返回
func (s *SyncService) SyncProgress(ctx context.Context, courseID string) (*CourseSyncResult, error) {
	ctx, span := tracing.StartSpan(ctx, "sync.course", attribute.String("course.id", courseID))
	result, err := s.syncProgress(ctx, courseID)
	tracing.EndSpan(span, err)
	monitoring.ObserveSync(syncKindCourse, err)
	return result, err
}

func (s *SyncService) syncProgress(ctx context.Context, courseID string) (*CourseSyncResult, error) {
	userID, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	result := &CourseSyncResult{CourseID: courseID}
	pulled, pullErr := s.SyncProgressFromBackend(ctx, userID, courseID)
	result.SectionsPulled = pulled
	if pullErr != nil {
		logger.Log.Warn("Pull failed, pushing local progress anyway",
			zap.String("courseId", courseID),
			zap.Error(pullErr))
	}

	var pushErr error
	result.SectionsPushed, result.CompletionSent, pushErr = s.SyncProgressToBackend(ctx, userID, courseID)
	return result, multierr.Append(pullErr, pushErr)
}

// PushProgress 只推送不拉取，用于小节完成后
func (s *SyncService) PushProgress(ctx context.Context, courseID string) (*CourseSyncResult, error) {
	ctx, span := tracing.StartSpan(ctx, "sync.push", attribute.String("course.id", courseID))
	result, err := s.pushProgress(ctx, courseID)
	tracing.EndSpan(span, err)
	monitoring.ObserveSync(syncKindPush, err)
	return result, err
}

func (s *SyncService) pushProgress(ctx context.Context, courseID string) (*CourseSyncResult, error) {
	userID, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	result := &CourseSyncResult{CourseID: courseID}
	result.SectionsPushed, result.CompletionSent, err = s.SyncProgressToBackend(ctx, userID, courseID)
	return result, err
}

// SyncProgressFromBackend 拉取后端进度，后端已完成且比本地新的小节写入本地
func (s *SyncService) SyncProgressFromBackend(ctx context.Context, userID, courseID string) (int, error) {
	remoteProgress, err := s.Backend.GetCourseProgress(ctx, userID, courseID)
	if err != nil {
		return 0, fmt.Errorf("pull progress for course %q: %w", courseID, err)
	}
	if remoteProgress == nil {
		return 0, nil
	}

	local, err := s.Progress.Get(ctx, courseID)
	if err != nil {
		return 0, err
	}

	pulled := 0
	for _, rs := range remoteProgress.Sections {
		if !rs.Completed {
			continue
		}
		ls, ok := local.Section(rs.SectionID)
		if !remoteSectionWins(ls, ok, rs) {
			continue
		}
		if err := s.Progress.SaveSectionProgress(ctx, courseID, rs.SectionID, rs.Score, rs.TotalQuestions); err != nil {
			return pulled, err
		}
		pulled++
	}

	monitoring.SyncSectionsPulled.Add(float64(pulled))
	return pulled, nil
}

// remoteSectionWins 时间相同时保留本地
func remoteSectionWins(local *model.SectionProgress, exists bool, rs remote.SectionProgress) bool {
	if !exists || local.CompletedAt == nil {
		return true
	}
	if rs.CompletedAt == nil {
		return false
	}
	return rs.CompletedAt.After(*local.CompletedAt)
}

// SyncProgressToBackend 上传本地所有已完成小节，课程已完成时再上报完成
func (s *SyncService) SyncProgressToBackend(ctx context.Context, userID, courseID string) (int, bool, error) {
	local, err := s.Progress.Get(ctx, courseID)
	if err != nil {
		return 0, false, err
	}

	var (
		pushed int
		errs   error
	)
	for _, sp := range local.CompletedSections() {
		if err := s.Backend.SaveSectionProgress(ctx, userID, courseID, sp.SectionID, sp.Score, sp.TotalQuestions); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("push section %q of course %q: %w", sp.SectionID, courseID, err))
			continue
		}
		pushed++
	}
	monitoring.SyncSectionsPushed.Add(float64(pushed))

	completionSent := false
	if local.CompletedAt != nil {
		if err := s.Backend.MarkCourseCompleted(ctx, userID, courseID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("push completion of course %q: %w", courseID, err))
		} else {
			completionSent = true
		}
	}

	return pushed, completionSent, errs
}

// SyncCertificatesToBackend 逐个上传本地证书，单个失败只记录日志，返回成功数
func (s *SyncService) SyncCertificatesToBackend(ctx context.Context, userID string) (int, error) {
	certificates, err := s.Progress.ListCertificates(ctx)
	if err != nil {
		monitoring.ObserveSync(syncKindCertificatesPush, err)
		return 0, err
	}

	var (
		pushed int
		errs   error
	)
	for _, cert := range certificates {
		result, err := s.Backend.CreateCertificate(ctx, userID, cert)
		if err != nil {
			logger.Log.Warn("Failed to push certificate",
				zap.String("courseId", cert.CourseID),
				zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("push certificate for course %q: %w", cert.CourseID, err))
			continue
		}
		if !result.Created {
			logger.Log.Debug("Certificate already exists on backend", zap.String("courseId", cert.CourseID))
		}
		pushed++
	}

	monitoring.ObserveSync(syncKindCertificatesPush, errs)
	return pushed, errs
}

// SyncCertificatesFromBackend 后端证书逐个写入本地
func (s *SyncService) SyncCertificatesFromBackend(ctx context.Context, userID string) (int, error) {
	certificates, err := s.Backend.ListCertificates(ctx, userID)
	if err != nil {
		err = fmt.Errorf("pull certificates: %w", err)
		monitoring.ObserveSync(syncKindCertificatesPull, err)
		return 0, err
	}

	pulled := 0
	for _, cert := range certificates {
		if err := s.Progress.SaveCertificate(ctx, cert.ToModel()); err != nil {
			monitoring.ObserveSync(syncKindCertificatesPull, err)
			return pulled, err
		}
		pulled++
	}

	monitoring.ObserveSync(syncKindCertificatesPull, nil)
	return pulled, nil
}

// SyncAll 同步后端或本地有记录的所有课程，然后双向同步证书。
// 未登录时跳过且不返回错误；单门课程失败不影响其余课程。
func (s *SyncService) SyncAll(ctx context.Context) (*SyncReport, error) {
	ctx, span := tracing.StartSpan(ctx, "sync.all")
	report, err := s.syncAll(ctx)
	tracing.EndSpan(span, err)
	monitoring.ObserveSync(syncKindAll, err)
	return report, err
}

func (s *SyncService) syncAll(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{StartedAt: time.Now()}
	defer func() { report.FinishedAt = time.Now() }()

	userID, err := s.currentUser(ctx)
	if errors.Is(err, util.ErrNoUser) {
		logger.Log.Info("No user signed in, skipping sync")
		report.Skipped = true
		return report, nil
	}
	if err != nil {
		return report, err
	}

	var errs error
	record := func(err error) {
		errs = multierr.Append(errs, err)
		report.Errors = append(report.Errors, err.Error())
	}

	courseIDs, err := s.courseIDs(ctx, userID)
	if err != nil {
		record(err)
	}
	for _, courseID := range courseIDs {
		report.Courses++
		result, err := s.SyncProgress(ctx, courseID)
		if result != nil {
			report.SectionsPulled += result.SectionsPulled
			report.SectionsPushed += result.SectionsPushed
		}
		if err != nil {
			report.CoursesFailed++
			logger.Log.Warn("Course sync failed", zap.String("courseId", courseID), zap.Error(err))
			record(err)
		}
	}

	// 无论课程进度是否存在都同步证书
	pushed, err := s.SyncCertificatesToBackend(ctx, userID)
	report.CertificatesPushed = pushed
	if err != nil {
		record(err)
	}

	pulled, err := s.SyncCertificatesFromBackend(ctx, userID)
	report.CertificatesPulled = pulled
	if err != nil {
		record(err)
	}

	logger.Log.Info("Sync finished",
		zap.String("user", userID),
		zap.Int("courses", report.Courses),
		zap.Int("coursesFailed", report.CoursesFailed),
		zap.Int("sectionsPulled", report.SectionsPulled),
		zap.Int("sectionsPushed", report.SectionsPushed),
		zap.Int("certificatesPushed", report.CertificatesPushed),
		zap.Int("certificatesPulled", report.CertificatesPulled))

	return report, errs
}

// courseIDs 后端有进度的课程在前，其后是只存在于本地的课程。
// 任一来源失败时仍返回另一来源的课程。
func (s *SyncService) courseIDs(ctx context.Context, userID string) ([]string, error) {
	var (
		ids  []string
		errs error
		seen = make(map[string]bool)
	)
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}

	remoteCourses, err := s.Backend.ListCourseProgress(ctx, userID)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("list remote progress: %w", err))
	}
	for _, rp := range remoteCourses {
		add(rp.CourseID)
	}

	localIDs, err := s.Progress.CourseIDs(ctx)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("list local progress: %w", err))
	}
	for _, id := range localIDs {
		add(id)
	}
	return ids, errs
}

// SyncInBackground 异步同步单门课程，错误只写日志
func (s *SyncService) SyncInBackground(courseID string) {
	s.runCourseInBackground(courseID, "Background course sync failed", s.SyncProgress)
}

// PushInBackground 异步推送单门课程，错误只写日志
func (s *SyncService) PushInBackground(courseID string) {
	s.runCourseInBackground(courseID, "Background progress push failed", s.PushProgress)
}

func (s *SyncService) runCourseInBackground(courseID, failMsg string, fn func(context.Context, string) (*CourseSyncResult, error)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
		defer cancel()

		if _, err := fn(ctx, courseID); err != nil {
			if errors.Is(err, util.ErrNoUser) {
				logger.Log.Debug("No user signed in, progress kept locally", zap.String("courseId", courseID))
				return
			}
			logger.Log.Error(failMsg, zap.String("courseId", courseID), zap.Error(err))
		}
	}()
}

// SyncAllInBackground 异步全量同步，错误只写日志
func (s *SyncService) SyncAllInBackground() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
		defer cancel()

		if _, err := s.SyncAll(ctx); err != nil {
			logger.Log.Error("Background sync failed", zap.Error(err))
		}
	}()
}

// Wait 等待所有后台同步结束
func (s *SyncService) Wait() {
	s.wg.Wait()
}
