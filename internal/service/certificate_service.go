package service

import (
	"context"
	"course_sync/internal/model"
	"course_sync/internal/progress"
	"course_sync/internal/repository"
	"course_sync/internal/util"
	"course_sync/pkg/logger"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// 未登录时的归档目录
const anonymousArchiveUser = "local"

type IssueResult struct {
	Certificate *model.Certificate `json:"certificate"`
	Created     bool               `json:"created"`
	ArchiveURL  string             `json:"archiveUrl,omitempty"`
}

// CertificateService 课程证书的签发、查询和归档
type CertificateService struct {
	Catalog  *CatalogService
	Progress *repository.ProgressRepository
	Users    *repository.UserRepository
	Backend  CourseBackend
	Storage  *StorageService
}

func NewCertificateService(
	catalog *CatalogService,
	progressRepo *repository.ProgressRepository,
	users *repository.UserRepository,
	backend CourseBackend,
	storage *StorageService,
) *CertificateService {
	return &CertificateService{
		Catalog:  catalog,
		Progress: progressRepo,
		Users:    users,
		Backend:  backend,
		Storage:  storage,
	}
}

// Issue 已有证书时直接返回；未通过课程返回 ErrCourseNotPassed
func (s *CertificateService) Issue(ctx context.Context, courseID string) (*IssueResult, error) {
	course, err := s.Catalog.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	p, err := s.Progress.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !progress.HasPassedCourse(p, len(course.Sections), course.PassingThreshold) {
		return nil, fmt.Errorf("%w: %s", util.ErrCourseNotPassed, courseID)
	}

	existing, err := s.Progress.GetCertificate(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &IssueResult{Certificate: existing}, nil
	}

	username, err := s.Users.Username(ctx)
	if err != nil {
		return nil, err
	}
	userName := username
	if userName == "" {
		userName = util.DefaultLearnerName
	}
	completedAt := time.Now().UTC()
	if p.CompletedAt != nil {
		completedAt = *p.CompletedAt
	}

	cert := model.Certificate{
		CourseID:      courseID,
		CourseName:    course.Title,
		CompletedAt:   completedAt,
		UserName:      userName,
		TotalSections: len(course.Sections),
	}
	if err := s.Progress.SaveCertificate(ctx, cert); err != nil {
		return nil, err
	}
	logger.Log.Info("Certificate issued", zap.String("courseId", courseID), zap.String("userName", userName))

	if username != "" {
		if _, err := s.Backend.CreateCertificate(ctx, username, cert); err != nil {
			logger.Log.Warn("Certificate kept locally, will retry on next sync",
				zap.String("courseId", courseID), zap.Error(err))
		}
	}

	result := &IssueResult{Certificate: &cert, Created: true}
	if url, err := s.archive(ctx, username, &cert); err != nil {
		logger.Log.Warn("Failed to archive certificate", zap.String("courseId", courseID), zap.Error(err))
	} else {
		result.ArchiveURL = url
	}
	return result, nil
}

func (s *CertificateService) List(ctx context.Context) ([]model.Certificate, error) {
	return s.Progress.ListCertificates(ctx)
}

func (s *CertificateService) Get(ctx context.Context, courseID string) (*model.Certificate, error) {
	cert, err := s.Progress.GetCertificate(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, fmt.Errorf("%w: %s", util.ErrCertificateNotFound, courseID)
	}
	return cert, nil
}

// Export 将证书写入归档存储并返回地址
func (s *CertificateService) Export(ctx context.Context, courseID string) (string, error) {
	cert, err := s.Get(ctx, courseID)
	if err != nil {
		return "", err
	}
	username, err := s.Users.Username(ctx)
	if err != nil {
		return "", err
	}
	return s.archive(ctx, username, cert)
}

func (s *CertificateService) archive(ctx context.Context, username string, cert *model.Certificate) (string, error) {
	if s.Storage == nil {
		return "", nil
	}
	if username == "" {
		username = anonymousArchiveUser
	}
	data, err := json.MarshalIndent(cert, "", "  ")
	if err != nil {
		return "", err
	}
	return s.Storage.Upload(ctx, CertificateKey(username, cert.CourseID), data, util.MimeJSON)
}

// ClearAll 删除本地证书的归档文件后清空本地进度和证书。
// 归档删除失败只记录日志。
func (s *CertificateService) ClearAll(ctx context.Context) error {
	certificates, err := s.Progress.ListCertificates(ctx)
	if err != nil {
		return err
	}
	if s.Storage != nil && len(certificates) > 0 {
		username, err := s.Users.Username(ctx)
		if err != nil {
			return err
		}
		owners := []string{anonymousArchiveUser}
		if username != "" {
			owners = append(owners, username)
		}
		for _, cert := range certificates {
			for _, owner := range owners {
				if err := s.Storage.Delete(ctx, CertificateKey(owner, cert.CourseID)); err != nil {
					logger.Log.Warn("Failed to delete certificate archive",
						zap.String("courseId", cert.CourseID),
						zap.String("owner", owner),
						zap.Error(err))
				}
			}
		}
	}
	return s.Progress.ClearAll(ctx)
}
