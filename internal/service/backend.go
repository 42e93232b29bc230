package service

import (
	"context"
	"course_sync/internal/model"
	"course_sync/internal/remote"
)

// CourseBackend 远端课程服务，*remote.Client 实现该接口
type CourseBackend interface {
	ListCourses(ctx context.Context) ([]model.Course, error)
	GetCourse(ctx context.Context, courseID string) (*model.Course, error)
	ListCourseProgress(ctx context.Context, userID string) ([]remote.CourseProgress, error)
	GetCourseProgress(ctx context.Context, userID, courseID string) (*remote.CourseProgress, error)
	SaveSectionProgress(ctx context.Context, userID, courseID, sectionID string, score, totalQuestions int) error
	MarkCourseCompleted(ctx context.Context, userID, courseID string) error
	ListCertificates(ctx context.Context, userID string) ([]remote.Certificate, error)
	CreateCertificate(ctx context.Context, userID string, cert model.Certificate) (*remote.CreateCertificateResult, error)
	Login(ctx context.Context, username string) (*model.User, error)
}

var _ CourseBackend = (*remote.Client)(nil)
