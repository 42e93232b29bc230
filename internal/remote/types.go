package remote

import (
	"course_sync/internal/model"
	"time"
)

// SectionProgress 后端返回的小节进度
type SectionProgress struct {
	ID               string     `json:"id,omitempty"`
	CourseProgressID string     `json:"courseProgressId,omitempty"`
	SectionID        string     `json:"sectionId"`
	Completed        bool       `json:"completed"`
	Score            int        `json:"score"`
	TotalQuestions   int        `json:"totalQuestions"`
	CompletedAt      *time.Time `json:"completedAt"`
}

// CourseProgress 后端返回的课程进度；列表接口只保证 courseId 存在
type CourseProgress struct {
	ID             string            `json:"id,omitempty"`
	CourseID       string            `json:"courseId"`
	UserID         string            `json:"userId,omitempty"`
	StartedAt      *time.Time        `json:"startedAt,omitempty"`
	LastAccessedAt *time.Time        `json:"lastAccessedAt,omitempty"`
	CompletedAt    *time.Time        `json:"completedAt"`
	Sections       []SectionProgress `json:"sections"`
}

type sectionProgressRequest struct {
	Score          int `json:"score"`
	TotalQuestions int `json:"totalQuestions"`
}

type Certificate struct {
	ID            string    `json:"id,omitempty"`
	CourseID      string    `json:"courseId"`
	CourseName    string    `json:"courseName"`
	CompletedAt   time.Time `json:"completedAt"`
	UserName      string    `json:"userName"`
	TotalSections int       `json:"totalSections"`
}

func (c Certificate) ToModel() model.Certificate {
	return model.Certificate{
		CourseID:      c.CourseID,
		CourseName:    c.CourseName,
		CompletedAt:   c.CompletedAt,
		UserName:      c.UserName,
		TotalSections: c.TotalSections,
	}
}

type createCertificateRequest struct {
	CourseID      string `json:"courseId"`
	Username      string `json:"username"`
	CourseName    string `json:"courseName"`
	UserName      string `json:"userName"`
	TotalSections int    `json:"totalSections"`
}

// CreateCertificateResult Created 为 false 表示后端已存在（409）
type CreateCertificateResult struct {
	Certificate *Certificate
	Created     bool
}

type conflictResponse struct {
	Error       string       `json:"error"`
	Certificate *Certificate `json:"certificate"`
}

type loginRequest struct {
	Username string `json:"username"`
}
