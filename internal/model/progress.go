package model

import "time"

// SectionProgress 单个小节的完成情况
// swagger:model SectionProgress
type SectionProgress struct {
	SectionID      string     `json:"sectionId"`
	Completed      bool       `json:"completed"`
	Score          int        `json:"score"`          // 答对题数
	TotalQuestions int        `json:"totalQuestions"` // 题目总数
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// CourseProgress 某门课程的本地进度记录，按 courseId 存储
// swagger:model CourseProgress
type CourseProgress struct {
	CourseID       string            `json:"courseId"`
	Sections       []SectionProgress `json:"sections"`
	StartedAt      time.Time         `json:"startedAt"`
	LastAccessedAt time.Time         `json:"lastAccessedAt"`
	CompletedAt    *time.Time        `json:"completedAt,omitempty"`
}

// NewCourseProgress 首次读取时创建的空记录
func NewCourseProgress(courseID string, now time.Time) *CourseProgress {
	return &CourseProgress{
		CourseID:       courseID,
		Sections:       []SectionProgress{},
		StartedAt:      now,
		LastAccessedAt: now,
	}
}

// Section 按 sectionId 查找小节进度
func (p *CourseProgress) Section(sectionID string) (*SectionProgress, bool) {
	for i := range p.Sections {
		if p.Sections[i].SectionID == sectionID {
			return &p.Sections[i], true
		}
	}
	return nil, false
}

// UpsertSection 覆盖同 id 的小节（保留原位置），否则追加
func (p *CourseProgress) UpsertSection(s SectionProgress) {
	for i := range p.Sections {
		if p.Sections[i].SectionID == s.SectionID {
			p.Sections[i] = s
			return
		}
	}
	p.Sections = append(p.Sections, s)
}

func (p *CourseProgress) CompletedSections() []SectionProgress {
	completed := make([]SectionProgress, 0, len(p.Sections))
	for _, s := range p.Sections {
		if s.Completed {
			completed = append(completed, s)
		}
	}
	return completed
}

// Certificate 课程证书，每门课程最多一份
// swagger:model Certificate
type Certificate struct {
	CourseID      string    `json:"courseId"`
	CourseName    string    `json:"courseName"`
	CompletedAt   time.Time `json:"completedAt"`
	UserName      string    `json:"userName"`
	TotalSections int       `json:"totalSections"`
}
