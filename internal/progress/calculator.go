// Package progress 根据本地进度记录计算课程完成度、得分与导航状态，不做任何 I/O。
package progress

import (
	"course_sync/internal/model"
	"math"
)

func completedCount(p *model.CourseProgress) int {
	if p == nil {
		return 0
	}
	n := 0
	for _, s := range p.Sections {
		if s.Completed {
			n++
		}
	}
	return n
}

// CompletionPercentage 已完成小节占比（0-100），totalSections 为 0 时返回 0
func CompletionPercentage(p *model.CourseProgress, totalSections int) int {
	if totalSections <= 0 {
		return 0
	}
	pct := int(math.Round(float64(completedCount(p)) / float64(totalSections) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}

// ScorePercentage 已完成小节得分率的简单平均。
// 按小节平均而不是按题数加权：题量不同的两个小节权重相同。
func ScorePercentage(p *model.CourseProgress) int {
	if p == nil {
		return 0
	}
	var (
		total float64
		n     int
	)
	for _, s := range p.Sections {
		if !s.Completed {
			continue
		}
		n++
		if s.TotalQuestions > 0 {
			total += float64(s.Score) / float64(s.TotalQuestions) * 100
		}
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(total / float64(n)))
}

// IsCourseCompleted 已完成小节数与当前课程小节数严格相等
func IsCourseCompleted(p *model.CourseProgress, totalSections int) bool {
	return completedCount(p) == totalSections
}

func HasPassedCourse(p *model.CourseProgress, totalSections, passingThreshold int) bool {
	if !IsCourseCompleted(p, totalSections) {
		return false
	}
	return ScorePercentage(p) >= passingThreshold
}

func isCompleted(p *model.CourseProgress, sectionID string) bool {
	if p == nil {
		return false
	}
	s, ok := p.Section(sectionID)
	return ok && s.Completed
}

// FirstIncompleteSectionID 按课程顺序返回第一个未完成的小节；全部完成时从头开始
func FirstIncompleteSectionID(p *model.CourseProgress, orderedSectionIDs []string) string {
	if len(orderedSectionIDs) == 0 {
		return ""
	}
	for _, id := range orderedSectionIDs {
		if !isCompleted(p, id) {
			return id
		}
	}
	return orderedSectionIDs[0]
}

// NextSectionID 课程顺序中 currentID 之后的小节
func NextSectionID(orderedSectionIDs []string, currentID string) (string, bool) {
	for i, id := range orderedSectionIDs {
		if id == currentID && i+1 < len(orderedSectionIDs) {
			return orderedSectionIDs[i+1], true
		}
	}
	return "", false
}
