package progress

import "course_sync/internal/model"

type SectionState struct {
	SectionID string `json:"sectionId"`
	Completed bool   `json:"completed"`
	Locked    bool   `json:"locked"`
	Score     int    `json:"score"`
	Total     int    `json:"totalQuestions"`
}

// Summary 课程详情页需要的聚合状态
type Summary struct {
	CourseID             string         `json:"courseId"`
	CompletionPercentage int            `json:"completionPercentage"`
	ScorePercentage      int            `json:"scorePercentage"`
	Completed            bool           `json:"completed"`
	Passed               bool           `json:"passed"`
	PassingThreshold     int            `json:"passingThreshold"`
	NextSectionID        string         `json:"nextSectionId"`
	Sections             []SectionState `json:"sections"`
}

// Summarize 第 i 个小节在 i == 0 或前一小节已完成时解锁
func Summarize(p *model.CourseProgress, course *model.Course) Summary {
	ids := course.SectionIDs()
	total := len(ids)

	summary := Summary{
		CourseID:             course.ID,
		CompletionPercentage: CompletionPercentage(p, total),
		ScorePercentage:      ScorePercentage(p),
		Completed:            IsCourseCompleted(p, total),
		Passed:               HasPassedCourse(p, total, course.PassingThreshold),
		PassingThreshold:     course.PassingThreshold,
		NextSectionID:        FirstIncompleteSectionID(p, ids),
		Sections:             make([]SectionState, 0, total),
	}

	prevCompleted := true
	for _, id := range ids {
		state := SectionState{SectionID: id, Locked: !prevCompleted}
		if p != nil {
			if s, ok := p.Section(id); ok && s.Completed {
				state.Completed = true
				state.Score = s.Score
				state.Total = s.TotalQuestions
			}
		}
		summary.Sections = append(summary.Sections, state)
		prevCompleted = state.Completed
	}

	return summary
}
