package progress

import (
	"course_sync/internal/model"
	"testing"
	"time"
)

func completed(id string, score, total int) model.SectionProgress {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return model.SectionProgress{SectionID: id, Completed: true, Score: score, TotalQuestions: total, CompletedAt: &now}
}

func progressOf(sections ...model.SectionProgress) *model.CourseProgress {
	p := model.NewCourseProgress("course-1", time.Now())
	for _, s := range sections {
		p.UpsertSection(s)
	}
	return p
}

func TestEndToEndScenarios(t *testing.T) {
	testCases := []struct {
		name      string
		progress  *model.CourseProgress
		wantScore int
		wantDone  bool
		wantPass  bool
	}{
		{
			name:      "all sections passed above threshold",
			progress:  progressOf(completed("s1", 2, 2), completed("s2", 1, 2), completed("s3", 2, 2)),
			wantScore: 83,
			wantDone:  true,
			wantPass:  true,
		},
		{
			name:      "completed but below threshold",
			progress:  progressOf(completed("s1", 2, 2), completed("s2", 0, 2), completed("s3", 2, 2)),
			wantScore: 67,
			wantDone:  true,
			wantPass:  false,
		},
		{
			name:      "fresh course",
			progress:  model.NewCourseProgress("course-1", time.Now()),
			wantScore: 0,
			wantDone:  false,
			wantPass:  false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ScorePercentage(tc.progress); got != tc.wantScore {
				t.Errorf("ScorePercentage = %d, want %d", got, tc.wantScore)
			}
			if got := IsCourseCompleted(tc.progress, 3); got != tc.wantDone {
				t.Errorf("IsCourseCompleted = %v, want %v", got, tc.wantDone)
			}
			if got := HasPassedCourse(tc.progress, 3, 75); got != tc.wantPass {
				t.Errorf("HasPassedCourse = %v, want %v", got, tc.wantPass)
			}
		})
	}
}

func TestFreshCourseCompletionIsZero(t *testing.T) {
	p := model.NewCourseProgress("c", time.Now())
	if got := CompletionPercentage(p, 3); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestCompletionPercentageZeroSections(t *testing.T) {
	p := progressOf(completed("s1", 1, 1))
	if got := CompletionPercentage(p, 0); got != 0 {
		t.Errorf("expected 0 for zero sections, got %d", got)
	}
}

func TestCompletionPercentageIsMonotonicAndBounded(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g"}
	p := model.NewCourseProgress("c", time.Now())

	last := CompletionPercentage(p, len(ids))
	for _, id := range ids {
		p.UpsertSection(completed(id, 0, 1))
		got := CompletionPercentage(p, len(ids))
		if got < last {
			t.Fatalf("completion decreased from %d to %d", last, got)
		}
		if got < 0 || got > 100 {
			t.Fatalf("completion out of range: %d", got)
		}
		last = got
	}
	if last != 100 {
		t.Errorf("expected 100 when all completed, got %d", last)
	}

	// 小节被删除后本地完成数多于课程小节数
	if got := CompletionPercentage(p, 3); got != 100 {
		t.Errorf("expected clamp to 100, got %d", got)
	}
}

func TestCompletionPercentageRounding(t *testing.T) {
	p := progressOf(completed("s1", 1, 1))
	if got := CompletionPercentage(p, 3); got != 33 {
		t.Errorf("expected 33, got %d", got)
	}
	p.UpsertSection(completed("s2", 1, 1))
	if got := CompletionPercentage(p, 3); got != 67 {
		t.Errorf("expected 67, got %d", got)
	}
}

func TestScoreIsUnweightedAcrossSections(t *testing.T) {
	// 1/1 = 100%, 0/9 = 0%：按小节平均为 50，而按题数合计只有 10
	p := progressOf(completed("s1", 1, 1), completed("s2", 0, 9))
	if got := ScorePercentage(p); got != 50 {
		t.Errorf("expected 50, got %d", got)
	}
}

func TestScoreIgnoresIncompleteAndZeroQuestionSections(t *testing.T) {
	p := progressOf(completed("s1", 2, 2), completed("s2", 0, 0))
	p.UpsertSection(model.SectionProgress{SectionID: "s3", Completed: false, Score: 0, TotalQuestions: 5})

	if got := ScorePercentage(p); got != 50 {
		t.Errorf("expected 50, got %d", got)
	}
}

func TestHasPassedRequiresCompletion(t *testing.T) {
	p := progressOf(completed("s1", 2, 2), completed("s2", 2, 2))
	for _, threshold := range []int{0, 50, 100} {
		if HasPassedCourse(p, 3, threshold) {
			t.Errorf("expected not passed with threshold %d when course incomplete", threshold)
		}
	}
}

func TestCompletionRegressesWhenSectionAdded(t *testing.T) {
	p := progressOf(completed("s1", 1, 1), completed("s2", 1, 1))
	if !IsCourseCompleted(p, 2) {
		t.Fatal("expected completed with 2 sections")
	}
	if IsCourseCompleted(p, 3) {
		t.Error("expected not completed after a third section is added")
	}
}

func TestFirstIncompleteSectionID(t *testing.T) {
	ids := []string{"s1", "s2", "s3"}

	testCases := []struct {
		name     string
		progress *model.CourseProgress
		want     string
	}{
		{"nothing done", progressOf(), "s1"},
		{"first done", progressOf(completed("s1", 1, 1)), "s2"},
		{"gap", progressOf(completed("s1", 1, 1), completed("s3", 1, 1)), "s2"},
		{"all done replays from start", progressOf(completed("s1", 1, 1), completed("s2", 1, 1), completed("s3", 1, 1)), "s1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FirstIncompleteSectionID(tc.progress, ids); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}

	if got := FirstIncompleteSectionID(progressOf(), nil); got != "" {
		t.Errorf("expected empty id for empty course, got %q", got)
	}
}

func TestNextSectionID(t *testing.T) {
	ids := []string{"s1", "s2"}
	if next, ok := NextSectionID(ids, "s1"); !ok || next != "s2" {
		t.Errorf("expected s2, got %q %v", next, ok)
	}
	if _, ok := NextSectionID(ids, "s2"); ok {
		t.Error("expected no section after the last one")
	}
	if _, ok := NextSectionID(ids, "missing"); ok {
		t.Error("expected no section after unknown id")
	}
}
