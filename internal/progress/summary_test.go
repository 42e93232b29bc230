package progress

import (
	"course_sync/internal/model"
	"testing"
)

func TestSummarizeLocksSectionsInOrder(t *testing.T) {
	course := &model.Course{
		ID:               "course-1",
		PassingThreshold: 75,
		Sections:         []model.Section{{ID: "s1"}, {ID: "s2"}, {ID: "s3"}},
	}
	p := progressOf(completed("s1", 2, 2))

	summary := Summarize(p, course)

	if summary.CompletionPercentage != 33 {
		t.Errorf("expected 33%% completion, got %d", summary.CompletionPercentage)
	}
	if summary.NextSectionID != "s2" {
		t.Errorf("expected next section s2, got %q", summary.NextSectionID)
	}
	if summary.Completed || summary.Passed {
		t.Error("expected course not completed nor passed")
	}

	wantLocked := []bool{false, false, true}
	for i, s := range summary.Sections {
		if s.Locked != wantLocked[i] {
			t.Errorf("section %s locked = %v, want %v", s.SectionID, s.Locked, wantLocked[i])
		}
	}
	if !summary.Sections[0].Completed || summary.Sections[0].Score != 2 {
		t.Errorf("unexpected first section state %+v", summary.Sections[0])
	}
}
