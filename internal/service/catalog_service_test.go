package service

import (
	"context"
	"course_sync/internal/util"
	"errors"
	"testing"
)

func TestCatalogFallsBackToCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.backend.courses["c1"] = threeSectionCourse("c1", 70)

	if _, err := env.catalog.ListCourses(ctx); err != nil {
		t.Fatalf("ListCourses returned error: %v", err)
	}
	if _, err := env.catalog.GetCourse(ctx, "c1"); err != nil {
		t.Fatalf("GetCourse returned error: %v", err)
	}

	env.backend.listCoursesErr = serverError("list_courses")
	env.backend.getCourseErr = serverError("get_course")

	courses, err := env.catalog.ListCourses(ctx)
	if err != nil || len(courses) != 1 {
		t.Fatalf("expected cached catalog, got %v, %v", courses, err)
	}
	course, err := env.catalog.GetCourse(ctx, "c1")
	if err != nil || course.ID != "c1" || len(course.Sections) != 3 {
		t.Fatalf("expected cached course, got %+v, %v", course, err)
	}
}

func TestCatalogGetCourseUsesCachedList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.backend.courses["c1"] = threeSectionCourse("c1", 70)
	env.catalog.ListCourses(ctx)

	env.backend.getCourseErr = serverError("get_course")
	course, err := env.catalog.GetCourse(ctx, "c1")
	if err != nil || course.ID != "c1" {
		t.Fatalf("expected course from cached list, got %+v, %v", course, err)
	}
}

func TestCatalogWithoutCacheReturnsRemoteError(t *testing.T) {
	env := newTestEnv(t)
	env.backend.listCoursesErr = serverError("list_courses")

	if _, err := env.catalog.ListCourses(context.Background()); !errors.Is(err, util.ErrRemote) {
		t.Errorf("expected remote error, got %v", err)
	}
}

func TestEnrollmentFeed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.backend.courses["c1"] = threeSectionCourse("c1", 70)
	env.backend.courses["c2"] = threeSectionCourse("c2", 70)

	if err := env.catalog.Enroll(ctx, "c9"); !errors.Is(err, util.ErrCourseNotFound) {
		t.Errorf("expected ErrCourseNotFound, got %v", err)
	}
	env.catalog.Enroll(ctx, "c2")
	env.catalog.Enroll(ctx, "c1")

	enrolled, err := env.catalog.EnrolledCourses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(enrolled) != 2 || enrolled[0].ID != "c2" || enrolled[1].ID != "c1" {
		t.Errorf("expected enrollment order c2, c1; got %+v", enrolled)
	}

	env.catalog.Unenroll(ctx, "c2")
	enrolled, _ = env.catalog.EnrolledCourses(ctx)
	if len(enrolled) != 1 || enrolled[0].ID != "c1" {
		t.Errorf("expected only c1 after unenroll, got %+v", enrolled)
	}
}
