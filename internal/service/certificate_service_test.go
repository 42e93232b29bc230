package service

import (
	"context"
	"course_sync/internal/config"
	"course_sync/internal/model"
	"course_sync/internal/util"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newCertificateEnv(t *testing.T) (*testEnv, *CertificateService, string) {
	env := newTestEnv(t)
	env.backend.courses["c1"] = threeSectionCourse("c1", 75)
	dir := t.TempDir()
	storage := NewStorageService(&config.ArchiveConfig{Type: util.ArchiveLocal, LocalPath: dir})
	return env, NewCertificateService(env.catalog, env.progress, env.users, env.backend, storage), dir
}

func completeAll(t *testing.T, env *testEnv, scores ...int) {
	t.Helper()
	ctx := context.Background()
	for i, score := range scores {
		id := []string{"s1", "s2", "s3"}[i]
		if err := env.progress.SaveSectionProgress(ctx, "c1", id, score, 2); err != nil {
			t.Fatal(err)
		}
	}
}

func TestIssueRequiresPassedCourse(t *testing.T) {
	env, svc, _ := newCertificateEnv(t)
	completeAll(t, env, 2, 0, 2)

	_, err := svc.Issue(context.Background(), "c1")
	if !errors.Is(err, util.ErrCourseNotPassed) {
		t.Fatalf("expected ErrCourseNotPassed, got %v", err)
	}
}

func TestIssueCreatesAndReusesCertificate(t *testing.T) {
	env, svc, dir := newCertificateEnv(t)
	env.signIn(t, "alice")
	ctx := context.Background()
	completeAll(t, env, 2, 1, 2)
	env.progress.MarkCourseCompleted(ctx, "c1")
	p, _ := env.progress.Get(ctx, "c1")

	first, err := svc.Issue(ctx, "c1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if !first.Created {
		t.Error("expected new certificate")
	}
	cert := first.Certificate
	if cert.UserName != "alice" || cert.CourseName != "Course c1" || cert.TotalSections != 3 {
		t.Errorf("unexpected certificate %+v", cert)
	}
	if !cert.CompletedAt.Equal(*p.CompletedAt) {
		t.Errorf("expected completedAt from progress, got %v", cert.CompletedAt)
	}
	if len(env.backend.createdCerts) != 1 {
		t.Errorf("expected certificate pushed, got %v", env.backend.createdCerts)
	}
	if _, err := os.Stat(filepath.Join(dir, "certificates", "alice", "c1.json")); err != nil {
		t.Errorf("expected archived certificate: %v", err)
	}

	second, err := svc.Issue(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if second.Created || !second.Certificate.CompletedAt.Equal(cert.CompletedAt) {
		t.Errorf("expected existing certificate reused, got %+v", second)
	}
	list, _ := svc.List(ctx)
	if len(list) != 1 {
		t.Errorf("expected one certificate, got %d", len(list))
	}
}

func TestIssueWithoutUserUsesDefaultName(t *testing.T) {
	env, svc, _ := newCertificateEnv(t)
	completeAll(t, env, 2, 2, 2)

	result, err := svc.Issue(context.Background(), "c1")
	if err != nil {
		t.Fatal(err)
	}
	if result.Certificate.UserName != util.DefaultLearnerName {
		t.Errorf("expected default learner name, got %q", result.Certificate.UserName)
	}
	if len(env.backend.createdCerts) != 0 {
		t.Error("certificate must not be pushed without a user")
	}
}

func TestIssueKeepsCertificateWhenPushFails(t *testing.T) {
	env, svc, _ := newCertificateEnv(t)
	env.signIn(t, "alice")
	completeAll(t, env, 2, 2, 2)
	env.backend.certErrs["c1"] = serverError("create_certificate")

	if _, err := svc.Issue(context.Background(), "c1"); err != nil {
		t.Fatalf("push failure must not fail Issue: %v", err)
	}
	if ok, _ := env.progress.HasCertificate(context.Background(), "c1"); !ok {
		t.Error("expected certificate saved locally")
	}
}

func TestGetAndExportCertificate(t *testing.T) {
	env, svc, _ := newCertificateEnv(t)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "c1"); !errors.Is(err, util.ErrCertificateNotFound) {
		t.Errorf("expected ErrCertificateNotFound, got %v", err)
	}
	if _, err := svc.Export(ctx, "c1"); !errors.Is(err, util.ErrCertificateNotFound) {
		t.Errorf("expected ErrCertificateNotFound on export, got %v", err)
	}

	env.progress.SaveCertificate(ctx, model.Certificate{CourseID: "c1", CourseName: "One", CompletedAt: day1})
	url, err := svc.Export(ctx, "c1")
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if !strings.HasSuffix(url, "certificates/local/c1.json") {
		t.Errorf("unexpected archive url %q", url)
	}
}

func TestClearAllRemovesArchives(t *testing.T) {
	env, svc, dir := newCertificateEnv(t)
	ctx := context.Background()
	env.signIn(t, "alice")
	completeAll(t, env, 2, 2, 2)

	if _, err := svc.Issue(ctx, "c1"); err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	archived := filepath.Join(dir, "certificates", "alice", "c1.json")
	if _, err := os.Stat(archived); err != nil {
		t.Fatalf("expected archive at %s: %v", archived, err)
	}

	if err := svc.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll returned error: %v", err)
	}
	if _, err := os.Stat(archived); !os.IsNotExist(err) {
		t.Errorf("expected archive removed, stat err %v", err)
	}
	certs, _ := svc.List(ctx)
	if len(certs) != 0 {
		t.Errorf("expected certificates cleared, got %+v", certs)
	}
	p, _ := env.progress.Get(ctx, "c1")
	if len(p.Sections) != 0 {
		t.Errorf("expected progress cleared, got %+v", p.Sections)
	}
}
