package service

import (
	"context"
	"course_sync/internal/model"
	"course_sync/internal/remote"
	"course_sync/internal/repository"
	"course_sync/internal/util"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"
)

type pushedSection struct {
	UserID, CourseID, SectionID string
	Score, TotalQuestions       int
}

// fakeBackend 内存中的后端，按需注入失败
type fakeBackend struct {
	mu sync.Mutex

	courses      map[string]model.Course
	progress     map[string]*remote.CourseProgress // courseId
	certificates map[string]remote.Certificate     // courseId

	pushed          []pushedSection
	completed       []string
	createdCerts    []string
	progressErr     error
	listProgressErr error
	listCoursesErr  error
	getCourseErr    error
	certErrs        map[string]error
	conflictCerts   map[string]bool
	loginErr        error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		courses:       map[string]model.Course{},
		progress:      map[string]*remote.CourseProgress{},
		certificates:  map[string]remote.Certificate{},
		certErrs:      map[string]error{},
		conflictCerts: map[string]bool{},
	}
}

func serverError(op string) error {
	return &remote.StatusError{Operation: op, StatusCode: http.StatusInternalServerError, Body: "boom"}
}

func (f *fakeBackend) ListCourses(ctx context.Context) ([]model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listCoursesErr != nil {
		return nil, f.listCoursesErr
	}
	courses := make([]model.Course, 0, len(f.courses))
	for _, c := range f.courses {
		courses = append(courses, c)
	}
	return courses, nil
}

func (f *fakeBackend) GetCourse(ctx context.Context, courseID string) (*model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getCourseErr != nil {
		return nil, f.getCourseErr
	}
	c, ok := f.courses[courseID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", util.ErrCourseNotFound, courseID)
	}
	return &c, nil
}

func (f *fakeBackend) ListCourseProgress(ctx context.Context, userID string) ([]remote.CourseProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listProgressErr != nil {
		return nil, f.listProgressErr
	}
	list := make([]remote.CourseProgress, 0, len(f.progress))
	for id := range f.progress {
		list = append(list, remote.CourseProgress{CourseID: id})
	}
	return list, nil
}

func (f *fakeBackend) GetCourseProgress(ctx context.Context, userID, courseID string) (*remote.CourseProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.progressErr != nil {
		return nil, f.progressErr
	}
	p, ok := f.progress[courseID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeBackend) SaveSectionProgress(ctx context.Context, userID, courseID, sectionID string, score, totalQuestions int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, pushedSection{userID, courseID, sectionID, score, totalQuestions})
	return nil
}

func (f *fakeBackend) MarkCourseCompleted(ctx context.Context, userID, courseID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, courseID)
	return nil
}

func (f *fakeBackend) ListCertificates(ctx context.Context, userID string) ([]remote.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	certs := make([]remote.Certificate, 0, len(f.certificates))
	for _, c := range f.certificates {
		certs = append(certs, c)
	}
	return certs, nil
}

func (f *fakeBackend) CreateCertificate(ctx context.Context, userID string, cert model.Certificate) (*remote.CreateCertificateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.certErrs[cert.CourseID]; err != nil {
		return nil, err
	}
	if f.conflictCerts[cert.CourseID] {
		existing := f.certificates[cert.CourseID]
		return &remote.CreateCertificateResult{Certificate: &existing, Created: false}, nil
	}
	f.createdCerts = append(f.createdCerts, cert.CourseID)
	return &remote.CreateCertificateResult{Certificate: &remote.Certificate{CourseID: cert.CourseID}, Created: true}, nil
}

func (f *fakeBackend) Login(ctx context.Context, username string) (*model.User, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &model.User{ID: "u-" + username, Username: username}, nil
}

func (f *fakeBackend) pushedSections() []pushedSection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pushedSection(nil), f.pushed...)
}

type testEnv struct {
	backend  *fakeBackend
	store    *repository.MemoryKVStore
	progress *repository.ProgressRepository
	users    *repository.UserRepository
	sync     *SyncService
	catalog  *CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	backend := newFakeBackend()
	store := repository.NewMemoryKVStore()
	progressRepo := repository.NewProgressRepository(store)
	users := repository.NewUserRepository(store)
	return &testEnv{
		backend:  backend,
		store:    store,
		progress: progressRepo,
		users:    users,
		sync:     NewSyncService(backend, progressRepo, users, 5*time.Second),
		catalog:  NewCatalogService(backend, store, repository.NewEnrollmentRepository(store)),
	}
}

func (e *testEnv) signIn(t *testing.T, username string) {
	t.Helper()
	if err := e.users.Save(context.Background(), &model.User{ID: "u-" + username, Username: username}); err != nil {
		t.Fatalf("save user: %v", err)
	}
}

func threeSectionCourse(id string, threshold int) model.Course {
	return model.Course{
		ID:               id,
		Title:            "Course " + id,
		PassingThreshold: threshold,
		Sections: []model.Section{
			{ID: "s1", Title: "One"},
			{ID: "s2", Title: "Two"},
			{ID: "s3", Title: "Three"},
		},
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
