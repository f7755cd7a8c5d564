package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"testing"

	"kouza/internal/domain"
	"kouza/internal/domain/models"
	"kouza/internal/domain/repositories"
)

// memoryStore backs the fake repositories. It records the order of mutating
// calls so tests can assert the delete-before-upsert transaction shape.
type memoryStore struct {
	sections map[string]models.Section
	lectures map[string]models.Lecture
	pages    map[string]models.Page
	calls    []string
	nextID   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		sections: make(map[string]models.Section),
		lectures: make(map[string]models.Lecture),
		pages:    make(map[string]models.Page),
	}
}

func (s *memoryStore) allocID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

// checkSiblingSlugs mirrors the deferred unique constraints: slug uniqueness
// per sibling group is verified at commit, not after each row write.
func (s *memoryStore) checkSiblingSlugs() error {
	lectureSlugs := make(map[string]bool)
	for _, lec := range s.lectures {
		key := lec.SectionID + "/" + lec.Slug
		if lectureSlugs[key] {
			return fmt.Errorf("lecture slug '%s': %w", lec.Slug, domain.ErrConflict)
		}
		lectureSlugs[key] = true
	}
	pageSlugs := make(map[string]bool)
	for _, page := range s.pages {
		key := page.LectureID + "/" + page.Slug
		if pageSlugs[key] {
			return fmt.Errorf("page slug '%s': %w", page.Slug, domain.ErrConflict)
		}
		pageSlugs[key] = true
	}
	return nil
}

type fakeSectionRepo struct{ store *memoryStore }

func (r *fakeSectionRepo) ListByCourse(ctx context.Context, courseID string) ([]models.Section, error) {
	var out []models.Section
	for _, sec := range r.store.sections {
		sec.Lectures = nil
		out = append(out, sec)
	}
	slices.SortFunc(out, func(a, b models.Section) int { return a.Order - b.Order })
	return out, nil
}

func (r *fakeSectionRepo) Upsert(ctx context.Context, courseID string, section *models.Section) error {
	r.store.calls = append(r.store.calls, "section.upsert "+section.ID)
	r.store.sections[section.ID] = *section
	return nil
}

func (r *fakeSectionRepo) Create(ctx context.Context, courseID string, section *models.Section) error {
	section.ID = r.store.allocID("sec")
	r.store.calls = append(r.store.calls, "section.create "+section.ID)
	r.store.sections[section.ID] = *section
	return nil
}

func (r *fakeSectionRepo) DeleteMissing(ctx context.Context, courseID string, keep []string) error {
	if keep == nil {
		return errors.New("nil keep set")
	}
	r.store.calls = append(r.store.calls, "section.deleteMissing")
	for id := range r.store.sections {
		if !slices.Contains(keep, id) {
			delete(r.store.sections, id)
		}
	}
	return nil
}

type fakeLectureRepo struct{ store *memoryStore }

func (r *fakeLectureRepo) ListByCourse(ctx context.Context, courseID string) ([]models.Lecture, error) {
	var out []models.Lecture
	for _, lec := range r.store.lectures {
		lec.Pages = nil
		out = append(out, lec)
	}
	slices.SortFunc(out, func(a, b models.Lecture) int { return a.Order - b.Order })
	return out, nil
}

func (r *fakeLectureRepo) Upsert(ctx context.Context, lecture *models.Lecture) error {
	r.store.calls = append(r.store.calls, "lecture.upsert "+lecture.ID)
	r.store.lectures[lecture.ID] = *lecture
	return nil
}

func (r *fakeLectureRepo) Create(ctx context.Context, lecture *models.Lecture) error {
	lecture.ID = r.store.allocID("lec")
	r.store.calls = append(r.store.calls, "lecture.create "+lecture.ID)
	r.store.lectures[lecture.ID] = *lecture
	return nil
}

func (r *fakeLectureRepo) DeleteMissing(ctx context.Context, courseID string, keep []string) error {
	if keep == nil {
		return errors.New("nil keep set")
	}
	r.store.calls = append(r.store.calls, "lecture.deleteMissing")
	for id := range r.store.lectures {
		if !slices.Contains(keep, id) {
			delete(r.store.lectures, id)
		}
	}
	return nil
}

type fakePageRepo struct{ store *memoryStore }

func (r *fakePageRepo) ListByCourse(ctx context.Context, courseID string) ([]models.Page, error) {
	var out []models.Page
	for _, page := range r.store.pages {
		out = append(out, page)
	}
	slices.SortFunc(out, func(a, b models.Page) int { return a.Order - b.Order })
	return out, nil
}

func (r *fakePageRepo) Upsert(ctx context.Context, page *models.Page) error {
	r.store.calls = append(r.store.calls, "page.upsert "+page.ID)
	r.store.pages[page.ID] = *page
	return nil
}

func (r *fakePageRepo) Create(ctx context.Context, page *models.Page) error {
	page.ID = r.store.allocID("page")
	r.store.calls = append(r.store.calls, "page.create "+page.ID)
	r.store.pages[page.ID] = *page
	return nil
}

func (r *fakePageRepo) DeleteMissing(ctx context.Context, courseID string, keep []string) error {
	if keep == nil {
		return errors.New("nil keep set")
	}
	r.store.calls = append(r.store.calls, "page.deleteMissing")
	for id := range r.store.pages {
		if !slices.Contains(keep, id) {
			delete(r.store.pages, id)
		}
	}
	return nil
}

// fakeTxManager runs the function directly, counts invocations, and applies
// the store's deferred constraint checks at commit.
type fakeTxManager struct {
	store     *memoryStore
	execCount int
}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	m.execCount++
	if err := fn(ctx); err != nil {
		return err
	}
	return m.store.checkSiblingSlugs()
}

// fakeAuthorizer allows a single owner id.
type fakeAuthorizer struct{ ownerID string }

func (a *fakeAuthorizer) CanEditCourse(ctx context.Context, userID, courseID string) error {
	if userID != a.ownerID {
		return fmt.Errorf("access denied to course %s: %w", courseID, domain.ErrForbidden)
	}
	return nil
}

const (
	testOwner  = "user-1"
	testCourse = "course-1"
)

func newTestService(store *memoryStore) (*curriculumService, *fakeTxManager) {
	tx := &fakeTxManager{store: store}
	svc := &curriculumService{
		sectionRepo: &fakeSectionRepo{store: store},
		lectureRepo: &fakeLectureRepo{store: store},
		pageRepo:    &fakePageRepo{store: store},
		txManager:   tx,
		authorizer:  &fakeAuthorizer{ownerID: testOwner},
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return svc, tx
}

func draftTree() []models.Section {
	secID := models.NewPlaceholderID(models.KindSection)
	lecID := models.NewPlaceholderID(models.KindLecture)
	return []models.Section{
		{
			ID: secID, Name: "はじめに", Order: 0, IsOpen: true,
			Lectures: []models.Lecture{
				{
					ID: lecID, Name: "環境構築", Slug: "setup", Order: 0, IsOpen: true, SectionID: secID,
					Pages: []models.Page{
						{ID: models.NewPlaceholderID(models.KindPage), Name: "インストール", Slug: "install", Order: 0, IsOpen: true, LectureID: lecID},
					},
				},
			},
		},
	}
}

func TestSaveTreeCreatesPlaceholderNodesWithAllocatedParents(t *testing.T) {
	store := newMemoryStore()
	svc, tx := newTestService(store)

	saved, err := svc.SaveTree(context.Background(), testOwner, testCourse, draftTree())
	if err != nil {
		t.Fatalf("SaveTree failed: %v", err)
	}
	if tx.execCount != 1 {
		t.Errorf("ExecTx called %d times, want 1", tx.execCount)
	}

	sec := saved[0]
	if models.IsPlaceholderID(sec.ID) {
		t.Errorf("section id %q still a placeholder after save", sec.ID)
	}
	lec := sec.Lectures[0]
	if models.IsPlaceholderID(lec.ID) {
		t.Errorf("lecture id %q still a placeholder after save", lec.ID)
	}
	if lec.SectionID != sec.ID {
		t.Errorf("lecture parent = %q, want allocated section id %q", lec.SectionID, sec.ID)
	}
	page := lec.Pages[0]
	if models.IsPlaceholderID(page.ID) {
		t.Errorf("page id %q still a placeholder after save", page.ID)
	}
	if page.LectureID != lec.ID {
		t.Errorf("page parent = %q, want allocated lecture id %q", page.LectureID, lec.ID)
	}

	// Stored rows reference the allocated ids, not the placeholders.
	if _, ok := store.lectures[lec.ID]; !ok {
		t.Error("lecture not stored under its allocated id")
	}
	if stored := store.pages[page.ID]; stored.LectureID != lec.ID {
		t.Errorf("stored page parent = %q, want %q", stored.LectureID, lec.ID)
	}
}

func TestSaveTreeDeletesLeafToRootBeforeUpserting(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(store)

	if _, err := svc.SaveTree(context.Background(), testOwner, testCourse, draftTree()); err != nil {
		t.Fatalf("SaveTree failed: %v", err)
	}

	var order []string
	for _, call := range store.calls {
		switch call {
		case "page.deleteMissing", "lecture.deleteMissing", "section.deleteMissing":
			order = append(order, call)
		default:
			order = append(order, "write")
		}
	}
	if len(order) < 4 {
		t.Fatalf("too few calls recorded: %v", store.calls)
	}
	want := []string{"page.deleteMissing", "lecture.deleteMissing", "section.deleteMissing"}
	for i, call := range want {
		if order[i] != call {
			t.Fatalf("call %d = %q, want %q (full log: %v)", i, order[i], call, store.calls)
		}
	}
	for _, call := range order[3:] {
		if call != "write" {
			t.Fatalf("delete after writes began: %v", store.calls)
		}
	}
}

func TestSaveTreeDeletesNodesMissingFromSnapshot(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(store)

	saved, err := svc.SaveTree(context.Background(), testOwner, testCourse, draftTree())
	if err != nil {
		t.Fatalf("initial SaveTree failed: %v", err)
	}

	// Resubmit without the page.
	saved[0].Lectures[0].Pages = []models.Page{}
	if _, err := svc.SaveTree(context.Background(), testOwner, testCourse, saved); err != nil {
		t.Fatalf("second SaveTree failed: %v", err)
	}

	if len(store.pages) != 0 {
		t.Errorf("%d pages remain, want 0", len(store.pages))
	}
	if len(store.lectures) != 1 || len(store.sections) != 1 {
		t.Errorf("kept nodes deleted: %d lectures, %d sections", len(store.lectures), len(store.sections))
	}
}

func TestSaveTreeEmptySnapshotDeletesEverything(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(store)

	if _, err := svc.SaveTree(context.Background(), testOwner, testCourse, draftTree()); err != nil {
		t.Fatalf("initial SaveTree failed: %v", err)
	}

	// The fakes reject nil keep sets, mirroring how a nil slice would reach
	// the database as NULL instead of an empty array.
	if _, err := svc.SaveTree(context.Background(), testOwner, testCourse, []models.Section{}); err != nil {
		t.Fatalf("empty SaveTree failed: %v", err)
	}

	if len(store.sections)+len(store.lectures)+len(store.pages) != 0 {
		t.Errorf("rows remain after saving an empty tree: %d/%d/%d",
			len(store.sections), len(store.lectures), len(store.pages))
	}
}

func TestSaveTreeSwapsSiblingSlugs(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(store)

	tree := draftTree()
	lec := &tree[0].Lectures[0]
	lec.Pages = append(lec.Pages, models.Page{
		ID: models.NewPlaceholderID(models.KindPage), Name: "エディタ設定", Slug: "editor",
		Order: 1, IsOpen: true, LectureID: lec.ID,
	})
	saved, err := svc.SaveTree(context.Background(), testOwner, testCourse, tree)
	if err != nil {
		t.Fatalf("initial SaveTree failed: %v", err)
	}

	// Swapping the slugs of two persisted siblings is a valid snapshot; the
	// walk updates one row at a time, so this must not surface a conflict.
	pages := saved[0].Lectures[0].Pages
	pages[0].Slug, pages[1].Slug = pages[1].Slug, pages[0].Slug

	again, err := svc.SaveTree(context.Background(), testOwner, testCourse, saved)
	if err != nil {
		t.Fatalf("slug-swap SaveTree failed: %v", err)
	}

	got := again[0].Lectures[0].Pages
	if got[0].Slug != "editor" || got[1].Slug != "install" {
		t.Errorf("slugs = %q, %q, want editor and install", got[0].Slug, got[1].Slug)
	}
	if stored := store.pages[got[0].ID]; stored.Slug != "editor" {
		t.Errorf("stored first page slug = %q, want editor", stored.Slug)
	}
	if stored := store.pages[got[1].ID]; stored.Slug != "install" {
		t.Errorf("stored second page slug = %q, want install", stored.Slug)
	}
}

func TestSaveTreeIsIdempotent(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(store)

	saved, err := svc.SaveTree(context.Background(), testOwner, testCourse, draftTree())
	if err != nil {
		t.Fatalf("initial SaveTree failed: %v", err)
	}

	again, err := svc.SaveTree(context.Background(), testOwner, testCourse, saved)
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}

	if again[0].ID != saved[0].ID {
		t.Errorf("section id changed on resubmit: %q → %q", saved[0].ID, again[0].ID)
	}
	if len(store.sections) != 1 || len(store.lectures) != 1 || len(store.pages) != 1 {
		t.Errorf("row counts changed on resubmit: %d/%d/%d",
			len(store.sections), len(store.lectures), len(store.pages))
	}
}

func TestSaveTreeRoundTripsThroughGetTree(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(store)

	if _, err := svc.SaveTree(context.Background(), testOwner, testCourse, draftTree()); err != nil {
		t.Fatalf("SaveTree failed: %v", err)
	}

	tree, err := svc.GetTree(context.Background(), testOwner, testCourse)
	if err != nil {
		t.Fatalf("GetTree failed: %v", err)
	}

	if len(tree) != 1 {
		t.Fatalf("got %d sections, want 1", len(tree))
	}
	if tree[0].Name != "はじめに" {
		t.Errorf("section name = %q, want はじめに", tree[0].Name)
	}
	if len(tree[0].Lectures) != 1 {
		t.Fatalf("got %d lectures, want 1", len(tree[0].Lectures))
	}
	lec := tree[0].Lectures[0]
	if lec.Slug != "setup" {
		t.Errorf("lecture slug = %q, want setup", lec.Slug)
	}
	if len(lec.Pages) != 1 || lec.Pages[0].Slug != "install" {
		t.Errorf("lecture pages = %+v, want one page with slug install", lec.Pages)
	}
}

func TestSaveTreeRejectsDanglingParentReference(t *testing.T) {
	store := newMemoryStore()
	svc, tx := newTestService(store)

	tree := draftTree()
	tree[0].Lectures[0].SectionID = "some-other-section"

	_, err := svc.SaveTree(context.Background(), testOwner, testCourse, tree)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if tx.execCount != 0 {
		t.Error("transaction opened for a malformed payload")
	}
}

func TestSaveTreeRejectsDuplicateSiblingSlug(t *testing.T) {
	store := newMemoryStore()
	svc, tx := newTestService(store)

	tree := draftTree()
	lec := &tree[0].Lectures[0]
	lec.Pages = append(lec.Pages, models.Page{
		ID: models.NewPlaceholderID(models.KindPage), Name: "複製", Slug: "install",
		Order: 1, IsOpen: true, LectureID: lec.ID,
	})

	_, err := svc.SaveTree(context.Background(), testOwner, testCourse, tree)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if tx.execCount != 0 {
		t.Error("transaction opened for a malformed payload")
	}
}

func TestSaveTreeRejectsDuplicateNodeIDs(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(store)

	tree := draftTree()
	dup := tree[0]
	tree = append(tree, dup)

	_, err := svc.SaveTree(context.Background(), testOwner, testCourse, tree)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestSaveTreeRejectsSlugWithSlash(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(store)

	tree := draftTree()
	tree[0].Lectures[0].Slug = "a/b"

	_, err := svc.SaveTree(context.Background(), testOwner, testCourse, tree)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestSaveTreeForbiddenForNonOwner(t *testing.T) {
	store := newMemoryStore()
	svc, tx := newTestService(store)

	_, err := svc.SaveTree(context.Background(), "intruder", testCourse, draftTree())
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
	if tx.execCount != 0 {
		t.Error("transaction opened for a forbidden caller")
	}
}

func TestGetTreeForbiddenForNonOwner(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(store)

	if _, err := svc.GetTree(context.Background(), "intruder", testCourse); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
}

func TestGetTreeEmptyCourseReturnsEmptySlices(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(store)

	tree, err := svc.GetTree(context.Background(), testOwner, testCourse)
	if err != nil {
		t.Fatalf("GetTree failed: %v", err)
	}
	if tree == nil {
		t.Fatal("GetTree returned nil, want empty slice")
	}
	if len(tree) != 0 {
		t.Errorf("got %d sections, want 0", len(tree))
	}
}

// fakeCourseRepo drives the ownership authorizer.
type fakeCourseRepo struct{ course models.Course }

func (r *fakeCourseRepo) Create(ctx context.Context, course *models.Course) error { return nil }

func (r *fakeCourseRepo) GetByID(ctx context.Context, id, ownerID string) (*models.Course, error) {
	if id == r.course.ID && ownerID == r.course.OwnerID {
		c := r.course
		return &c, nil
	}
	return nil, fmt.Errorf("course not found: %w", domain.ErrNotFound)
}

func (r *fakeCourseRepo) List(ctx context.Context, ownerID string) ([]models.Course, error) {
	return []models.Course{}, nil
}

func TestOwnerBasedAuthorizer(t *testing.T) {
	repo := &fakeCourseRepo{course: models.Course{ID: testCourse, OwnerID: testOwner}}
	authorizer := NewOwnerBasedAuthorizer(repo)

	if err := authorizer.CanEditCourse(context.Background(), testOwner, testCourse); err != nil {
		t.Errorf("owner denied: %v", err)
	}
	if err := authorizer.CanEditCourse(context.Background(), "intruder", testCourse); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("non-owner error = %v, want ErrForbidden", err)
	}
	if err := authorizer.CanEditCourse(context.Background(), testOwner, "missing"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("missing course error = %v, want ErrForbidden", err)
	}
}
