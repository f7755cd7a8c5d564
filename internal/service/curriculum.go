package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"kouza/internal/config"
	"kouza/internal/domain"
	"kouza/internal/domain/models"
	"kouza/internal/domain/repositories"
	"kouza/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type curriculumService struct {
	sectionRepo repositories.SectionRepository
	lectureRepo repositories.LectureRepository
	pageRepo    repositories.PageRepository
	txManager   repositories.TransactionManager
	authorizer  services.CourseAuthorizer
	logger      *slog.Logger
}

// NewCurriculumService creates a new curriculum service
func NewCurriculumService(
	sectionRepo repositories.SectionRepository,
	lectureRepo repositories.LectureRepository,
	pageRepo repositories.PageRepository,
	txManager repositories.TransactionManager,
	authorizer services.CourseAuthorizer,
	logger *slog.Logger,
) services.CurriculumService {
	return &curriculumService{
		sectionRepo: sectionRepo,
		lectureRepo: lectureRepo,
		pageRepo:    pageRepo,
		txManager:   txManager,
		authorizer:  authorizer,
		logger:      logger,
	}
}

// GetTree reads the persisted curriculum and assembles the nested tree.
func (s *curriculumService) GetTree(ctx context.Context, userID, courseID string) ([]models.Section, error) {
	if err := s.authorizer.CanEditCourse(ctx, userID, courseID); err != nil {
		return nil, err
	}

	sections, err := s.sectionRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	lectures, err := s.lectureRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	pages, err := s.pageRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	// Nest lectures under sections and pages under lectures. Rows are already
	// ordered by "order" within their sibling group.
	lectureMap := make(map[string]*models.Lecture, len(lectures))
	for i := range lectures {
		lectures[i].Pages = []models.Page{}
		lectureMap[lectures[i].ID] = &lectures[i]
	}
	for _, page := range pages {
		if parent, exists := lectureMap[page.LectureID]; exists {
			parent.Pages = append(parent.Pages, page)
		}
	}

	result := make([]models.Section, 0, len(sections))
	for _, section := range sections {
		section.Lectures = []models.Lecture{}
		for i := range lectures {
			if lectures[i].SectionID == section.ID {
				section.Lectures = append(section.Lectures, lectures[i])
			}
		}
		result = append(result, section)
	}

	s.logger.Info("curriculum tree read",
		"course_id", courseID,
		"section_count", len(sections),
		"lecture_count", len(lectures),
		"page_count", len(pages),
	)

	return result, nil
}

// SaveTree makes the persisted curriculum match the submitted snapshot.
//
// The walk runs in one transaction: first delete rows absent from the
// snapshot in leaf-to-root order (pages, lectures, sections) so no delete
// can hit a foreign-key violation, then walk the snapshot top-down upserting
// kept nodes and inserting placeholder nodes. Allocated ids are written back
// into the tree before descending so children always reference a real parent
// id. Sibling slug uniqueness is enforced by deferred constraints at commit,
// so a snapshot that swaps the slugs of two existing siblings survives the
// row-at-a-time walk. Concurrent saves for the same course are not
// coordinated; the last commit wins wholesale.
func (s *curriculumService) SaveTree(ctx context.Context, userID, courseID string, sections []models.Section) ([]models.Section, error) {
	if err := s.authorizer.CanEditCourse(ctx, userID, courseID); err != nil {
		return nil, err
	}

	// Reject malformed payloads before opening a transaction.
	if err := validateTree(sections); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	keepSections, keepLectures, keepPages := keepSets(sections)

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.pageRepo.DeleteMissing(txCtx, courseID, keepPages); err != nil {
			return err
		}
		if err := s.lectureRepo.DeleteMissing(txCtx, courseID, keepLectures); err != nil {
			return err
		}
		if err := s.sectionRepo.DeleteMissing(txCtx, courseID, keepSections); err != nil {
			return err
		}

		for si := range sections {
			section := &sections[si]
			if models.IsPlaceholderID(section.ID) {
				if err := s.sectionRepo.Create(txCtx, courseID, section); err != nil {
					return err
				}
			} else {
				if err := s.sectionRepo.Upsert(txCtx, courseID, section); err != nil {
					return err
				}
			}

			for li := range section.Lectures {
				lecture := &section.Lectures[li]
				lecture.SectionID = section.ID
				if models.IsPlaceholderID(lecture.ID) {
					if err := s.lectureRepo.Create(txCtx, lecture); err != nil {
						return err
					}
				} else {
					if err := s.lectureRepo.Upsert(txCtx, lecture); err != nil {
						return err
					}
				}

				for pi := range lecture.Pages {
					page := &lecture.Pages[pi]
					page.LectureID = lecture.ID
					if models.IsPlaceholderID(page.ID) {
						if err := s.pageRepo.Create(txCtx, page); err != nil {
							return err
						}
					} else {
						if err := s.pageRepo.Upsert(txCtx, page); err != nil {
							return err
						}
					}
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save curriculum: %w", err)
	}

	s.logger.Info("curriculum tree saved",
		"course_id", courseID,
		"section_count", len(sections),
		"kept_sections", len(keepSections),
		"kept_lectures", len(keepLectures),
		"kept_pages", len(keepPages),
	)

	return sections, nil
}

// keepSets collects the non-placeholder ids per level. Slices are always
// non-nil so an empty set deletes everything at that level.
func keepSets(sections []models.Section) (keepSections, keepLectures, keepPages []string) {
	keepSections = make([]string, 0, len(sections))
	keepLectures = make([]string, 0)
	keepPages = make([]string, 0)

	for _, section := range sections {
		if !models.IsPlaceholderID(section.ID) {
			keepSections = append(keepSections, section.ID)
		}
		for _, lecture := range section.Lectures {
			if !models.IsPlaceholderID(lecture.ID) {
				keepLectures = append(keepLectures, lecture.ID)
			}
			for _, page := range lecture.Pages {
				if !models.IsPlaceholderID(page.ID) {
					keepPages = append(keepPages, page.ID)
				}
			}
		}
	}
	return keepSections, keepLectures, keepPages
}

// validateTree performs payload shape validation: required fields, parent
// references pointing at the enclosing node, no duplicate ids, and sibling
// slug uniqueness.
func validateTree(sections []models.Section) error {
	seenIDs := make(map[string]bool)

	for si := range sections {
		section := &sections[si]
		if err := validateSection(section); err != nil {
			return fmt.Errorf("section %d: %v", si, err)
		}
		if seenIDs[section.ID] {
			return fmt.Errorf("duplicate node id %q", section.ID)
		}
		seenIDs[section.ID] = true

		lectureSlugs := make(map[string]bool)
		for li := range section.Lectures {
			lecture := &section.Lectures[li]
			if err := validateLecture(lecture); err != nil {
				return fmt.Errorf("lecture %d in section %d: %v", li, si, err)
			}
			if seenIDs[lecture.ID] {
				return fmt.Errorf("duplicate node id %q", lecture.ID)
			}
			seenIDs[lecture.ID] = true
			if lecture.SectionID != section.ID {
				return fmt.Errorf("lecture %q references section %q but is nested under %q",
					lecture.ID, lecture.SectionID, section.ID)
			}
			if lectureSlugs[lecture.Slug] {
				return fmt.Errorf("lecture slug %q duplicated in section %q", lecture.Slug, section.ID)
			}
			lectureSlugs[lecture.Slug] = true

			pageSlugs := make(map[string]bool)
			for pi := range lecture.Pages {
				page := &lecture.Pages[pi]
				if err := validatePage(page); err != nil {
					return fmt.Errorf("page %d in lecture %d: %v", pi, li, err)
				}
				if seenIDs[page.ID] {
					return fmt.Errorf("duplicate node id %q", page.ID)
				}
				seenIDs[page.ID] = true
				if page.LectureID != lecture.ID {
					return fmt.Errorf("page %q references lecture %q but is nested under %q",
						page.ID, page.LectureID, lecture.ID)
				}
				if pageSlugs[page.Slug] {
					return fmt.Errorf("page slug %q duplicated in lecture %q", page.Slug, lecture.ID)
				}
				pageSlugs[page.Slug] = true
			}
		}
	}
	return nil
}

func validateSection(section *models.Section) error {
	return validation.ValidateStruct(section,
		validation.Field(&section.ID, validation.Required),
		validation.Field(&section.Name,
			validation.Required,
			validation.Length(1, config.MaxNameLength),
		),
		validation.Field(&section.Order, validation.Min(0)),
	)
}

func validateLecture(lecture *models.Lecture) error {
	return validation.ValidateStruct(lecture,
		validation.Field(&lecture.ID, validation.Required),
		validation.Field(&lecture.Name,
			validation.Required,
			validation.Length(1, config.MaxNameLength),
		),
		validation.Field(&lecture.Slug,
			validation.Required,
			validation.Length(1, config.MaxSlugLength),
			validation.By(slugHasNoSlash),
		),
		validation.Field(&lecture.Order, validation.Min(0)),
	)
}

func validatePage(page *models.Page) error {
	return validation.ValidateStruct(page,
		validation.Field(&page.ID, validation.Required),
		validation.Field(&page.Name,
			validation.Required,
			validation.Length(1, config.MaxNameLength),
		),
		validation.Field(&page.Slug,
			validation.Required,
			validation.Length(1, config.MaxSlugLength),
			validation.By(slugHasNoSlash),
		),
		validation.Field(&page.Order, validation.Min(0)),
	)
}

// slugHasNoSlash rejects slugs that would break URL path addressing.
func slugHasNoSlash(value interface{}) error {
	s, _ := value.(string)
	if strings.Contains(s, "/") {
		return fmt.Errorf("cannot contain slashes")
	}
	return nil
}
