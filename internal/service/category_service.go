package service

import (
	"bytes"
	"context"
	"errors"
	"html/template"

	"event-site/internal/data"
	"event-site/internal/logger"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// CategoryRepository defines the interface for database operations on categories.
type CategoryRepository interface {
	FindByName(ctx context.Context, name string) (*data.Category, error)
	GetBySlug(ctx context.Context, slug string) (*data.Category, error)
	GetByID(ctx context.Context, id int64) (*data.Category, error)
	SearchByName(ctx context.Context, query string) ([]*data.Category, error)
	GetAll(ctx context.Context) ([]*data.Category, error)
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	CountEvents(ctx context.Context, id int64) (int, error)
	Save(ctx context.Context, category *data.Category) (int64, error)
	Update(ctx context.Context, category *data.Category) error
	Delete(ctx context.Context, id int64) error
}

// CategoryInput is the form data of a category. Description is Markdown.
type CategoryInput struct {
	Name        string `validate:"required,max=100"`
	Description string `validate:"max=2000"`
	Sequence    int    `validate:"gte=0"`
}

// CategoryService provides business logic for event categories.
type CategoryService struct {
	repo      CategoryRepository
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
	log       logger.Logger
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(repo CategoryRepository, log logger.Logger) *CategoryService {
	return &CategoryService{
		repo:      repo,
		markdown:  goldmark.New(),
		sanitizer: bluemonday.UGCPolicy(),
		log:       log,
	}
}

// render fills in DescriptionHTML. Goldmark escapes raw HTML by default;
// the sanitizer also strips unsafe link schemes.
func (s *CategoryService) render(c *data.Category) {
	if c.Description == "" {
		return
	}
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(c.Description), &buf); err != nil {
		s.log.Error(err, "Failed to render category description")
		c.DescriptionHTML = template.HTML(template.HTMLEscapeString(c.Description))
		return
	}
	c.DescriptionHTML = template.HTML(s.sanitizer.SanitizeBytes(buf.Bytes()))
}

// List returns all categories in display order with rendered descriptions.
func (s *CategoryService) List(ctx context.Context) ([]*data.Category, error) {
	categories, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		s.render(c)
	}
	return categories, nil
}

// Search returns categories whose name contains query; an empty query
// lists everything.
func (s *CategoryService) Search(ctx context.Context, query string) ([]*data.Category, error) {
	if query == "" {
		return s.List(ctx)
	}
	return s.repo.SearchByName(ctx, query)
}

// Get returns a single category.
func (s *CategoryService) Get(ctx context.Context, id int64) (*data.Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.render(c)
	return c, nil
}

// GetBySlug returns the category with slug.
func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*data.Category, error) {
	c, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	s.render(c)
	return c, nil
}

func (s *CategoryService) checkName(ctx context.Context, name string, id int64) error {
	existing, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != id {
		return invalid("A category named %q already exists", name)
	}
	return nil
}

// Create adds a category with a slug derived from its name.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*data.Category, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, in.Name, 0); err != nil {
		return nil, err
	}
	slug, err := uniqueSlug(ctx, in.Name, "category", func(ctx context.Context, slug string) (bool, error) {
		return s.repo.SlugExists(ctx, slug, 0)
	})
	if err != nil {
		return nil, err
	}
	c := &data.Category{Name: in.Name, Slug: slug, Description: in.Description, Sequence: in.Sequence}
	if _, err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update changes a category. The slug follows the name.
func (s *CategoryService) Update(ctx context.Context, id int64, in CategoryInput) (*data.Category, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, in.Name, id); err != nil {
		return nil, err
	}
	if in.Name != c.Name {
		slug, err := uniqueSlug(ctx, in.Name, "category", func(ctx context.Context, slug string) (bool, error) {
			return s.repo.SlugExists(ctx, slug, id)
		})
		if err != nil {
			return nil, err
		}
		c.Slug = slug
	}
	c.Name, c.Description, c.Sequence = in.Name, in.Description, in.Sequence
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a category that no event uses.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	n, err := s.repo.CountEvents(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return invalid("Category still has %d event(s)", n)
	}
	return s.repo.Delete(ctx, id)
}
