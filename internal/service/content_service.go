package service

import (
	"context"
	"strings"
	"time"

	"event-site/internal/data"
	"event-site/internal/logger"

	"github.com/microcosm-cc/bluemonday"
)

// TestimonialRepository defines the interface for database operations on testimonials.
type TestimonialRepository interface {
	List(ctx context.Context, search string, limit int) ([]*data.Testimonial, error)
	GetByID(ctx context.Context, id int64) (*data.Testimonial, error)
	Create(ctx context.Context, t *data.Testimonial) error
	Update(ctx context.Context, t *data.Testimonial) error
	Delete(ctx context.Context, id int64) error
}

// ContactRepository defines the interface for database operations on contact messages.
type ContactRepository interface {
	List(ctx context.Context, search string) ([]*data.Contact, error)
	GetByID(ctx context.Context, id int64) (*data.Contact, error)
	Create(ctx context.Context, c *data.Contact) error
}

// Throttle is an expiring key/value store. Get returns nil for a missing
// or expired key.
type Throttle interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
}

// TestimonialInput is the form data of a testimonial.
type TestimonialInput struct {
	ClientName string `validate:"required,max=100"`
	Content    string `validate:"required,max=5000"`
	EventType  string `validate:"max=100"`
}

// ContactInput is a public contact form submission.
type ContactInput struct {
	Name    string `validate:"required,max=100"`
	Email   string `validate:"required,email,max=120"`
	Message string `validate:"required,max=5000"`
}

// TestimonialService provides business logic for testimonials.
type TestimonialService struct {
	repo      TestimonialRepository
	sanitizer *bluemonday.Policy
}

// NewTestimonialService creates a new TestimonialService.
func NewTestimonialService(repo TestimonialRepository) *TestimonialService {
	return &TestimonialService{repo: repo, sanitizer: bluemonday.UGCPolicy()}
}

// List returns testimonials matching search, newest first.
func (s *TestimonialService) List(ctx context.Context, search string, limit int) ([]*data.Testimonial, error) {
	return s.repo.List(ctx, strings.TrimSpace(search), limit)
}

// Get returns a single testimonial.
func (s *TestimonialService) Get(ctx context.Context, id int64) (*data.Testimonial, error) {
	return s.repo.GetByID(ctx, id)
}

// Create adds a testimonial with sanitized content.
func (s *TestimonialService) Create(ctx context.Context, in TestimonialInput) (*data.Testimonial, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	t := &data.Testimonial{
		ClientName: in.ClientName,
		Content:    s.sanitizer.Sanitize(in.Content),
		EventType:  in.EventType,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update changes a testimonial.
func (s *TestimonialService) Update(ctx context.Context, id int64, in TestimonialInput) (*data.Testimonial, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.ClientName = in.ClientName
	t.Content = s.sanitizer.Sanitize(in.Content)
	t.EventType = in.EventType
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a testimonial.
func (s *TestimonialService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// ContactService stores contact form messages.
type ContactService struct {
	repo     ContactRepository
	throttle Throttle
	window   time.Duration
	log      logger.Logger
	now      func() time.Time
}

// NewContactService creates a new ContactService. A zero window disables
// throttling.
func NewContactService(repo ContactRepository, throttle Throttle, window time.Duration, log logger.Logger) *ContactService {
	return &ContactService{
		repo:     repo,
		throttle: throttle,
		window:   window,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns messages matching search, newest first.
func (s *ContactService) List(ctx context.Context, search string) ([]*data.Contact, error) {
	return s.repo.List(ctx, strings.TrimSpace(search))
}

// Get returns a single message.
func (s *ContactService) Get(ctx context.Context, id int64) (*data.Contact, error) {
	return s.repo.GetByID(ctx, id)
}

// Submit validates and stores a message from clientIP. A client may submit
// once per window; the throttle store failing does not block submissions.
func (s *ContactService) Submit(ctx context.Context, clientIP string, in ContactInput) (*data.Contact, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Message = strings.TrimSpace(in.Message)
	if err := check(in); err != nil {
		return nil, err
	}

	key := "contact:" + clientIP
	now := s.now()
	throttled := s.window > 0 && s.throttle != nil
	if throttled {
		last, err := s.throttle.Get(key)
		if err != nil {
			s.log.Error(err, "Failed to read contact throttle")
		} else if last != nil {
			return nil, invalid("Please wait before sending another message")
		}
	}

	c := &data.Contact{Name: in.Name, Email: in.Email, Message: in.Message, CreatedAt: now}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	if throttled {
		if err := s.throttle.Set(key, []byte(now.Format(time.RFC3339)), s.window); err != nil {
			s.log.Error(err, "Failed to record contact throttle")
		}
	}
	return c, nil
}
