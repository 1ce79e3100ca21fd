package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"time"

	"event-site/internal/data"
	"event-site/internal/logger"
	"event-site/internal/upload"

	"github.com/microcosm-cc/bluemonday"
)

// EventRepository defines the interface for database operations on events.
type EventRepository interface {
	List(ctx context.Context, filter data.EventFilter) ([]*data.Event, error)
	GetByID(ctx context.Context, id int64) (*data.Event, error)
	Create(ctx context.Context, event *data.Event) error
	Update(ctx context.Context, event *data.Event) error
	ClearImage(ctx context.Context, id int64) error
	ClearVideo(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	UpdateSequences(ctx context.Context, sequences map[int64]float64) (int, error)
}

// CategoryLookup resolves a category by ID.
type CategoryLookup interface {
	GetByID(ctx context.Context, id int64) (*data.Category, error)
}

// FileStore persists uploaded media.
type FileStore interface {
	Save(k upload.Kind, fh *multipart.FileHeader) (string, error)
	Remove(rel string) error
}

// EventInput is the form data of an event.
type EventInput struct {
	Title       string `validate:"required,max=200"`
	CategoryID  int64  `validate:"required"`
	Description string
	Sequence    *float64
}

// EventFiles are the media uploaded with an event form. Nil means no file.
type EventFiles struct {
	Image *multipart.FileHeader
	Video *multipart.FileHeader
}

// EventService provides business logic for portfolio events.
type EventService struct {
	repo       EventRepository
	categories CategoryLookup
	validator  *upload.Validator
	files      FileStore
	sanitizer  *bluemonday.Policy
	log        logger.Logger
	now        func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(repo EventRepository, categories CategoryLookup, validator *upload.Validator, files FileStore, log logger.Logger) *EventService {
	return &EventService{
		repo:       repo,
		categories: categories,
		validator:  validator,
		files:      files,
		sanitizer:  bluemonday.UGCPolicy(),
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// List returns events in display order.
func (s *EventService) List(ctx context.Context, filter data.EventFilter) ([]*data.Event, error) {
	return s.repo.List(ctx, filter)
}

// Get returns a single event.
func (s *EventService) Get(ctx context.Context, id int64) (*data.Event, error) {
	return s.repo.GetByID(ctx, id)
}

// checkInput validates the form fields, the uploads and the category, in
// that order, before anything is written.
func (s *EventService) checkInput(ctx context.Context, in EventInput, files EventFiles, imageRequired bool) error {
	if err := check(in); err != nil {
		return err
	}
	if in.Sequence != nil && (math.IsNaN(*in.Sequence) || math.IsInf(*in.Sequence, 0)) {
		return invalid("Sequence must be a finite number")
	}
	if imageRequired || files.Image != nil {
		if err := s.validateFile(upload.KindImage, files.Image); err != nil {
			return err
		}
	}
	if err := s.validateFile(upload.KindVideo, files.Video); err != nil {
		return err
	}
	if _, err := s.categories.GetByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return invalid("Selected category does not exist")
		}
		return err
	}
	return nil
}

func (s *EventService) validateFile(k upload.Kind, fh *multipart.FileHeader) error {
	err := s.validator.Validate(k, fh)
	var rej *upload.RejectionError
	if errors.As(err, &rej) {
		return invalid("%s", rej.Reason)
	}
	return err
}

// saveFiles stores the non-nil uploads. If the video cannot be written the
// already stored image is removed again.
func (s *EventService) saveFiles(files EventFiles) (image, video *string, err error) {
	if files.Image != nil {
		p, err := s.files.Save(upload.KindImage, files.Image)
		if err != nil {
			return nil, nil, err
		}
		image = &p
	}
	if files.Video != nil {
		p, err := s.files.Save(upload.KindVideo, files.Video)
		if err != nil {
			if image != nil {
				s.removeFile(*image)
			}
			return nil, nil, err
		}
		video = &p
	}
	return image, video, nil
}

func (s *EventService) removeFile(rel string) {
	if err := s.files.Remove(rel); err != nil {
		s.log.With(map[string]interface{}{"path": rel}).Error(err, "Failed to delete event file")
	}
}

func (s *EventService) orphaned(err error, paths ...*string) error {
	var kept []string
	for _, p := range paths {
		if p != nil {
			kept = append(kept, *p)
		}
	}
	if len(kept) > 0 {
		s.log.With(map[string]interface{}{"files": kept}).Error(err, "Event not saved, uploaded files left on disk")
		return fmt.Errorf("%w: %w", ErrOrphanedUpload, err)
	}
	return err
}

// Create validates and stores a new event. The image is required and the
// video optional. Files are written before the row is inserted; if the
// insert fails they stay on disk and ErrOrphanedUpload is returned.
func (s *EventService) Create(ctx context.Context, in EventInput, files EventFiles) (*data.Event, error) {
	if err := s.checkInput(ctx, in, files, true); err != nil {
		return nil, err
	}
	image, video, err := s.saveFiles(files)
	if err != nil {
		return nil, err
	}

	event := &data.Event{
		Title:       in.Title,
		CategoryID:  in.CategoryID,
		Description: s.sanitizer.Sanitize(in.Description),
		CreatedAt:   s.now(),
		ImagePath:   image,
		VideoPath:   video,
		Sequence:    in.Sequence,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, s.orphaned(err, image, video)
	}
	s.log.With(map[string]interface{}{"event_id": event.ID}).Info("Event created")
	return event, nil
}

// Update changes an event. New files replace the old ones, which are
// deleted only after the row has been written; a failed delete is logged.
func (s *EventService) Update(ctx context.Context, id int64, in EventInput, files EventFiles) (*data.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkInput(ctx, in, files, false); err != nil {
		return nil, err
	}
	image, video, err := s.saveFiles(files)
	if err != nil {
		return nil, err
	}

	var replaced []string
	if image != nil {
		if event.ImagePath != nil {
			replaced = append(replaced, *event.ImagePath)
		}
		event.ImagePath = image
	}
	if video != nil {
		if event.VideoPath != nil {
			replaced = append(replaced, *event.VideoPath)
		}
		event.VideoPath = video
	}
	event.Title = in.Title
	event.CategoryID = in.CategoryID
	event.Description = s.sanitizer.Sanitize(in.Description)
	event.Sequence = in.Sequence

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, s.orphaned(err, image, video)
	}
	for _, old := range replaced {
		s.removeFile(old)
	}
	return event, nil
}

// DeleteFile removes the image or video of an event and clears the field.
func (s *EventService) DeleteFile(ctx context.Context, id int64, k upload.Kind) error {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	var current *string
	switch k {
	case upload.KindImage:
		current = event.ImagePath
	case upload.KindVideo:
		current = event.VideoPath
	default:
		return invalid("Unknown file type %q", k)
	}
	if current == nil {
		return invalid("Event has no %s", k)
	}

	if k == upload.KindImage {
		err = s.repo.ClearImage(ctx, id)
	} else {
		err = s.repo.ClearVideo(ctx, id)
	}
	if err != nil {
		return err
	}
	s.removeFile(*current)
	return nil
}

// Delete removes an event and then its files.
func (s *EventService) Delete(ctx context.Context, id int64) error {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	for _, p := range []*string{event.ImagePath, event.VideoPath} {
		if p != nil {
			s.removeFile(*p)
		}
	}
	s.log.With(map[string]interface{}{"event_id": id}).Info("Event deleted")
	return nil
}

// UpdateSequences sets the display position of many events at once. All
// values are checked first; unknown ids are skipped. It returns the number
// of events changed.
func (s *EventService) UpdateSequences(ctx context.Context, sequences map[int64]float64) (int, error) {
	for id, v := range sequences {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, invalid("Sequence of event %d must be a finite number", id)
		}
	}
	if len(sequences) == 0 {
		return 0, nil
	}
	return s.repo.UpdateSequences(ctx, sequences)
}
