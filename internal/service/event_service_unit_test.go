//go:build unit

package service

import (
	"bytes"
	"context"
	"errors"
	"math"
	"mime/multipart"
	"testing"

	"event-site/internal/config"
	"event-site/internal/data"
	"event-site/internal/logger"
	"event-site/internal/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEventRepository records calls and returns canned results.
type mockEventRepository struct {
	events       map[int64]*data.Event
	errToReturn  error
	created      *data.Event
	updated      *data.Event
	cleared      []string
	sequences    map[int64]float64
	sequenceCall bool
}

var _ EventRepository = (*mockEventRepository)(nil)

func (m *mockEventRepository) List(ctx context.Context, filter data.EventFilter) ([]*data.Event, error) {
	return nil, m.errToReturn
}

func (m *mockEventRepository) GetByID(ctx context.Context, id int64) (*data.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *mockEventRepository) Create(ctx context.Context, event *data.Event) error {
	if m.errToReturn != nil {
		return m.errToReturn
	}
	event.ID = 1
	m.created = event
	return nil
}

func (m *mockEventRepository) Update(ctx context.Context, event *data.Event) error {
	if m.errToReturn != nil {
		return m.errToReturn
	}
	m.updated = event
	return nil
}

func (m *mockEventRepository) ClearImage(ctx context.Context, id int64) error {
	m.cleared = append(m.cleared, "image")
	return m.errToReturn
}

func (m *mockEventRepository) ClearVideo(ctx context.Context, id int64) error {
	m.cleared = append(m.cleared, "video")
	return m.errToReturn
}

func (m *mockEventRepository) Delete(ctx context.Context, id int64) error {
	return m.errToReturn
}

func (m *mockEventRepository) UpdateSequences(ctx context.Context, sequences map[int64]float64) (int, error) {
	m.sequenceCall = true
	m.sequences = sequences
	return len(sequences), m.errToReturn
}

type mockCategoryLookup struct{}

func (mockCategoryLookup) GetByID(ctx context.Context, id int64) (*data.Category, error) {
	if id == 1 {
		return &data.Category{ID: 1, Name: "Weddings", Slug: "weddings"}, nil
	}
	return nil, data.ErrNotFound
}

// mockFileStore keeps stored paths in memory.
type mockFileStore struct {
	saved     []string
	removed   []string
	failKinds map[upload.Kind]bool
	removeErr error
}

func (m *mockFileStore) Save(k upload.Kind, fh *multipart.FileHeader) (string, error) {
	if m.failKinds[k] {
		return "", errors.New("disk full")
	}
	p := k.Dir() + "/" + fh.Filename
	m.saved = append(m.saved, p)
	return p, nil
}

func (m *mockFileStore) Remove(rel string) error {
	m.removed = append(m.removed, rel)
	return m.removeErr
}

func formFile(t *testing.T, filename string, size int) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), size))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["file"][0]
}

func newTestEventService(repo *mockEventRepository, files *mockFileStore) *EventService {
	v := upload.NewValidator(config.UploadsConfig{
		MaxImageBytes:   1 << 10,
		MaxVideoBytes:   2 << 10,
		ImageExtensions: []string{"jpg", "jpeg", "png"},
		VideoExtensions: []string{"mp4", "mov", "avi", "wmv"},
	})
	return NewEventService(repo, mockCategoryLookup{}, v, files, logger.Nop())
}

func strPtr(s string) *string { return &s }

func TestEventService_CreateStoresFilesAndSanitizes(t *testing.T) {
	repo := &mockEventRepository{}
	files := &mockFileStore{}
	s := newTestEventService(repo, files)

	event, err := s.Create(context.Background(),
		EventInput{Title: "Gala", CategoryID: 1, Description: `<p>Night</p><script>alert(1)</script>`},
		EventFiles{Image: formFile(t, "gala.png", 10), Video: formFile(t, "gala.mp4", 10)})
	require.NoError(t, err)

	assert.Equal(t, int64(1), event.ID)
	assert.Equal(t, "uploads/images/gala.png", *event.ImagePath)
	assert.Equal(t, "uploads/videos/gala.mp4", *event.VideoPath)
	assert.Equal(t, "<p>Night</p>", event.Description)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestEventService_CreateRejectsBeforeWriting(t *testing.T) {
	tests := []struct {
		name  string
		in    EventInput
		files func(t *testing.T) EventFiles
		want  string
	}{
		{
			name:  "missing image",
			in:    EventInput{Title: "Gala", CategoryID: 1},
			files: func(t *testing.T) EventFiles { return EventFiles{} },
			want:  "No image file provided",
		},
		{
			name:  "bad image format",
			in:    EventInput{Title: "Gala", CategoryID: 1},
			files: func(t *testing.T) EventFiles { return EventFiles{Image: formFile(t, "gala.gif", 10)} },
			want:  "Invalid image format. Allowed formats: jpg, jpeg, png",
		},
		{
			name: "video too large",
			in:   EventInput{Title: "Gala", CategoryID: 1},
			files: func(t *testing.T) EventFiles {
				return EventFiles{Image: formFile(t, "gala.png", 10), Video: formFile(t, "gala.mp4", 3<<10)}
			},
			want: "File size exceeds maximum limit",
		},
		{
			name:  "missing title",
			in:    EventInput{CategoryID: 1},
			files: func(t *testing.T) EventFiles { return EventFiles{Image: formFile(t, "gala.png", 10)} },
			want:  "Title is required",
		},
		{
			name:  "unknown category",
			in:    EventInput{Title: "Gala", CategoryID: 9},
			files: func(t *testing.T) EventFiles { return EventFiles{Image: formFile(t, "gala.png", 10)} },
			want:  "Selected category does not exist",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockEventRepository{}
			files := &mockFileStore{}
			s := newTestEventService(repo, files)

			_, err := s.Create(context.Background(), tt.in, tt.files(t))
			require.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, files.saved)
			assert.Nil(t, repo.created)
		})
	}
}

func TestEventService_CreateLeavesOrphanOnInsertFailure(t *testing.T) {
	repo := &mockEventRepository{errToReturn: errors.New("constraint failed")}
	files := &mockFileStore{}
	s := newTestEventService(repo, files)

	_, err := s.Create(context.Background(), EventInput{Title: "Gala", CategoryID: 1},
		EventFiles{Image: formFile(t, "gala.png", 10)})
	require.ErrorIs(t, err, ErrOrphanedUpload)
	assert.Equal(t, []string{"uploads/images/gala.png"}, files.saved)
	assert.Empty(t, files.removed)
}

func TestEventService_CreateRemovesImageWhenVideoWriteFails(t *testing.T) {
	repo := &mockEventRepository{}
	files := &mockFileStore{failKinds: map[upload.Kind]bool{upload.KindVideo: true}}
	s := newTestEventService(repo, files)

	_, err := s.Create(context.Background(), EventInput{Title: "Gala", CategoryID: 1},
		EventFiles{Image: formFile(t, "gala.png", 10), Video: formFile(t, "gala.mp4", 10)})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrOrphanedUpload)
	assert.Equal(t, []string{"uploads/images/gala.png"}, files.removed)
	assert.Nil(t, repo.created)
}

func TestEventService_UpdateReplacesFilesAfterWrite(t *testing.T) {
	repo := &mockEventRepository{events: map[int64]*data.Event{
		5: {ID: 5, Title: "Old", CategoryID: 1, ImagePath: strPtr("uploads/images/old.png"), VideoPath: strPtr("uploads/videos/old.mp4")},
	}}
	files := &mockFileStore{removeErr: errors.New("permission denied")}
	s := newTestEventService(repo, files)

	event, err := s.Update(context.Background(), 5, EventInput{Title: "New", CategoryID: 1},
		EventFiles{Image: formFile(t, "new.png", 10)})
	require.NoError(t, err, "failed deletes of old files are swallowed")

	assert.Equal(t, "uploads/images/new.png", *event.ImagePath)
	assert.Equal(t, "uploads/videos/old.mp4", *event.VideoPath, "video kept when none uploaded")
	assert.Equal(t, []string{"uploads/images/old.png"}, files.removed)
	require.NotNil(t, repo.updated)
	assert.Equal(t, "New", repo.updated.Title)
}

func TestEventService_UpdateWithoutImageKeepsExisting(t *testing.T) {
	repo := &mockEventRepository{events: map[int64]*data.Event{
		5: {ID: 5, Title: "Old", CategoryID: 1, ImagePath: strPtr("uploads/images/old.png")},
	}}
	files := &mockFileStore{}
	s := newTestEventService(repo, files)

	event, err := s.Update(context.Background(), 5, EventInput{Title: "Old", CategoryID: 1}, EventFiles{})
	require.NoError(t, err)
	assert.Equal(t, "uploads/images/old.png", *event.ImagePath)
	assert.Empty(t, files.saved)
	assert.Empty(t, files.removed)
}

func TestEventService_UpdateFailureKeepsOldFiles(t *testing.T) {
	repo := &mockEventRepository{
		events:      map[int64]*data.Event{5: {ID: 5, Title: "Old", CategoryID: 1, ImagePath: strPtr("uploads/images/old.png")}},
		errToReturn: errors.New("database is locked"),
	}
	files := &mockFileStore{}
	s := newTestEventService(repo, files)

	_, err := s.Update(context.Background(), 5, EventInput{Title: "New", CategoryID: 1},
		EventFiles{Image: formFile(t, "new.png", 10)})
	require.ErrorIs(t, err, ErrOrphanedUpload)
	assert.Empty(t, files.removed)
}

func TestEventService_DeleteFile(t *testing.T) {
	repo := &mockEventRepository{events: map[int64]*data.Event{
		5: {ID: 5, Title: "Gala", CategoryID: 1, ImagePath: strPtr("uploads/images/gala.png")},
	}}
	files := &mockFileStore{}
	s := newTestEventService(repo, files)
	ctx := context.Background()

	require.NoError(t, s.DeleteFile(ctx, 5, upload.KindImage))
	assert.Equal(t, []string{"image"}, repo.cleared)
	assert.Equal(t, []string{"uploads/images/gala.png"}, files.removed)

	assert.ErrorIs(t, s.DeleteFile(ctx, 5, upload.KindVideo), ErrValidation)
	assert.ErrorIs(t, s.DeleteFile(ctx, 6, upload.KindImage), ErrNotFound)
}

func TestEventService_DeleteRemovesFiles(t *testing.T) {
	repo := &mockEventRepository{events: map[int64]*data.Event{
		5: {ID: 5, ImagePath: strPtr("uploads/images/a.png"), VideoPath: strPtr("uploads/videos/a.mp4")},
	}}
	files := &mockFileStore{}
	s := newTestEventService(repo, files)

	require.NoError(t, s.Delete(context.Background(), 5))
	assert.ElementsMatch(t, []string{"uploads/images/a.png", "uploads/videos/a.mp4"}, files.removed)
}

func TestEventService_UpdateSequences(t *testing.T) {
	repo := &mockEventRepository{}
	s := newTestEventService(repo, &mockFileStore{})
	ctx := context.Background()

	_, err := s.UpdateSequences(ctx, map[int64]float64{1: 1, 2: math.NaN()})
	assert.ErrorIs(t, err, ErrValidation)
	assert.False(t, repo.sequenceCall)

	n, err := s.UpdateSequences(ctx, map[int64]float64{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, repo.sequenceCall)

	n, err = s.UpdateSequences(ctx, map[int64]float64{1: 2.5, 2: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2.5, repo.sequences[1])
}
