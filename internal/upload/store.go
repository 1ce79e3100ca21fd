package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"event-site/internal/config"
	"event-site/internal/logger"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Store writes accepted uploads below a root directory. Stored paths are
// relative to that root and use forward slashes, e.g.
// "uploads/images/stage.png", so they can be served as URLs unchanged.
type Store struct {
	root       string
	thumbWidth int
	log        logger.Logger
}

// NewStore creates a Store rooted at cfg.Root.
func NewStore(cfg config.UploadsConfig, log logger.Logger) *Store {
	return &Store{root: cfg.Root, thumbWidth: cfg.ThumbnailWidth, log: log}
}

// Root returns the directory stored paths are relative to.
func (s *Store) Root() string {
	return s.root
}

// Save copies the uploaded file to uploads/<kind>s/<sanitized-filename>.
// A name already on disk gets a short random suffix instead of being
// overwritten. Partially written files are removed on failure.
func (s *Store) Save(k Kind, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded %s: %w", k, err)
	}
	defer src.Close()

	dir := filepath.Join(s.root, filepath.FromSlash(k.Dir()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	origExt := filepath.Ext(fh.Filename)
	ext := unsafeFilenameChars.ReplaceAllString(strings.ToLower(origExt), "")
	base := SanitizeFilename(strings.TrimSuffix(fh.Filename, origExt))
	if base == "" {
		base = uuid.NewString()
	}

	dst, name, err := createUnique(dir, base, ext)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	full := filepath.Join(dir, name)
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(full)
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	rel := path.Join(k.Dir(), name)
	if k == KindImage {
		s.makeThumbnail(rel)
	}
	return rel, nil
}

func createUnique(dir, base, ext string) (*os.File, string, error) {
	name := base + ext
	for attempt := 0; attempt < 5; attempt++ {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
		name = base + "-" + uuid.NewString()[:8] + ext
	}
	return nil, "", fmt.Errorf("no free file name for %s%s", base, ext)
}

// Remove deletes a stored file and its thumbnail. A file that is already
// gone is not an error.
func (s *Store) Remove(rel string) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", rel, err)
	}
	if thumb, err := s.resolve(ThumbnailPath(rel)); err == nil {
		if err := os.Remove(thumb); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.log.Error(err, "Failed to remove thumbnail "+thumb)
		}
	}
	return nil
}

// resolve maps a stored path to a file below the root, refusing anything
// outside the uploads tree.
func (s *Store) resolve(rel string) (string, error) {
	clean := path.Clean("/" + rel)[1:]
	if !strings.HasPrefix(clean, "uploads/") {
		return "", fmt.Errorf("path %q is outside the uploads directory", rel)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// ThumbnailPath returns where the thumbnail of a stored image lives.
func ThumbnailPath(rel string) string {
	dir, file := path.Split(rel)
	return path.Join(dir, "thumbs", file)
}

// makeThumbnail writes a scaled copy of a stored image. Failures are logged
// only; the original upload stays valid.
func (s *Store) makeThumbnail(rel string) {
	if s.thumbWidth <= 0 {
		return
	}
	src, err := s.resolve(rel)
	if err != nil {
		return
	}
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		s.log.Warn(fmt.Sprintf("Skipping thumbnail for %s: %v", rel, err))
		return
	}
	thumb := filepath.Join(s.root, filepath.FromSlash(ThumbnailPath(rel)))
	if err := os.MkdirAll(filepath.Dir(thumb), 0o755); err != nil {
		s.log.Error(err, "Failed to create thumbnail directory")
		return
	}
	if img.Bounds().Dx() > s.thumbWidth {
		img = imaging.Resize(img, s.thumbWidth, 0, imaging.Lanczos)
	}
	if err := imaging.Save(img, thumb); err != nil {
		s.log.Error(err, "Failed to save thumbnail for "+rel)
	}
}
