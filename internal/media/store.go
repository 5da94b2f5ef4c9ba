package media

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	apperrors "natours/internal/errors"
)

// MaxTourImages is the size of a tour gallery upload.
const MaxTourImages = 3

const jpegQuality = 90

// Size is the box an upload is cropped and scaled to.
type Size struct {
	Width, Height int
}

var (
	UserPhotoSize = Size{Width: 500, Height: 500}
	TourImageSize = Size{Width: 2000, Height: 1333}
)

// Store resizes uploaded images to JPEG and writes them below
// <publicDir>/img, where the static file server picks them up.
type Store struct {
	root string
	now  func() time.Time
}

// NewStore returns a store rooted at publicDir.
func NewStore(publicDir string) *Store {
	return &Store{root: filepath.Join(publicDir, "img"), now: time.Now}
}

// UserPhoto stores a profile photo and returns its file name relative to
// img/users.
func (s *Store) UserPhoto(userID uuid.UUID, fh *multipart.FileHeader) (string, error) {
	name := fmt.Sprintf("user-%s-%d.jpeg", userID, s.now().UnixMilli())
	if err := s.save(fh, "users", name, UserPhotoSize); err != nil {
		return "", err
	}
	return name, nil
}

// TourImages stores an optional cover and up to MaxTourImages gallery images
// for a tour. File names are relative to img/tours; an empty cover name means
// no cover was uploaded.
func (s *Store) TourImages(tourID uuid.UUID, cover *multipart.FileHeader, images []*multipart.FileHeader) (string, []string, error) {
	if len(images) > MaxTourImages {
		return "", nil, apperrors.ErrTooManyImages
	}
	stamp := s.now().UnixMilli()

	var coverName string
	if cover != nil {
		coverName = fmt.Sprintf("tour-%s-%d-cover.jpeg", tourID, stamp)
		if err := s.save(cover, "tours", coverName, TourImageSize); err != nil {
			return "", nil, err
		}
	}

	names := make([]string, 0, len(images))
	for i, fh := range images {
		name := fmt.Sprintf("tour-%s-%d-%d.jpeg", tourID, stamp, i+1)
		if err := s.save(fh, "tours", name, TourImageSize); err != nil {
			return "", nil, err
		}
		names = append(names, name)
	}
	return coverName, names, nil
}

func (s *Store) save(fh *multipart.FileHeader, dir, name string, size Size) error {
	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		return apperrors.ErrNotAnImage
	}
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrNotAnImage, err)
	}
	img = imaging.Fill(img, size.Width, size.Height, imaging.Center, imaging.Lanczos)

	target := filepath.Join(s.root, dir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}
	if err := imaging.Save(img, filepath.Join(target, name), imaging.JPEGQuality(jpegQuality)); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}
