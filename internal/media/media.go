package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const (
	KindProducts   = "products"
	KindCategories = "categories"
	KindPosts      = "posts"
)

var (
	ErrTooLarge       = errors.New("file is too large")
	ErrNotAnImage     = errors.New("only jpg, jpeg, png, gif and webp images are allowed")
	ErrOutsideStorage = errors.New("path is outside media storage")
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Store keeps bot images under <dir>/media/<bot>/<kind>/. Paths handed out
// and accepted are relative to dir and use forward slashes.
type Store struct {
	dir      string
	maxBytes int64
}

func NewStore(dir string, maxBytes int64) *Store {
	return &Store{dir: dir, maxBytes: maxBytes}
}

// Root is the directory served under /media.
func (s *Store) Root() string {
	return filepath.Join(s.dir, "media")
}

// Save writes an uploaded image and returns its relative path.
func (s *Store) Save(bot, kind string, fh *multipart.FileHeader) (string, error) {
	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return "", ErrTooLarge
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !imageExtensions[ext] {
		return "", ErrNotAnImage
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	base := slug.Make(strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename)))
	if base == "" {
		base = "image"
	}
	rel := path.Join(s.botDir(bot), kind, fmt.Sprintf("%s-%s%s", base, uuid.NewString(), ext))

	if err := s.write(rel, src); err != nil {
		return "", err
	}
	return rel, nil
}

func (s *Store) write(rel string, src io.Reader) error {
	full := s.abs(rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}

	dst, err := os.Create(full)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(full)
		return err
	}
	return dst.Close()
}

// Delete removes a stored file. Missing files are not an error.
func (s *Store) Delete(rel string) error {
	if rel == "" {
		return nil
	}
	if !s.owns(rel) {
		return ErrOutsideStorage
	}
	err := os.Remove(s.abs(rel))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Move re-homes a file under another bot and returns its new path.
func (s *Store) Move(rel, bot, kind string) (string, error) {
	if !s.owns(rel) {
		return "", ErrOutsideStorage
	}
	target := path.Join(s.botDir(bot), kind, path.Base(rel))
	if target == rel {
		return rel, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.abs(target)), 0o755); err != nil {
		return "", err
	}
	if err := os.Rename(s.abs(rel), s.abs(target)); err != nil {
		return "", err
	}
	return target, nil
}

// DeleteBot removes all media of a bot.
func (s *Store) DeleteBot(bot string) error {
	return os.RemoveAll(s.abs(s.botDir(bot)))
}

func (s *Store) botDir(bot string) string {
	return path.Join("media", slug.Make(bot))
}

func (s *Store) abs(rel string) string {
	return filepath.Join(s.dir, filepath.FromSlash(rel))
}

func (s *Store) owns(rel string) bool {
	clean := path.Clean(rel)
	return strings.HasPrefix(clean, "media/") && !strings.Contains(clean, "..")
}
