package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// URLPrefix is the path under which stored blobs are served.
const URLPrefix = "/uploads/"

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("upload exceeds size limit")
)

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// BlobStore keeps uploaded contact images in a local directory.
type BlobStore struct {
	Dir      string
	BaseURL  string
	MaxBytes int64
}

func NewBlobStore(dir, baseURL string, maxBytes int64) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &BlobStore{
		Dir:      dir,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		MaxBytes: maxBytes,
	}, nil
}

// SaveImage stores the image read from r under a random name and returns
// the URL it is served from. The type is sniffed from the content.
func (s *BlobStore) SaveImage(ctx context.Context, r io.Reader) (string, error) {
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	ext, ok := imageExtensions[http.DetectContentType(head)]
	if !ok {
		return "", ErrUnsupportedType
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.Dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}

	n, copyErr := io.Copy(f, io.LimitReader(br, s.MaxBytes+1))
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		os.Remove(path)
		return "", fmt.Errorf("write blob: %w", copyErr)
	case closeErr != nil:
		os.Remove(path)
		return "", fmt.Errorf("write blob: %w", closeErr)
	case n > s.MaxBytes:
		os.Remove(path)
		return "", ErrTooLarge
	}

	if err := ctx.Err(); err != nil {
		os.Remove(path)
		return "", err
	}

	return s.BaseURL + URLPrefix + name, nil
}

// Handler serves stored blobs; mount it at URLPrefix.
func (s *BlobStore) Handler() http.Handler {
	return http.StripPrefix(URLPrefix, http.FileServer(http.Dir(s.Dir)))
}
