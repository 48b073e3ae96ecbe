package resume

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"careercraft/internal/apperr"
)

// LinkTTL 是简历下载链接的有效期。
const LinkTTL = 15 * time.Minute

// ObjectStore is implemented by *storage.Client.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	RemoveObject(ctx context.Context, key string) error
	PresignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Upload 描述一次待保存的简历文件。
type Upload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// Store 负责简历的校验、扫描与落盘。
type Store struct {
	objects ObjectStore
	scanner Scanner
	maxSize int64
}

// NewStore 构造 Store；maxSize <= 0 时使用 MaxSize。
func NewStore(objects ObjectStore, scanner Scanner, maxSize int64) *Store {
	if scanner == nil {
		scanner = nopScanner{}
	}
	if maxSize <= 0 || maxSize > MaxSize {
		maxSize = MaxSize
	}
	return &Store{objects: objects, scanner: scanner, maxSize: maxSize}
}

// Save 校验并上传简历，返回对象 Key。
func (s *Store) Save(ctx context.Context, studentID uint, upload Upload) (string, error) {
	ext, err := Extension(upload.Filename)
	if err != nil {
		return "", apperr.InvalidInput(err.Error())
	}
	if upload.Size <= 0 {
		return "", apperr.InvalidInput("resume file is empty")
	}
	if upload.Size > s.maxSize {
		return "", apperr.InvalidInput(fmt.Sprintf("resume file exceeds %d bytes", s.maxSize))
	}

	detected, err := mimetype.DetectReader(upload.Content)
	if err != nil {
		return "", apperr.Unexpected("failed to read resume", err)
	}
	if !MatchesExtension(ext, detected) {
		return "", apperr.InvalidInput("resume content does not match its file type")
	}

	if err := rewind(upload.Content); err != nil {
		return "", err
	}
	if err := s.scanner.Scan(ctx, upload.Content); err != nil {
		if errors.Is(err, ErrInfected) {
			return "", apperr.InvalidInput(ErrInfected.Error())
		}
		return "", apperr.Unexpected("failed to scan resume", err)
	}

	if err := rewind(upload.Content); err != nil {
		return "", err
	}
	key := ObjectKey(studentID, ext)
	if err := s.objects.PutObject(ctx, key, upload.Content, upload.Size, detected.String()); err != nil {
		return "", apperr.Unexpected("failed to store resume", err)
	}
	return key, nil
}

// Discard 删除已上传的简历。
func (s *Store) Discard(ctx context.Context, key string) error {
	return s.objects.RemoveObject(ctx, key)
}

// Link 返回简历的限时下载链接。
func (s *Store) Link(ctx context.Context, key string) (string, error) {
	url, err := s.objects.PresignedGetURL(ctx, key, LinkTTL)
	if err != nil {
		return "", apperr.Unexpected("failed to generate resume link", err)
	}
	return url, nil
}

func rewind(r io.Seeker) error {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return apperr.Unexpected("failed to read resume", err)
	}
	return nil
}
