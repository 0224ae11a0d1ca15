package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrTooLarge         = errors.New("upload too large")
)

const (
	DefaultMaxUploadBytes = 5 << 20
	defaultURLTTL         = time.Hour
	profileKeyPrefix      = "profiles/"
	sniffBytes            = 3072
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

type ObjectInfo struct {
	Key        string
	ModifiedAt time.Time
}

type ObjectStorage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	URL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

type Upload struct {
	FileName string
	Size     int64
	Body     io.Reader
}

type Config struct {
	MaxUploadBytes int64
	URLTTL         time.Duration
}

type Service struct {
	storage ObjectStorage
	cfg     Config
	logger  *zap.Logger
	onStore func(result string)
}

func NewService(storage ObjectStorage, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = defaultURLTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		storage: storage,
		cfg:     cfg,
		logger:  logger,
	}
}

func (s *Service) OnStore(fn func(result string)) {
	s.onStore = fn
}

func (s *Service) MaxUploadBytes() int64 {
	return s.cfg.MaxUploadBytes
}

func (s *Service) StoreProfileImage(ctx context.Context, up Upload) (string, error) {
	key, err := s.storeProfileImage(ctx, up)
	if s.onStore != nil {
		switch {
		case err == nil:
			s.onStore("stored")
		case errors.Is(err, ErrValidation), errors.Is(err, ErrUnsupportedMedia), errors.Is(err, ErrTooLarge):
			s.onStore("rejected")
		default:
			s.onStore("failed")
		}
	}
	return key, err
}

func (s *Service) storeProfileImage(ctx context.Context, up Upload) (string, error) {
	if up.Body == nil || up.Size <= 0 {
		return "", ErrValidation
	}
	if up.Size > s.cfg.MaxUploadBytes {
		return "", ErrTooLarge
	}
	if s.storage == nil {
		return "", fmt.Errorf("media storage is not configured")
	}

	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(up.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload header: %w", err)
	}
	head = head[:n]

	contentType, ext, ok := detect(head)
	if !ok {
		return "", ErrUnsupportedMedia
	}

	key := buildObjectKey(ext)
	body := io.MultiReader(bytes.NewReader(head), up.Body)
	if err := s.storage.Put(ctx, key, body, up.Size, contentType); err != nil {
		return "", fmt.Errorf("put profile image: %w", err)
	}

	s.logger.Debug("profile image stored",
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.Int64("size", up.Size),
	)
	return key, nil
}

func (s *Service) Delete(ctx context.Context, ref string) error {
	key := objectKey(ref)
	if key == "" || s.storage == nil {
		return nil
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete profile image: %w", err)
	}
	return nil
}

func (s *Service) Locate(ctx context.Context, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if s.storage == nil {
		return ""
	}

	url, err := s.storage.URL(ctx, objectKey(ref), s.cfg.URLTTL)
	if err != nil {
		s.logger.Warn("resolve profile image url failed", zap.String("ref", ref), zap.Error(err))
		return ""
	}
	return url
}

func (s *Service) ListProfileImages(ctx context.Context) ([]ObjectInfo, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("media storage is not configured")
	}
	objects, err := s.storage.List(ctx, profileKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list profile images: %w", err)
	}
	return objects, nil
}

func detect(head []byte) (contentType, ext string, ok bool) {
	if len(head) == 0 {
		return "", "", false
	}
	mtype := mimetype.Detect(head)
	for m := mtype; m != nil; m = m.Parent() {
		if e, allowed := allowedTypes[m.String()]; allowed {
			return m.String(), e, true
		}
	}
	return "", "", false
}

func buildObjectKey(ext string) string {
	return profileKeyPrefix + uuid.NewString() + ext
}

// objectKey accepts both bare keys and the "/uploads/<key>" form older rows use.
func objectKey(ref string) string {
	ref = strings.TrimSpace(ref)
	ref = strings.TrimPrefix(ref, "/uploads/")
	return strings.TrimPrefix(ref, "/")
}
