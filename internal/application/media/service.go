// Package media validates customer-supplied images and stores them in the
// object store.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
	"github.com/water-delivery-api/internal/domain"
)

// MaxImageBytes caps uploads at 2 MB.
const MaxImageBytes = 2 << 20

// allowedTypes maps the accepted sniffed content types to the stored extension.
var allowedTypes = []struct{ mime, ext string }{
	{"image/jpeg", "jpg"},
	{"image/png", "png"},
	{"image/gif", "gif"},
	{"image/webp", "webp"},
}

var dataURLPattern = regexp.MustCompile(`^data:image/(\w+);base64,`)

const (
	msgImageType    = "The image must be a file of type: jpeg, png, jpg, gif, webp."
	msgImageSize    = "The image may not be greater than 2MB."
	msgImageEncoded = "The image must be a base64 data URL."
)

// Image is a validated image ready to be stored.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// FromReader reads an uploaded file (multipart part) and validates it.
func FromReader(r io.Reader, field string) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return sniff(data, field)
}

// FromDataURL decodes a "data:image/<ext>;base64,..." string and validates it.
func FromDataURL(s, field string) (*Image, error) {
	if !dataURLPattern.MatchString(s) {
		return nil, domain.FieldErrors{field: msgImageEncoded}
	}
	payload := s[strings.Index(s, ",")+1:]
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, domain.FieldErrors{field: msgImageEncoded}
	}
	return sniff(data, field)
}

func sniff(data []byte, field string) (*Image, error) {
	if len(data) > MaxImageBytes {
		return nil, domain.FieldErrors{field: msgImageSize}
	}
	m := mimetype.Detect(data)
	for _, t := range allowedTypes {
		if m.Is(t.mime) {
			return &Image{Data: data, ContentType: t.mime, Ext: t.ext}, nil
		}
	}
	return nil, domain.FieldErrors{field: msgImageType}
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	URL(ctx context.Context, key string) (string, error)
}

type Service interface {
	// Store uploads img under "<prefix>_<unix>.<ext>" and returns the key.
	Store(ctx context.Context, prefix string, img *Image) (string, error)
	// URL returns a fetchable link for key, or nil when key is empty or
	// no link can be produced.
	URL(ctx context.Context, key string) *string
}

type service struct {
	store  objectStore
	logger *logrus.Logger
	now    func() time.Time
}

func NewService(store objectStore, logger *logrus.Logger) Service {
	return &service{store: store, logger: logger, now: time.Now}
}

func (s *service) Store(ctx context.Context, prefix string, img *Image) (string, error) {
	key := fmt.Sprintf("%s_%d.%s", prefix, s.now().Unix(), img.Ext)
	if err := s.store.Upload(ctx, key, bytes.NewReader(img.Data), img.ContentType); err != nil {
		return "", err
	}
	return key, nil
}

func (s *service) URL(ctx context.Context, key string) *string {
	if key == "" {
		return nil
	}
	u, err := s.store.URL(ctx, key)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("could not build image url")
		return nil
	}
	return &u
}
