package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/water-delivery-api/internal/domain"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	data, _ := io.ReadAll(r)
	return m.Called(ctx, key, data, contentType).Error(0)
}
func (m *mockStore) URL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	gifBytes = append([]byte("GIF89a"), make([]byte, 32)...)
)

func newSvc(st *mockStore) *service {
	l := logrus.New()
	l.SetOutput(io.Discard)
	s := NewService(st, l).(*service)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s
}

func TestFromReader_AcceptsImages(t *testing.T) {
	img, err := FromReader(bytes.NewReader(pngBytes), "image")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "png", img.Ext)

	img, err = FromReader(bytes.NewReader(gifBytes), "image")
	require.NoError(t, err)
	assert.Equal(t, "gif", img.Ext)
}

func TestFromReader_RejectsNonImage(t *testing.T) {
	_, err := FromReader(bytes.NewReader([]byte("%PDF-1.4 not an image")), "image")

	var fe domain.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, msgImageType, fe["image"])
}

func TestFromReader_RejectsOversize(t *testing.T) {
	big := append(append([]byte{}, pngBytes...), make([]byte, MaxImageBytes)...)
	_, err := FromReader(bytes.NewReader(big), "image")

	var fe domain.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, msgImageSize, fe["image"])
}

func TestFromDataURL(t *testing.T) {
	img, err := FromDataURL("data:image/png;base64,"+base64.StdEncoding.EncodeToString(pngBytes), "image")
	require.NoError(t, err)
	assert.Equal(t, pngBytes, img.Data)

	for _, bad := range []string{
		"https://example.com/x.png",
		"data:image/png;base64,***",
		"data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hi")),
	} {
		_, err := FromDataURL(bad, "image")
		assert.ErrorIs(t, err, domain.ErrValidation, bad)
	}
}

func TestFromDataURL_SniffsRealType(t *testing.T) {
	// declared png, payload is text
	_, err := FromDataURL("data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte("hello world")), "image")

	var fe domain.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, msgImageType, fe["image"])
}

func TestStore_KeyLayout(t *testing.T) {
	st := &mockStore{}
	st.On("Upload", mock.Anything, "customers/customer_c1_1700000000.png", pngBytes, "image/png").Return(nil)

	key, err := newSvc(st).Store(context.Background(), "customers/customer_c1", &Image{Data: pngBytes, ContentType: "image/png", Ext: "png"})

	require.NoError(t, err)
	assert.Equal(t, "customers/customer_c1_1700000000.png", key)
	st.AssertExpectations(t)
}

func TestURL(t *testing.T) {
	st := &mockStore{}
	st.On("URL", mock.Anything, "img/default-user.png").Return("https://cdn/img/default-user.png", nil)
	st.On("URL", mock.Anything, "broken").Return("", errors.New("no creds"))
	svc := newSvc(st)

	assert.Nil(t, svc.URL(context.Background(), ""))
	assert.Nil(t, svc.URL(context.Background(), "broken"))
	u := svc.URL(context.Background(), "img/default-user.png")
	require.NotNil(t, u)
	assert.Equal(t, "https://cdn/img/default-user.png", *u)
}
