package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{name: "plain", key: "req/showcase.png", want: "req/showcase.png"},
		{name: "leading slash", key: "/req/showcase.png", want: "req/showcase.png"},
		{name: "dot prefix", key: "./req/a.png", want: "req/a.png"},
		{name: "backslashes", key: `req\a.png`, want: "req/a.png"},
		{name: "inner dots", key: "req/../other/a.png", want: "other/a.png"},
		{name: "escape", key: "../etc/passwd", wantErr: true},
		{name: "empty", key: "  ", wantErr: true},
		{name: "dot", key: ".", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sanitizeKey(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssetKey(t *testing.T) {
	assert.Equal(t, "req-1/showcase.png", AssetKey("req-1", "showcase", "image/png"))
	assert.Equal(t, "req-1/showcase.jpg", AssetKey("req-1", "showcase", "image/jpeg; q=1"))
	assert.Equal(t, "req-1/showcase", AssetKey("req-1", "showcase", "application/x-unknown"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/webp", ContentType(pngBytes, "image/webp"))
	assert.Equal(t, "image/png", ContentType(pngBytes, ""))
	assert.Equal(t, "image/png", ContentType(pngBytes, "application/octet-stream"))
}

func TestFileStore_Put(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	u, err := store.Put(context.Background(), "req-1/showcase.png", pngBytes, "image/png")
	require.NoError(t, err)

	parsed, err := url.Parse(u)
	require.NoError(t, err)
	assert.Equal(t, "file", parsed.Scheme)

	data, err := os.ReadFile(filepath.Join(dir, "req-1", "showcase.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	assert.Equal(t, filepath.Join(dir, "req-1", "showcase.png"), filepath.FromSlash(parsed.Path))
}

func TestFileStore_Errors(t *testing.T) {
	_, err := NewFileStore(" ")
	assert.Error(t, err)

	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../outside.png", pngBytes, "")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Put(ctx, "req/a.png", pngBytes, "")
	assert.ErrorIs(t, err, context.Canceled)

	var nilStore *FileStore
	_, err = nilStore.Put(context.Background(), "req/a.png", pngBytes, "")
	assert.Error(t, err)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		f.body, _ = io.ReadAll(params.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_Put(t *testing.T) {
	tests := []struct {
		name    string
		cfg     S3Config
		wantKey string
		wantURL string
	}{
		{
			name:    "regional url",
			cfg:     S3Config{Bucket: "assets", Region: "eu-west-1", Prefix: "/showcases/"},
			wantKey: "showcases/req-1/showcase.png",
			wantURL: "https://assets.s3.eu-west-1.amazonaws.com/showcases/req-1/showcase.png",
		},
		{
			name:    "global url",
			cfg:     S3Config{Bucket: "assets"},
			wantKey: "req-1/showcase.png",
			wantURL: "https://assets.s3.amazonaws.com/req-1/showcase.png",
		},
		{
			name:    "base url",
			cfg:     S3Config{Bucket: "assets", BaseURL: "https://cdn.example.com/"},
			wantKey: "req-1/showcase.png",
			wantURL: "https://cdn.example.com/req-1/showcase.png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeS3{}
			store := NewS3StoreWithClient(fake, tt.cfg)

			u, err := store.Put(context.Background(), "req-1/showcase.png", pngBytes, "")
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, u)

			require.NotNil(t, fake.input)
			assert.Equal(t, "assets", *fake.input.Bucket)
			assert.Equal(t, tt.wantKey, *fake.input.Key)
			assert.Equal(t, "image/png", *fake.input.ContentType)
			assert.Equal(t, int64(len(pngBytes)), *fake.input.ContentLength)
			assert.Equal(t, pngBytes, fake.body)
		})
	}
}

func TestS3Store_PutError(t *testing.T) {
	boom := errors.New("access denied")
	store := NewS3StoreWithClient(&fakeS3{err: boom}, S3Config{Bucket: "assets"})

	_, err := store.Put(context.Background(), "req-1/showcase.png", pngBytes, "image/png")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "s3://assets/req-1/showcase.png")
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	assert.Error(t, err)
}
