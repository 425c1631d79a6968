package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/logging"
)

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		base, url string
		key       string
		ok        bool
	}{
		{"/uploads", "/uploads/a.jpg", "a.jpg", true},
		{"/uploads", "uploads/imagens-123.jpg", "imagens-123.jpg", true},
		{"/uploads/", "/uploads/a.jpg?v=2", "a.jpg", true},
		{"https://cdn.example.com/bucket", "https://cdn.example.com/bucket/properties/2026/10/x.png", "properties/2026/10/x.png", true},
		{"https://cdn.example.com/bucket", "https://other.example.com/bucket/x.png", "", false},
		{"/uploads", "/uploads/../etc/passwd", "", false},
		{"/uploads", "/uploads/", "", false},
		{"", "/anything", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			key, ok := KeyFromURL(tt.base, tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("Foto da Sala.JPEG", "image/jpeg", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))

	assert.True(t, strings.HasPrefix(key, "properties/2026/03/"), key)
	assert.True(t, strings.HasSuffix(key, "-foto-da-sala.jpg"), key)
}

func TestLocalStore_UploadAndDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/uploads/", logging.Discard())
	require.NoError(t, err)

	url, err := store.Upload(ctx, Object{Body: strings.NewReader("png-bytes"), ContentType: "image/png", Filename: "casa.png"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/uploads/"), url)

	name := strings.TrimPrefix(url, "/uploads/")
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.DeleteOne(ctx, url))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))

	// missing files and foreign URLs are not errors
	require.NoError(t, store.DeleteOne(ctx, url))
	require.NoError(t, store.DeleteMany(ctx, []string{"https://elsewhere/x.jpg", "/uploads/nested/../../x"}))
}

type fakeS3 struct {
	puts       []*s3.PutObjectInput
	bodies     []string
	deleted    []string
	batches    int
	putErr     error
	failedKeys map[string]bool
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, string(b))
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.batches++
	out := &s3.DeleteObjectsOutput{}
	for _, obj := range in.Delete.Objects {
		key := aws.ToString(obj.Key)
		if f.failedKeys[key] {
			out.Errors = append(out.Errors, types.Error{Key: obj.Key, Message: aws.String("AccessDenied")})
			continue
		}
		f.deleted = append(f.deleted, key)
	}
	return out, nil
}

func TestS3Store_Upload(t *testing.T) {
	fake := &fakeS3{}
	store := newS3Store(fake, "listings", "https://cdn.example.com/listings/", logging.Discard())
	store.now = func() time.Time { return time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC) }

	// a plain reader is buffered into a seekable body
	url, err := store.Upload(context.Background(), Object{Body: io.MultiReader(strings.NewReader("jpeg")), ContentType: "image/jpeg", Filename: "sala.jpg"})
	require.NoError(t, err)

	require.Len(t, fake.puts, 1)
	in := fake.puts[0]
	assert.Equal(t, "listings", aws.ToString(in.Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(in.ContentType))
	assert.EqualValues(t, 4, aws.ToInt64(in.ContentLength))
	assert.Equal(t, "jpeg", fake.bodies[0])
	assert.Equal(t, "https://cdn.example.com/listings/"+aws.ToString(in.Key), url)
	assert.True(t, strings.HasPrefix(aws.ToString(in.Key), "properties/2026/10/"))
}

func TestS3Store_UploadError(t *testing.T) {
	fake := &fakeS3{putErr: fmt.Errorf("SlowDown")}
	store := newS3Store(fake, "listings", "https://cdn.example.com/listings", logging.Discard())

	_, err := store.Upload(context.Background(), Object{Body: strings.NewReader("x"), ContentType: "image/png", Filename: "a.png"})
	assert.ErrorContains(t, err, "SlowDown")
}

func TestS3Store_DeleteManyBatches(t *testing.T) {
	fake := &fakeS3{failedKeys: map[string]bool{"properties/k7.png": true}}
	store := newS3Store(fake, "listings", "https://cdn.example.com/listings", logging.Discard())

	urls := []string{"/uploads/legacy.jpg"}
	for i := 0; i < 2500; i++ {
		urls = append(urls, fmt.Sprintf("https://cdn.example.com/listings/properties/k%d.png", i))
	}

	err := store.DeleteMany(context.Background(), urls)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "properties/k7.png")
	assert.Equal(t, 3, fake.batches)
	assert.Len(t, fake.deleted, 2499)
}

func TestS3Store_DeleteOne(t *testing.T) {
	fake := &fakeS3{}
	store := newS3Store(fake, "listings", "https://cdn.example.com/listings", logging.Discard())

	require.NoError(t, store.DeleteOne(context.Background(), "https://cdn.example.com/listings/properties/a.jpg"))
	require.NoError(t, store.DeleteOne(context.Background(), "/uploads/a.jpg"))
	assert.Equal(t, []string{"properties/a.jpg"}, fake.deleted)
}
