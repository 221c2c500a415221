package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	d, err := NewLocal(t.TempDir(), "http://localhost:3000/storage/")
	require.NoError(t, err)

	require.NoError(t, d.Put(ctx, "exports/products.json", strings.NewReader(`[{"id":1}]`)))

	ok, err := d.Exists(ctx, "exports/products.json")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := d.Get(ctx, "exports/products.json")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, `[{"id":1}]`, string(body))

	require.NoError(t, d.Put(ctx, "exports/b.json", strings.NewReader("{}")))
	files, err := d.List(ctx, "exports")
	require.NoError(t, err)
	assert.Equal(t, []string{"exports/b.json", "exports/products.json"}, files)

	assert.Equal(t, "http://localhost:3000/storage/exports/b.json", d.URL("exports/b.json"))

	require.NoError(t, d.Delete(ctx, "exports/products.json"))
	require.NoError(t, d.Delete(ctx, "exports/products.json"))
	ok, _ = d.Exists(ctx, "exports/products.json")
	assert.False(t, ok)

	_, err = d.Get(ctx, "exports/products.json")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestLocalStaysInsideRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d, err := NewLocal(root, "")
	require.NoError(t, err)

	require.NoError(t, d.Put(ctx, "../../escape.json", strings.NewReader("x")))
	files, err := d.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"escape.json"}, files)

	assert.Error(t, d.Put(ctx, "/", strings.NewReader("x")))
}

func TestLocalListMissingPrefix(t *testing.T) {
	d, err := NewLocal(t.TempDir(), "")
	require.NoError(t, err)

	files, err := d.List(context.Background(), "nothing-here")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestManager(t *testing.T) {
	m, err := NewManager(context.Background(), Config{LocalRoot: t.TempDir()})
	require.NoError(t, err)

	d, err := m.Disk("")
	require.NoError(t, err)
	assert.IsType(t, &Local{}, d)

	_, err = m.Disk("s3")
	assert.Error(t, err)

	_, err = NewManager(context.Background(), Config{Default: "s3", LocalRoot: t.TempDir()})
	assert.Error(t, err)
}

func TestNewS3(t *testing.T) {
	_, err := NewS3(context.Background(), Config{})
	assert.Error(t, err)

	d, err := NewS3(context.Background(), Config{
		S3Bucket:   "exports",
		S3Key:      "minio",
		S3Secret:   "minio123",
		S3Endpoint: "http://localhost:9000",
		S3URL:      "http://localhost:9000/exports/",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/exports/a/b.json", d.URL("/a/b.json"))

	d, err = NewS3(context.Background(), Config{S3Bucket: "exports", S3Region: "eu-west-1", S3Key: "k", S3Secret: "s"})
	require.NoError(t, err)
	assert.Equal(t, "https://exports.s3.eu-west-1.amazonaws.com/x.json", d.URL("x.json"))
}

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	return &s3.PutObjectOutput{}, args.Error(0)
}

func (m *mockS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(ctx, in)
	return &s3.HeadObjectOutput{}, args.Error(0)
}

func (m *mockS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, in)
	return &s3.DeleteObjectOutput{}, args.Error(0)
}

func (m *mockS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*s3.ListObjectsV2Output), args.Error(1)
}

func TestS3Disk(t *testing.T) {
	ctx := context.Background()
	api := &mockS3{}
	d := &S3{client: api, bucket: "exports", baseURL: "https://cdn"}

	api.On("PutObject", ctx, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Key) == "products.json" && aws.ToString(in.ContentType) == "application/json"
	})).Return(nil).Once()
	require.NoError(t, d.Put(ctx, "/products.json", strings.NewReader("[]")))

	api.On("GetObject", ctx, mock.Anything).Return(nil, &s3types.NoSuchKey{}).Once()
	_, err := d.Get(ctx, "missing.json")
	assert.ErrorIs(t, err, ErrNotExist)

	api.On("GetObject", ctx, mock.Anything).
		Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("[]"))}, nil).Once()
	rc, err := d.Get(ctx, "products.json")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "[]", string(body))

	api.On("HeadObject", ctx, mock.Anything).Return(&s3types.NotFound{}).Once()
	ok, err := d.Exists(ctx, "missing.json")
	require.NoError(t, err)
	assert.False(t, ok)

	api.On("HeadObject", ctx, mock.Anything).Return(errors.New("denied")).Once()
	_, err = d.Exists(ctx, "x.json")
	assert.Error(t, err)

	api.On("ListObjectsV2", ctx, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.Prefix) == "exports/"
	})).Return(&s3.ListObjectsV2Output{
		Contents: []s3types.Object{{Key: aws.String("exports/b.json")}, {Key: aws.String("exports/a.json")}},
	}, nil).Once()
	keys, err := d.List(ctx, "exports")
	require.NoError(t, err)
	assert.Equal(t, []string{"exports/a.json", "exports/b.json"}, keys)

	api.AssertExpectations(t)
}
