package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tendant/content-repository/pkg/contentrepo"
)

// MockClient is a mock implementation of the Client interface
type MockClient struct {
	mock.Mock
}

func (m *MockClient) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *MockClient) UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.UploadPartOutput), args.Error(1)
}

func (m *MockClient) CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.CreateMultipartUploadOutput), args.Error(1)
}

func (m *MockClient) CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.CompleteMultipartUploadOutput), args.Error(1)
}

func (m *MockClient) AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.AbortMultipartUploadOutput), args.Error(1)
}

func (m *MockClient) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

func (m *MockClient) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.HeadObjectOutput), args.Error(1)
}

func (m *MockClient) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.DeleteObjectOutput), args.Error(1)
}

func (m *MockClient) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.HeadBucketOutput), args.Error(1)
}

func (m *MockClient) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.CreateBucketOutput), args.Error(1)
}

func keyIs(key string) func(*string) bool {
	return func(k *string) bool { return aws.ToString(k) == key }
}

func newTestBackend(t *testing.T, client *MockClient, config Config) *Backend {
	t.Helper()
	if config.Bucket == "" {
		config.Bucket = "content"
	}
	backend, err := New(context.Background(), config, WithClient(client))
	require.NoError(t, err)
	return backend
}

func TestS3Backend_Configuration(t *testing.T) {
	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := New(context.Background(), Config{Region: "us-east-1"}, WithClient(&MockClient{}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("DefaultRegion", func(t *testing.T) {
		backend := newTestBackend(t, &MockClient{}, Config{})
		assert.Equal(t, "us-east-1", backend.config.Region)
	})

	t.Run("UnsupportedSSEAlgorithm", func(t *testing.T) {
		_, err := New(context.Background(), Config{Bucket: "content", EnableSSE: true, SSEAlgorithm: "rot13"}, WithClient(&MockClient{}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported SSE algorithm")
	})

	t.Run("RealClientWithStaticCredentials", func(t *testing.T) {
		backend, err := New(context.Background(), Config{
			Bucket:          "content",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
			Endpoint:        "http://localhost:9000",
			UsePathStyle:    true,
		})
		require.NoError(t, err)
		assert.NotNil(t, backend.client)
	})
}

func TestS3Backend_CreateBucketIfNotExist(t *testing.T) {
	t.Run("BucketExists", func(t *testing.T) {
		client := &MockClient{}
		client.On("HeadBucket", mock.Anything, mock.Anything).Return(&s3.HeadBucketOutput{}, nil).Once()

		newTestBackend(t, client, Config{CreateBucketIfNotExist: true})
		client.AssertExpectations(t)
		client.AssertNotCalled(t, "CreateBucket", mock.Anything, mock.Anything)
	})

	t.Run("BucketMissing", func(t *testing.T) {
		client := &MockClient{}
		client.On("HeadBucket", mock.Anything, mock.Anything).Return(nil, &types.NotFound{}).Once()
		client.On("CreateBucket", mock.Anything, mock.MatchedBy(func(in *s3.CreateBucketInput) bool {
			return aws.ToString(in.Bucket) == "content" &&
				in.CreateBucketConfiguration != nil &&
				in.CreateBucketConfiguration.LocationConstraint == types.BucketLocationConstraint("eu-west-1")
		})).Return(&s3.CreateBucketOutput{}, nil).Once()

		newTestBackend(t, client, Config{Region: "eu-west-1", CreateBucketIfNotExist: true})
		client.AssertExpectations(t)
	})

	t.Run("AlreadyOwned", func(t *testing.T) {
		client := &MockClient{}
		client.On("HeadBucket", mock.Anything, mock.Anything).Return(nil, &types.NoSuchBucket{}).Once()
		client.On("CreateBucket", mock.Anything, mock.Anything).Return(nil, &types.BucketAlreadyOwnedByYou{}).Once()

		newTestBackend(t, client, Config{CreateBucketIfNotExist: true})
		client.AssertExpectations(t)
	})

	t.Run("AccessDenied", func(t *testing.T) {
		client := &MockClient{}
		client.On("HeadBucket", mock.Anything, mock.Anything).
			Return(nil, &smithy.GenericAPIError{Code: "AccessDenied"}).Once()

		_, err := New(context.Background(), Config{Bucket: "content", CreateBucketIfNotExist: true}, WithClient(client))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to check bucket")
	})
}

func TestS3Backend_Write(t *testing.T) {
	t.Run("KeyIncludesNamespace", func(t *testing.T) {
		client := &MockClient{}
		client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			return aws.ToString(in.Bucket) == "content" &&
				aws.ToString(in.Key) == "tenant/documents/clients/1/abc" &&
				in.ServerSideEncryption == ""
		})).Return(&s3.PutObjectOutput{}, nil).Once()

		backend := newTestBackend(t, client, Config{})
		err := backend.Write(context.Background(), "tenant", "documents/clients/1/abc", strings.NewReader("hello"))
		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("ServerSideEncryptionKMS", func(t *testing.T) {
		client := &MockClient{}
		client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			return in.ServerSideEncryption == types.ServerSideEncryptionAwsKms &&
				aws.ToString(in.SSEKMSKeyId) == "key-1"
		})).Return(&s3.PutObjectOutput{}, nil).Once()

		backend := newTestBackend(t, client, Config{EnableSSE: true, SSEAlgorithm: "aws:kms", SSEKMSKeyID: "key-1"})
		require.NoError(t, backend.Write(context.Background(), "tenant", "images/clients/1/a.png", strings.NewReader("png")))
		client.AssertExpectations(t)
	})

	t.Run("UploadFailure", func(t *testing.T) {
		client := &MockClient{}
		client.On("PutObject", mock.Anything, mock.Anything).
			Return(nil, &smithy.GenericAPIError{Code: "InternalError", Message: "boom"}).Once()

		backend := newTestBackend(t, client, Config{})
		err := backend.Write(context.Background(), "tenant", "documents/clients/1/abc", strings.NewReader("hello"))
		require.Error(t, err)
		assert.ErrorIs(t, err, contentrepo.ErrBackendIO)

		var ce *contentrepo.ContentError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "write", ce.Op)
		assert.Equal(t, "documents/clients/1/abc", ce.Path)
	})
}

func TestS3Backend_Read(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client := &MockClient{}
		client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
			return keyIs("tenant/images/clients/7/photo.gif")(in.Key)
		})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("gif-bytes"))}, nil).Once()

		backend := newTestBackend(t, client, Config{})
		rc, err := backend.Read(context.Background(), "tenant", "images/clients/7/photo.gif")
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "gif-bytes", string(data))
	})

	t.Run("NoSuchKey", func(t *testing.T) {
		client := &MockClient{}
		client.On("GetObject", mock.Anything, mock.Anything).Return(nil, &types.NoSuchKey{}).Once()

		backend := newTestBackend(t, client, Config{})
		_, err := backend.Read(context.Background(), "tenant", "documents/clients/1/missing")
		assert.ErrorIs(t, err, contentrepo.ErrNotFound)
	})
}

func TestS3Backend_Delete(t *testing.T) {
	t.Run("Existing", func(t *testing.T) {
		client := &MockClient{}
		client.On("HeadObject", mock.Anything, mock.Anything).Return(&s3.HeadObjectOutput{}, nil).Once()
		client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
			return keyIs("tenant/documents/clients/1/abc")(in.Key)
		})).Return(&s3.DeleteObjectOutput{}, nil).Once()

		backend := newTestBackend(t, client, Config{})
		require.NoError(t, backend.Delete(context.Background(), "tenant", "documents/clients/1/abc"))
		client.AssertExpectations(t)
	})

	t.Run("Missing", func(t *testing.T) {
		client := &MockClient{}
		client.On("HeadObject", mock.Anything, mock.Anything).Return(nil, &types.NotFound{}).Once()

		backend := newTestBackend(t, client, Config{})
		err := backend.Delete(context.Background(), "tenant", "documents/clients/1/abc")
		assert.ErrorIs(t, err, contentrepo.ErrNotFound)
		client.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
	})
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"NoSuchKey type", &types.NoSuchKey{}, contentrepo.ErrNotFound},
		{"NotFound type", &types.NotFound{}, contentrepo.ErrNotFound},
		{"NoSuchKey code", &smithy.GenericAPIError{Code: "NoSuchKey"}, contentrepo.ErrNotFound},
		{"AccessDenied code", &smithy.GenericAPIError{Code: "AccessDenied"}, contentrepo.ErrBackendIO},
		{"plain error", errors.New("network down"), contentrepo.ErrBackendIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyError(tt.err))
		})
	}
}
