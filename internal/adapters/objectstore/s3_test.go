package objectstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"
)

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Options{Region: "auto"})
	require.Error(t, err)

	s, err := NewS3Store(context.Background(), S3Options{
		Bucket:          "maven",
		Region:          "auto",
		Endpoint:        "http://127.0.0.1:9000",
		UsePathStyle:    true,
		AccessKeyID:     "AKID",
		SecretAccessKey: "SECRET",
	})
	require.NoError(t, err)
	require.Equal(t, "maven", s.bucket)
}

func TestS3ErrorClassification(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		notFound     bool
		precondition bool
	}{
		{"typed no such key", &types.NoSuchKey{}, true, false},
		{"typed not found", fmt.Errorf("head: %w", &types.NotFound{}), true, false},
		{"generic not found", &smithy.GenericAPIError{Code: "NotFound"}, true, false},
		{"precondition", &smithy.GenericAPIError{Code: "PreconditionFailed"}, false, true},
		{"conditional conflict", &smithy.GenericAPIError{Code: "ConditionalRequestConflict"}, false, true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false, false},
		{"network", errors.New("connection reset"), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.notFound, isS3NotFound(tt.err))
			require.Equal(t, tt.precondition, isS3PreconditionFailed(tt.err))
		})
	}
}

func TestUnquoteETag(t *testing.T) {
	require.Equal(t, "abc", unquoteETag(`"abc"`))
	require.Equal(t, "abc", unquoteETag("abc"))
	require.Empty(t, unquoteETag(""))
}
