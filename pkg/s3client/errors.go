package s3client

import (
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
)

// ErrBucketNotFound is returned by New when the configured bucket is missing.
var ErrBucketNotFound = errors.New("bucket not found")

// authCodes are S3 error codes caused by credentials or policy.
var authCodes = map[string]bool{
	"AccessDenied":                 true,
	"InvalidAccessKeyId":           true,
	"SignatureDoesNotMatch":        true,
	"AuthorizationHeaderMalformed": true,
	"ExpiredToken":                 true,
}

// IsAuthError reports whether the server rejected the credentials. Every
// further request with the same client fails the same way.
func IsAuthError(err error) bool {
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		return false
	}
	return authCodes[resp.Code] || resp.StatusCode == 401 || resp.StatusCode == 403
}

func isNoSuchKey(err error) bool {
	var resp minio.ErrorResponse
	return errors.As(err, &resp) && (resp.Code == "NoSuchKey" || resp.StatusCode == 404)
}

// FormatError formats an error for display
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return fmt.Sprintf("S3 error: %s (code: %s)", resp.Message, resp.Code)
	}
	return err.Error()
}
