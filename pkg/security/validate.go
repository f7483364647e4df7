package security

import (
	"crypto/subtle"
	"fmt"
	"strings"
)

// Error carries the HTTP status a validation failure maps to. The message
// is safe to return to the caller verbatim.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// ValidateUpload gates an uploaded file on its declared metadata before any
// processing happens. A zero or negative size means the client did not
// declare one; the size check is skipped here and the orchestrator
// re-verifies after reading the full body.
func ValidateUpload(contentType string, size int64, maxSizeMB int) *Error {
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		return &Error{
			Status:  400,
			Message: "Only image files are allowed. Supported formats: JPEG, PNG, GIF, WebP",
		}
	}

	if size > 0 && size > int64(maxSizeMB)*1024*1024 {
		return &Error{
			Status:  413,
			Message: fmt.Sprintf("File too large. Maximum size is %dMB", maxSizeMB),
		}
	}

	return nil
}

// CheckAuthToken validates the Authorization header against the configured
// shared secret. An empty requiredToken disables authorization entirely.
func CheckAuthToken(authorization, requiredToken string) *Error {
	if requiredToken == "" {
		return nil
	}

	if authorization == "" {
		return &Error{Status: 401, Message: "Authorization header required"}
	}

	expected := "Bearer " + requiredToken
	if subtle.ConstantTimeCompare([]byte(authorization), []byte(expected)) != 1 {
		return &Error{Status: 401, Message: "Invalid authorization token"}
	}

	return nil
}
