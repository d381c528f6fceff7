package models

// AppError is a structured application error with HTTP status code.
type AppError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string { return e.Message }

// Unwrap returns the underlying cause, if any.
func (e *AppError) Unwrap() error { return e.Err }

// Error codes.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeBadRequest          = "BAD_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInternal            = "INTERNAL"
	CodePlatformUnavailable = "PLATFORM_UNAVAILABLE"
	CodeDefaultSetFailed    = "DEFAULT_SET_FAILED"
	CodePersistenceFailed   = "PERSISTENCE_FAILED"
)

// Error constructors.
var (
	ErrNotFound = func(msg string) *AppError {
		return &AppError{Code: CodeNotFound, Message: msg, Status: 404}
	}
	ErrBadRequest = func(msg string) *AppError {
		return &AppError{Code: CodeBadRequest, Message: msg, Status: 400}
	}
	ErrUnauthorized = &AppError{Code: CodeUnauthorized, Message: "authentication required", Status: 401}
	ErrInternal     = func(msg string) *AppError {
		return &AppError{Code: CodeInternal, Message: msg, Status: 500}
	}

	// ErrPlatformUnavailable: the enumerator or default-device accessors
	// could not be reached. Query paths degrade instead of returning this.
	ErrPlatformUnavailable = func(err error) *AppError {
		return &AppError{Code: CodePlatformUnavailable, Message: "audio platform unavailable: " + err.Error(), Status: 503, Err: err}
	}
	// ErrDefaultSetFailed: the set-default call failed and the advance was aborted.
	ErrDefaultSetFailed = func(id string, err error) *AppError {
		return &AppError{Code: CodeDefaultSetFailed, Message: "failed to set default device " + id + ": " + err.Error(), Status: 502, Err: err}
	}
	// ErrPersistenceFailed: the config write failed. The in-memory state stays authoritative.
	ErrPersistenceFailed = func(err error) *AppError {
		return &AppError{Code: CodePersistenceFailed, Message: "failed to persist config: " + err.Error(), Status: 500, Err: err}
	}
)
