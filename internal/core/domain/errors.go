package domain

import "errors"

var (
	ErrValidation          = errors.New("validation failed")
	ErrConflict            = errors.New("already exists")
	ErrUnauthenticated     = errors.New("please authenticate")
	ErrInvalidToken        = errors.New("invalid token")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrRecipeNotFound      = errors.New("recipe not found")
	ErrNotFoundOrNotAuthor = errors.New("recipe not found or you are not the author")
	ErrUpload              = errors.New("error uploading image")
	ErrPersistence         = errors.New("persistence failure")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConflictError is returned when a unique user attribute is already taken.
// Field is either "username" or "email".
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return e.Field + " already exists"
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// UploadError wraps an object-store failure. A request that hits it must not
// persist anything referencing the object.
type UploadError struct {
	Cause error
}

func (e *UploadError) Error() string {
	return "upload image: " + e.Cause.Error()
}

func (e *UploadError) Unwrap() error { return e.Cause }

func (e *UploadError) Is(target error) bool {
	return target == ErrUpload
}

// PersistenceError wraps a database failure together with the operation name.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
