package services

import "errors"

var (
	// ErrNotFound indicates a requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates an immutable release file is already stored.
	ErrAlreadyExists = errors.New("already exists")
	// ErrMalformedPath indicates a repository path that does not describe a coordinate.
	ErrMalformedPath = errors.New("malformed path")
	// ErrUnsupportedFileType indicates an upload with an extension the repository does not accept.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrUnauthorized indicates missing or mismatched credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidMetadata indicates a maven-metadata.xml document that cannot be parsed.
	ErrInvalidMetadata = errors.New("invalid metadata")
	// ErrStorageUnavailable wraps any failure of the backing object store.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrNotDeterminable indicates metadata carries neither a latest nor a release pointer.
	ErrNotDeterminable = errors.New("latest version not determinable")
	// ErrPreconditionFailed indicates a conditional write lost against a concurrent writer.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrInvalidRequest indicates missing or invalid request parameters.
	ErrInvalidRequest = errors.New("invalid request")
)
