package services

import (
	"context"
	"time"
)

// DefaultListLimit is the page size used when ListOptions.Limit is zero.
const DefaultListLimit = 1000

// ListOptions controls a prefix listing.
type ListOptions struct {
	// Prefix restricts results to keys starting with it.
	Prefix string
	// Delimiter groups keys sharing the next path segment into CommonPrefixes.
	Delimiter string
	// Cursor resumes a truncated listing; pass ListResult.NextCursor.
	Cursor string
	// Limit caps the number of objects plus common prefixes returned.
	Limit int
}

// ObjectInfo describes a stored object without its contents.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ListResult is one page of a prefix listing.
type ListResult struct {
	Objects        []ObjectInfo
	CommonPrefixes []string
	Truncated      bool
	NextCursor     string
}

// Object is a stored blob with its version token.
type Object struct {
	Key          string
	Data         []byte
	ETag         string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// ObjectStore is a flat key-value namespace with delimited prefix listing.
// Implementations must be safe for concurrent use. Storage failures are
// wrapped in ErrStorageUnavailable.
type ObjectStore interface {
	// List returns one page of keys and common prefixes under opts.Prefix.
	List(ctx context.Context, opts ListOptions) (ListResult, error)

	// Get returns the object at key, or ErrNotFound.
	Get(ctx context.Context, key string) (*Object, error)

	// Head reports whether key exists.
	Head(ctx context.Context, key string) (bool, error)

	// Put stores data at key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys []string) error
}

// ConditionalStore is implemented by stores that support compare-and-swap
// writes keyed on an object's ETag.
type ConditionalStore interface {
	ObjectStore

	// PutIfMatch stores data only if the current ETag of key equals etag.
	// An empty etag requires that key does not exist. A lost race returns
	// ErrPreconditionFailed.
	PutIfMatch(ctx context.Context, key string, data []byte, contentType, etag string) error
}

// Authenticator validates publish credentials.
type Authenticator interface {
	// Validate reports whether the username/password pair is accepted.
	Validate(username, password string) bool
}

// Recorder receives publish and purge outcomes for metrics.
type Recorder interface {
	ObservePublish(repo, outcome string)
	ObservePurge(repo string, deleted int)
}

// NopRecorder discards all observations.
type NopRecorder struct{}

func (NopRecorder) ObservePublish(string, string) {}
func (NopRecorder) ObservePurge(string, int)      {}
