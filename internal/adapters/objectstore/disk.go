package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/foundry/mavenrepo/internal/core/services"
	"github.com/foundry/mavenrepo/internal/util/hashing"
)

// DiskStore maps object keys onto files under a root directory. Writes go
// through a temp file and an atomic rename. Conditional writes are
// serialized per key within this process only.
type DiskStore struct {
	root    string
	locksMu sync.Mutex
	locks   map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewDiskStore creates a DiskStore rooted at dataDir/objects.
func NewDiskStore(dataDir string) (*DiskStore, error) {
	root, err := filepath.Abs(filepath.Join(dataDir, "objects"))
	if err != nil {
		return nil, fmt.Errorf("resolving object directory: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating object directory: %w", err)
	}
	return &DiskStore{root: root, locks: make(map[string]*keyLock)}, nil
}

func (s *DiskStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *DiskStore) List(ctx context.Context, opts services.ListOptions) (services.ListResult, error) {
	// Walk the deepest directory the prefix fully names.
	dir := s.root
	if i := strings.LastIndex(opts.Prefix, "/"); i >= 0 {
		dir = s.path(opts.Prefix[:i])
	}

	var infos []services.ObjectInfo
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, opts.Prefix) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		infos = append(infos, services.ObjectInfo{Key: key, Size: fi.Size(), LastModified: fi.ModTime().UTC()})
		return nil
	})
	if err != nil {
		return services.ListResult{}, unavailable("listing objects", err)
	}

	// Directory walk order differs from byte order ("a/b/c" vs "a/b.x").
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })

	p := newPager(opts)
	for _, info := range infos {
		if !p.add(info) {
			break
		}
	}
	return p.finish(), nil
}

func (s *DiskStore) Get(ctx context.Context, key string) (*services.Object, error) {
	if err := validKey(key); err != nil {
		return nil, fmt.Errorf("%w: %s", services.ErrNotFound, key)
	}
	p := s.path(key)
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || isDirErr(p) {
			return nil, fmt.Errorf("%w: %s", services.ErrNotFound, key)
		}
		return nil, unavailable("reading object", err)
	}
	fi, err := os.Stat(p)
	if err != nil {
		return nil, unavailable("stat object", err)
	}
	return &services.Object{
		Key:          key,
		Data:         data,
		ETag:         hashing.SHA256Hex(data),
		Size:         int64(len(data)),
		LastModified: fi.ModTime().UTC(),
	}, nil
}

func isDirErr(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

func (s *DiskStore) Head(ctx context.Context, key string) (bool, error) {
	if err := validKey(key); err != nil {
		return false, nil
	}
	fi, err := os.Stat(s.path(key))
	if err == nil {
		return !fi.IsDir(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, unavailable("checking object", err)
}

func (s *DiskStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := validKey(key); err != nil {
		return err
	}
	unlock := s.lock(key)
	defer unlock()

	if _, err := s.write(key, data); err != nil {
		return unavailable("putting object", err)
	}
	return nil
}

func (s *DiskStore) PutIfMatch(ctx context.Context, key string, data []byte, contentType, etag string) error {
	if err := validKey(key); err != nil {
		return err
	}
	unlock := s.lock(key)
	defer unlock()

	current := ""
	existing, err := os.ReadFile(s.path(key))
	switch {
	case err == nil:
		current = hashing.SHA256Hex(existing)
	case errors.Is(err, fs.ErrNotExist):
	default:
		return unavailable("reading object", err)
	}
	if current != etag {
		return fmt.Errorf("%w: %s", services.ErrPreconditionFailed, key)
	}

	if _, err := s.write(key, data); err != nil {
		return unavailable("putting object", err)
	}
	return nil
}

// write stores data at key via a temp file and rename, returning its SHA256.
func (s *DiskStore) write(key string, data []byte) (string, error) {
	finalPath := s.path(key)
	dir := filepath.Dir(finalPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating object directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// Ensure cleanup on failure.
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	hw, err := hashing.NewWriter(tmp, hashing.SHA256)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(hw, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("moving object to final path: %w", err)
	}

	success = true
	return hw.Sum(hashing.SHA256), nil
}

func (s *DiskStore) Delete(ctx context.Context, keys []string) error {
	for _, key := range keys {
		if validKey(key) != nil {
			continue
		}
		p := s.path(key)
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return unavailable("deleting object", err)
		}
		s.pruneEmptyDirs(filepath.Dir(p))
	}
	return nil
}

// pruneEmptyDirs removes now-empty parent directories up to the root so
// listings do not see stale path segments.
func (s *DiskStore) pruneEmptyDirs(dir string) {
	for dir != s.root && strings.HasPrefix(dir, s.root) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func (s *DiskStore) lock(key string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &keyLock{}
		s.locks[key] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.locksMu.Unlock()
	}
}
