// Package objectstore provides ObjectStore implementations over SQLite,
// bbolt, the local filesystem and S3-compatible buckets.
package objectstore

import (
	"fmt"
	"strings"

	"github.com/foundry/mavenrepo/internal/core/services"
)

// unavailable wraps a backend failure in ErrStorageUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", services.ErrStorageUnavailable, op, err)
}

// validKey rejects keys that cannot be stored in every backend.
func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return fmt.Errorf("%w: invalid object key %q", services.ErrInvalidRequest, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: invalid object key %q", services.ErrInvalidRequest, key)
		}
	}
	return nil
}

// pager applies prefix, delimiter, cursor and limit semantics to keys fed in
// ascending byte order. Backends without native delimited listing share it.
type pager struct {
	opts       services.ListOptions
	limit      int
	count      int
	last       string
	lastPrefix string
	result     services.ListResult
}

func newPager(opts services.ListOptions) *pager {
	limit := opts.Limit
	if limit <= 0 {
		limit = services.DefaultListLimit
	}
	return &pager{opts: opts, limit: limit}
}

// start returns the smallest key the backend needs to feed.
func (p *pager) start() string {
	if p.opts.Cursor > p.opts.Prefix {
		return p.opts.Cursor
	}
	return p.opts.Prefix
}

// inRange reports whether key can still match the prefix. Backends iterating
// in order stop once it returns false.
func (p *pager) inRange(key string) bool {
	return strings.HasPrefix(key, p.opts.Prefix) || key < p.opts.Prefix
}

// add offers the next key. It returns false once the page is full.
func (p *pager) add(info services.ObjectInfo) bool {
	key := info.Key
	if !strings.HasPrefix(key, p.opts.Prefix) {
		return true
	}
	if c := p.opts.Cursor; c != "" {
		if key <= c {
			return true
		}
		if p.opts.Delimiter != "" && strings.HasSuffix(c, p.opts.Delimiter) && strings.HasPrefix(key, c) {
			return true
		}
	}

	if d := p.opts.Delimiter; d != "" {
		rest := key[len(p.opts.Prefix):]
		if i := strings.Index(rest, d); i >= 0 {
			cp := p.opts.Prefix + rest[:i+len(d)]
			if cp == p.lastPrefix {
				return true
			}
			if p.count >= p.limit {
				p.result.Truncated = true
				return false
			}
			p.result.CommonPrefixes = append(p.result.CommonPrefixes, cp)
			p.lastPrefix = cp
			p.last = cp
			p.count++
			return true
		}
	}

	if p.count >= p.limit {
		p.result.Truncated = true
		return false
	}
	p.result.Objects = append(p.result.Objects, info)
	p.last = key
	p.count++
	return true
}

func (p *pager) finish() services.ListResult {
	if p.result.Truncated {
		p.result.NextCursor = p.last
	}
	return p.result
}
