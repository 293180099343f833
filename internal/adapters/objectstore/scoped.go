package objectstore

import (
	"context"
	"strings"

	"github.com/foundry/mavenrepo/internal/core/services"
)

// Scoped presents the keys under prefix as the root of a namespace. The
// result implements ConditionalStore when inner does.
func Scoped(inner services.ObjectStore, prefix string) services.ObjectStore {
	s := &scopedStore{inner: inner, prefix: prefix}
	if c, ok := inner.(services.ConditionalStore); ok {
		return &scopedConditional{scopedStore: s, cond: c}
	}
	return s
}

type scopedStore struct {
	inner  services.ObjectStore
	prefix string
}

func (s *scopedStore) List(ctx context.Context, opts services.ListOptions) (services.ListResult, error) {
	opts.Prefix = s.prefix + opts.Prefix
	res, err := s.inner.List(ctx, opts)
	if err != nil {
		return res, err
	}
	for i := range res.Objects {
		res.Objects[i].Key = strings.TrimPrefix(res.Objects[i].Key, s.prefix)
	}
	for i := range res.CommonPrefixes {
		res.CommonPrefixes[i] = strings.TrimPrefix(res.CommonPrefixes[i], s.prefix)
	}
	return res, nil
}

func (s *scopedStore) Get(ctx context.Context, key string) (*services.Object, error) {
	obj, err := s.inner.Get(ctx, s.prefix+key)
	if err != nil {
		return nil, err
	}
	obj.Key = key
	return obj, nil
}

func (s *scopedStore) Head(ctx context.Context, key string) (bool, error) {
	return s.inner.Head(ctx, s.prefix+key)
}

func (s *scopedStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return s.inner.Put(ctx, s.prefix+key, data, contentType)
}

func (s *scopedStore) Delete(ctx context.Context, keys []string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	return s.inner.Delete(ctx, full)
}

type scopedConditional struct {
	*scopedStore
	cond services.ConditionalStore
}

func (s *scopedConditional) PutIfMatch(ctx context.Context, key string, data []byte, contentType, etag string) error {
	return s.cond.PutIfMatch(ctx, s.prefix+key, data, contentType, etag)
}
