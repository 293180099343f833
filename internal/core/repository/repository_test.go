package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foundry/mavenrepo/internal/adapters/objectstore"
	"github.com/foundry/mavenrepo/internal/core/services"
	"github.com/foundry/mavenrepo/internal/maven"
)

func newStore(t *testing.T) *objectstore.SQLiteStore {
	t.Helper()
	store, err := objectstore.NewSQLiteStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

type countingRecorder struct {
	publishes map[string]int
	purged    map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{publishes: map[string]int{}, purged: map[string]int{}}
}

func (r *countingRecorder) ObservePublish(repo, outcome string) {
	r.publishes[repo+"/"+outcome]++
}

func (r *countingRecorder) ObservePurge(repo string, deleted int) {
	r.purged[repo] += deleted
}

func mustParse(t *testing.T, p string) maven.Coordinate {
	t.Helper()
	c, err := maven.ParsePath(p)
	require.NoError(t, err)
	return c
}

func catalogFor(store services.ObjectStore, repo maven.Repository) *Catalog {
	return NewCatalog(objectstore.Scoped(store, repo.Prefix()))
}
