package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/foundry/mavenrepo/internal/core/models"
	"github.com/foundry/mavenrepo/internal/core/services"
	"github.com/foundry/mavenrepo/internal/maven"
)

// Purger deletes every object under a group or artifact prefix in both
// repository roots.
type Purger struct {
	store    services.ObjectStore
	logger   zerolog.Logger
	recorder services.Recorder
	pageSize int
}

// NewPurger creates a Purger over the full (unscoped) store.
func NewPurger(store services.ObjectStore, logger zerolog.Logger, recorder services.Recorder) *Purger {
	if recorder == nil {
		recorder = services.NopRecorder{}
	}
	return &Purger{store: store, logger: logger, recorder: recorder, pageSize: services.DefaultListLimit}
}

// Purge removes all keys under the dotted prefix (e.g. com.example.lib) in
// releases and snapshots. The operation is not atomic: failures are
// collected per root and keys already deleted stay deleted.
func (p *Purger) Purge(ctx context.Context, prefix string) (*models.PurgeResult, error) {
	path, err := purgePath(prefix)
	if err != nil {
		return nil, err
	}

	result := &models.PurgeResult{Deleted: []string{}}
	for _, repo := range maven.Repositories {
		deleted, err := p.purgeRoot(ctx, repo.Prefix()+path)
		result.Deleted = append(result.Deleted, deleted...)
		p.recorder.ObservePurge(string(repo), len(deleted))
		if err != nil {
			p.logger.Error().Err(err).Str("repository", string(repo)).Str("prefix", prefix).Msg("purge failed")
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", repo, err))
		}
	}
	result.Success = len(result.Errors) == 0

	p.logger.Info().
		Str("prefix", prefix).
		Int("deleted", len(result.Deleted)).
		Bool("success", result.Success).
		Msg("purge completed")
	return result, nil
}

// purgeRoot lists and deletes page by page. The cursor is not carried
// across pages because each page's keys are gone once deleted.
func (p *Purger) purgeRoot(ctx context.Context, prefix string) ([]string, error) {
	var deleted []string
	for {
		res, err := p.store.List(ctx, services.ListOptions{Prefix: prefix, Limit: p.pageSize})
		if err != nil {
			return deleted, err
		}
		if len(res.Objects) == 0 {
			return deleted, nil
		}

		keys := make([]string, 0, len(res.Objects))
		for _, obj := range res.Objects {
			keys = append(keys, obj.Key)
		}
		if err := p.store.Delete(ctx, keys); err != nil {
			return deleted, err
		}
		deleted = append(deleted, keys...)

		if !res.Truncated {
			return deleted, nil
		}
	}
}

// purgePath converts a dotted prefix into a directory path with a trailing
// slash so that com.example.lib never matches com/example/library.
func purgePath(prefix string) (string, error) {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		return "", fmt.Errorf("%w: missing prefix parameter", services.ErrInvalidRequest)
	}
	for _, seg := range strings.Split(prefix, ".") {
		if seg == "" || strings.ContainsAny(seg, "/\\") {
			return "", fmt.Errorf("%w: invalid prefix %q", services.ErrInvalidRequest, prefix)
		}
	}
	return maven.GroupIDToPath(prefix) + "/", nil
}
