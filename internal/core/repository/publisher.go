// Package repository implements the publish, catalog and purge operations
// of the Maven repository on top of an ObjectStore.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/foundry/mavenrepo/internal/core/models"
	"github.com/foundry/mavenrepo/internal/core/services"
	"github.com/foundry/mavenrepo/internal/maven"
	"github.com/foundry/mavenrepo/internal/util/hashing"
)

const defaultMetadataRetries = 5

// Publish outcomes reported to the Recorder.
const (
	OutcomeStored   = "stored"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Publisher stores uploads under the release and snapshot roots of a single
// ObjectStore and maintains maven-metadata.xml.
type Publisher struct {
	store           services.ObjectStore
	logger          zerolog.Logger
	recorder        services.Recorder
	now             func() time.Time
	metadataRetries int
	checksums       bool
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithClock sets the time source used for snapshot timestamps.
func WithClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) {
		p.now = now
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r services.Recorder) PublisherOption {
	return func(p *Publisher) {
		p.recorder = r
	}
}

// WithMetadataRetries sets how many compare-and-swap attempts a metadata
// update makes before giving up.
func WithMetadataRetries(n int) PublisherOption {
	return func(p *Publisher) {
		if n > 0 {
			p.metadataRetries = n
		}
	}
}

// WithChecksums enables .sha1 and .md5 sidecars on the direct publish path.
func WithChecksums(enabled bool) PublisherOption {
	return func(p *Publisher) {
		p.checksums = enabled
	}
}

// NewPublisher creates a Publisher over the full (unscoped) store.
func NewPublisher(store services.ObjectStore, logger zerolog.Logger, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		store:           store,
		logger:          logger,
		recorder:        services.NopRecorder{},
		now:             time.Now,
		metadataRetries: defaultMetadataRetries,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Upload stores a file uploaded by a build tool at its literal path.
//
// Primary release files are immutable. Checksums, signatures and metadata
// may be re-uploaded. Snapshot files are trusted as named by the client and
// stored without collision checks.
func (p *Publisher) Upload(ctx context.Context, c maven.Coordinate, data []byte) error {
	err := p.upload(ctx, c, data)
	p.observe(c.Repository, err)
	if err != nil {
		return err
	}
	p.logger.Info().
		Str("repository", string(c.Repository)).
		Str("key", c.StoreKey()).
		Int("size", len(data)).
		Msg("file stored")
	return nil
}

func (p *Publisher) upload(ctx context.Context, c maven.Coordinate, data []byte) error {
	if err := maven.ValidateExtension(c.FileName); err != nil {
		return err
	}
	contentType := maven.ContentType(c.FileName)

	switch c.Repository {
	case maven.Releases:
		if c.IsArtifactMetadata() || !maven.IsPrimaryFile(c.FileName) {
			return p.store.Put(ctx, c.StoreKey(), data, contentType)
		}
		return p.putNew(ctx, c.StoreKey(), c.FileName, data, contentType)

	case maven.Snapshots:
		if c.IsArtifactMetadata() {
			return p.store.Put(ctx, c.StoreKey(), data, contentType)
		}
		if !maven.IsSnapshotVersion(c.Version) && !maven.IsMetadataFile(c.FileName) {
			return fmt.Errorf("%w: version %s must end with %s", services.ErrInvalidRequest, c.Version, maven.SnapshotSuffix)
		}
		return p.store.Put(ctx, c.StoreKey(), data, contentType)
	}
	return fmt.Errorf("%w: unknown repository %q", services.ErrMalformedPath, c.Repository)
}

// putNew stores an immutable file. The existence check gives a clear
// conflict; the conditional write closes the race behind it when the store
// supports one.
func (p *Publisher) putNew(ctx context.Context, key, name string, data []byte, contentType string) error {
	exists, err := p.store.Head(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("file %s %w", name, services.ErrAlreadyExists)
	}

	if cs, ok := p.store.(services.ConditionalStore); ok {
		err := cs.PutIfMatch(ctx, key, data, contentType, "")
		if errors.Is(err, services.ErrPreconditionFailed) {
			return fmt.Errorf("file %s %w", name, services.ErrAlreadyExists)
		}
		return err
	}
	return p.store.Put(ctx, key, data, contentType)
}

// PublishRelease stores a release file under its canonical name and records
// the version in the artifact metadata. Only a version not yet listed moves
// latest and release.
func (p *Publisher) PublishRelease(ctx context.Context, a maven.Artifact, data []byte) (*models.PublishResult, error) {
	res, err := p.publishRelease(ctx, a, data)
	p.observe(maven.Releases, err)
	return res, err
}

func (p *Publisher) publishRelease(ctx context.Context, a maven.Artifact, data []byte) (*models.PublishResult, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if maven.IsSnapshotVersion(a.Version) {
		return nil, fmt.Errorf("%w: %s is a snapshot version", services.ErrInvalidRequest, a.Version)
	}

	name := a.FileName()
	key := maven.Releases.Prefix() + a.VersionDir() + "/" + name
	if err := p.putNew(ctx, key, name, data, maven.ContentType(name)); err != nil {
		return nil, err
	}
	if err := p.writeChecksums(ctx, key, data); err != nil {
		return nil, err
	}

	metaKey := maven.Releases.Prefix() + a.ArtifactDir() + "/" + maven.MetadataFile
	_, err := p.updateMetadata(ctx, metaKey, func(m *maven.Metadata) *maven.Metadata {
		if m == nil {
			m = maven.NewArtifactMetadata(a.GroupID, a.ArtifactID)
		}
		if m.HasVersion(a.Version) {
			m.AddVersion(a.Version, p.now())
		} else {
			m.AddRelease(a.Version, p.now())
		}
		return m
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("group", a.GroupID).
		Str("artifact", a.ArtifactID).
		Str("version", a.Version).
		Str("key", key).
		Msg("release published")

	return &models.PublishResult{Key: key, FileName: name, Version: a.Version}, nil
}

// PublishSnapshot assigns the next (timestamp, buildNumber) from the
// version metadata, stores the file under its timestamped name and records
// the version in the artifact metadata.
//
// The build number is reserved by writing version metadata before the file;
// a failure between the two leaves metadata naming a missing file.
func (p *Publisher) PublishSnapshot(ctx context.Context, a maven.Artifact, data []byte) (*models.PublishResult, error) {
	res, err := p.publishSnapshot(ctx, a, data)
	p.observe(maven.Snapshots, err)
	return res, err
}

func (p *Publisher) publishSnapshot(ctx context.Context, a maven.Artifact, data []byte) (*models.PublishResult, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if !maven.IsSnapshotVersion(a.Version) {
		return nil, fmt.Errorf("%w: version %s must end with %s", services.ErrInvalidRequest, a.Version, maven.SnapshotSuffix)
	}

	var build maven.SnapshotBuild
	versionMetaKey := maven.Snapshots.Prefix() + a.VersionDir() + "/" + maven.MetadataFile
	_, err := p.updateMetadata(ctx, versionMetaKey, func(m *maven.Metadata) *maven.Metadata {
		now := p.now()
		build = maven.NextSnapshotBuild(m, now)
		if m == nil {
			m = maven.NewVersionMetadata(a.GroupID, a.ArtifactID, a.Version)
		}
		m.ApplySnapshotBuild(build, a.Classifier, a.Extension, now)
		return m
	})
	if err != nil {
		return nil, err
	}

	name := maven.SnapshotFileName(a, build)
	key := maven.Snapshots.Prefix() + a.VersionDir() + "/" + name
	if err := p.store.Put(ctx, key, data, maven.ContentType(name)); err != nil {
		return nil, err
	}
	if err := p.writeChecksums(ctx, key, data); err != nil {
		return nil, err
	}

	artifactMetaKey := maven.Snapshots.Prefix() + a.ArtifactDir() + "/" + maven.MetadataFile
	_, err = p.updateMetadata(ctx, artifactMetaKey, func(m *maven.Metadata) *maven.Metadata {
		if m == nil {
			m = maven.NewArtifactMetadata(a.GroupID, a.ArtifactID)
		}
		if m.HasVersion(a.Version) {
			m.AddVersion(a.Version, p.now())
		} else {
			m.AddSnapshot(a.Version, p.now())
		}
		return m
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("group", a.GroupID).
		Str("artifact", a.ArtifactID).
		Str("version", a.Version).
		Str("timestamp", build.Timestamp).
		Int("build", build.BuildNumber).
		Str("key", key).
		Msg("snapshot published")

	return &models.PublishResult{
		Key:         key,
		FileName:    name,
		Version:     a.Version,
		Timestamp:   build.Timestamp,
		BuildNumber: build.BuildNumber,
	}, nil
}

// updateMetadata runs a read-modify-write of the metadata document at key.
// mutate receives nil when no document exists. On a conditional store the
// write is retried when a concurrent writer wins; otherwise the last writer
// wins.
func (p *Publisher) updateMetadata(ctx context.Context, key string, mutate func(*maven.Metadata) *maven.Metadata) (*maven.Metadata, error) {
	cs, conditional := p.store.(services.ConditionalStore)

	for attempt := 1; ; attempt++ {
		var (
			current *maven.Metadata
			etag    string
		)
		obj, err := p.store.Get(ctx, key)
		switch {
		case err == nil:
			current, err = maven.ParseMetadata(obj.Data)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			etag = obj.ETag
		case errors.Is(err, services.ErrNotFound):
		default:
			return nil, err
		}

		next := mutate(current)
		data, err := next.Marshal()
		if err != nil {
			return nil, err
		}

		if !conditional {
			if err := p.store.Put(ctx, key, data, "application/xml"); err != nil {
				return nil, err
			}
		} else {
			err := cs.PutIfMatch(ctx, key, data, "application/xml", etag)
			if errors.Is(err, services.ErrPreconditionFailed) {
				if attempt >= p.metadataRetries {
					return nil, fmt.Errorf("updating %s after %d attempts: %w", key, attempt, err)
				}
				p.logger.Debug().Str("key", key).Int("attempt", attempt).Msg("metadata write lost race, retrying")
				continue
			}
			if err != nil {
				return nil, err
			}
		}

		if err := p.writeChecksums(ctx, key, data); err != nil {
			return nil, err
		}
		return next, nil
	}
}

// writeChecksums stores .sha1 and .md5 sidecars for key when enabled.
func (p *Publisher) writeChecksums(ctx context.Context, key string, data []byte) error {
	if !p.checksums {
		return nil
	}
	sums, err := hashing.Sums(data, hashing.SHA1, hashing.MD5)
	if err != nil {
		return err
	}
	for _, alg := range []string{hashing.SHA1, hashing.MD5} {
		if err := p.store.Put(ctx, key+"."+alg, []byte(sums[alg]), "text/plain"); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) observe(repo maven.Repository, err error) {
	outcome := OutcomeStored
	switch {
	case err == nil:
	case errors.Is(err, services.ErrStorageUnavailable):
		outcome = OutcomeFailed
	default:
		outcome = OutcomeRejected
	}
	p.recorder.ObservePublish(string(repo), outcome)
}
