package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/foundry/mavenrepo/internal/core/models"
	"github.com/foundry/mavenrepo/internal/core/services"
	"github.com/foundry/mavenrepo/internal/maven"
)

const (
	delimiter  = "/"
	probeLimit = 8
)

// Catalog answers hierarchy queries for one repository root. The store it
// is given presents that root as its top level.
type Catalog struct {
	store services.ObjectStore
}

// Catalogs holds one Catalog per repository root.
type Catalogs map[maven.Repository]*Catalog

// For returns the catalog for repo.
func (c Catalogs) For(repo maven.Repository) (*Catalog, error) {
	cat, ok := c[repo]
	if !ok {
		return nil, fmt.Errorf("%w: unknown repository %q", services.ErrInvalidRequest, repo)
	}
	return cat, nil
}

// NewCatalog creates a Catalog over a root-scoped store.
func NewCatalog(store services.ObjectStore) *Catalog {
	return &Catalog{store: store}
}

// ListGroups returns the top-level path segments, excluding dot-prefixed
// entries.
func (c *Catalog) ListGroups(ctx context.Context) ([]string, error) {
	_, prefixes, err := c.listAll(ctx, "", delimiter)
	if err != nil {
		return nil, err
	}
	groups := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		name := strings.TrimSuffix(p, delimiter)
		if name == "" || strings.HasPrefix(name, ".") {
			continue
		}
		groups = append(groups, name)
	}
	sort.Strings(groups)
	return groups, nil
}

// ListArtifacts returns the immediate children of a group, each classified
// as an artifact when it holds a maven-metadata.xml and as a subgroup
// otherwise.
func (c *Catalog) ListArtifacts(ctx context.Context, groupID string) ([]models.ArtifactEntry, error) {
	if err := requireParam("group", groupID); err != nil {
		return nil, err
	}
	base := maven.GroupIDToPath(groupID) + delimiter
	_, prefixes, err := c.listAll(ctx, base, delimiter)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		name := strings.TrimSuffix(strings.TrimPrefix(p, base), delimiter)
		if name == "" || strings.HasPrefix(name, ".") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]models.ArtifactEntry, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(probeLimit)
	for i, name := range names {
		g.Go(func() error {
			ok, err := c.store.Head(gctx, base+name+delimiter+maven.MetadataFile)
			if err != nil {
				return err
			}
			entries[i] = models.ArtifactEntry{Name: name, IsArtifact: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListVersions returns the versions recorded in the artifact metadata,
// newest first, annotated with the latest and release pointers.
func (c *Catalog) ListVersions(ctx context.Context, groupID, artifactID string) ([]models.VersionEntry, error) {
	meta, err := c.artifactMetadata(ctx, groupID, artifactID)
	if err != nil {
		return nil, err
	}

	versions := append([]string(nil), meta.Versioning.Versions...)
	maven.SortVersions(versions, true)

	entries := make([]models.VersionEntry, 0, len(versions))
	for _, v := range versions {
		entries = append(entries, models.VersionEntry{
			Version: v,
			Latest:  v == meta.Versioning.Latest,
			Release: v == meta.Versioning.Release,
		})
	}
	return entries, nil
}

// ListFiles returns the files stored under a version directory.
func (c *Catalog) ListFiles(ctx context.Context, groupID, artifactID, version string) ([]models.FileEntry, error) {
	if err := requireParam("group", groupID); err != nil {
		return nil, err
	}
	if err := requireParam("artifact", artifactID); err != nil {
		return nil, err
	}
	if err := requireParam("version", version); err != nil {
		return nil, err
	}

	base := strings.Join([]string{maven.GroupIDToPath(groupID), artifactID, version}, delimiter) + delimiter
	objects, _, err := c.listAll(ctx, base, delimiter)
	if err != nil {
		return nil, err
	}

	files := make([]models.FileEntry, 0, len(objects))
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Key, base)
		if name == "" || strings.HasPrefix(name, ".") {
			continue
		}
		files = append(files, models.FileEntry{Name: name, Size: obj.Size, Uploaded: obj.LastModified})
	}
	return files, nil
}

// Latest returns the latest pointer of the artifact metadata, falling back
// to release.
func (c *Catalog) Latest(ctx context.Context, groupID, artifactID string) (string, error) {
	meta, err := c.artifactMetadata(ctx, groupID, artifactID)
	if err != nil {
		return "", err
	}
	return meta.Latest()
}

// Get returns the raw object at a key relative to the root.
func (c *Catalog) Get(ctx context.Context, key string) (*services.Object, error) {
	return c.store.Get(ctx, key)
}

func (c *Catalog) artifactMetadata(ctx context.Context, groupID, artifactID string) (*maven.Metadata, error) {
	if err := requireParam("group", groupID); err != nil {
		return nil, err
	}
	if err := requireParam("artifact", artifactID); err != nil {
		return nil, err
	}

	key := strings.Join([]string{maven.GroupIDToPath(groupID), artifactID, maven.MetadataFile}, delimiter)
	obj, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, fmt.Errorf("artifact %s:%s %w", groupID, artifactID, services.ErrNotFound)
		}
		return nil, err
	}
	return maven.ParseMetadata(obj.Data)
}

// listAll follows the cursor until the listing is no longer truncated.
func (c *Catalog) listAll(ctx context.Context, prefix, delim string) ([]services.ObjectInfo, []string, error) {
	var (
		objects  []services.ObjectInfo
		prefixes []string
		cursor   string
	)
	for {
		res, err := c.store.List(ctx, services.ListOptions{Prefix: prefix, Delimiter: delim, Cursor: cursor})
		if err != nil {
			return nil, nil, err
		}
		objects = append(objects, res.Objects...)
		prefixes = append(prefixes, res.CommonPrefixes...)
		if !res.Truncated || res.NextCursor == "" {
			return objects, prefixes, nil
		}
		cursor = res.NextCursor
	}
}

func requireParam(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: missing %s parameter", services.ErrInvalidRequest, name)
	}
	return nil
}
