// Package maven implements the Maven repository layout: repository path
// parsing, maven-metadata.xml documents, snapshot build sequencing and
// version ordering.
package maven

import (
	"fmt"
	"path"
	"strings"

	"github.com/foundry/mavenrepo/internal/core/services"
)

// Repository is a top-level root of the object namespace.
type Repository string

const (
	Releases  Repository = "releases"
	Snapshots Repository = "snapshots"
)

// Repositories lists every root in purge order.
var Repositories = []Repository{Releases, Snapshots}

// ParseRepository validates a repository name. An empty name selects Releases.
func ParseRepository(s string) (Repository, error) {
	switch Repository(s) {
	case "", Releases:
		return Releases, nil
	case Snapshots:
		return Snapshots, nil
	}
	return "", fmt.Errorf("%w: unknown repository %q", services.ErrInvalidRequest, s)
}

// Prefix returns the object key prefix of the repository, with trailing slash.
func (r Repository) Prefix() string {
	return string(r) + "/"
}

// MetadataFile is the file name of every Maven metadata document.
const MetadataFile = "maven-metadata.xml"

// SnapshotSuffix marks a snapshot version.
const SnapshotSuffix = "-SNAPSHOT"

// allowedExtensions are the file extensions accepted for upload.
var allowedExtensions = map[string]bool{
	".jar":    true,
	".pom":    true,
	".module": true,
	".xml":    true,
	".sha1":   true,
	".sha256": true,
	".sha512": true,
	".md5":    true,
	".asc":    true,
}

var checksumExtensions = map[string]bool{
	".sha1":   true,
	".sha256": true,
	".sha512": true,
	".md5":    true,
}

// Coordinate is a parsed repository path.
type Coordinate struct {
	Repository Repository
	GroupPath  string
	ArtifactID string
	// Version is empty for artifact-level metadata files.
	Version  string
	FileName string
}

// GroupID returns the dotted group identifier.
func (c Coordinate) GroupID() string {
	return PathToGroupID(c.GroupPath)
}

// IsArtifactMetadata reports whether the path addresses the artifact-level
// maven-metadata.xml (or one of its checksums).
func (c Coordinate) IsArtifactMetadata() bool {
	return c.Version == ""
}

// Key returns the object key relative to the repository root.
func (c Coordinate) Key() string {
	if c.IsArtifactMetadata() {
		return c.GroupPath + "/" + c.ArtifactID + "/" + c.FileName
	}
	return c.GroupPath + "/" + c.ArtifactID + "/" + c.Version + "/" + c.FileName
}

// StoreKey returns the full object key including the repository root.
func (c Coordinate) StoreKey() string {
	return c.Repository.Prefix() + c.Key()
}

// ParsePath parses /{releases|snapshots}/{group...}/{artifactId}/{version}/{file}
// and the artifact-level form /{repo}/{group...}/{artifactId}/maven-metadata.xml.
func ParsePath(p string) (Coordinate, error) {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for _, s := range segments {
		if s == "" || s == "." || s == ".." {
			return Coordinate{}, fmt.Errorf("%w: %s", services.ErrMalformedPath, p)
		}
	}
	if len(segments) < 2 {
		return Coordinate{}, fmt.Errorf("%w: %s", services.ErrMalformedPath, p)
	}

	var repo Repository
	switch Repository(segments[0]) {
	case Releases, Snapshots:
		repo = Repository(segments[0])
	default:
		return Coordinate{}, fmt.Errorf("%w: unknown repository in %s", services.ErrMalformedPath, p)
	}

	rest := segments[1:]
	n := len(rest)
	file := rest[n-1]

	// Artifact-level metadata has no version directory. With a nested group
	// path the shape is indistinguishable from a versioned path, so the
	// parent segment decides: release versions never carry metadata files.
	if IsMetadataFile(file) && n >= 3 {
		parent := rest[n-2]
		if n == 3 || repo == Releases || !strings.HasSuffix(parent, SnapshotSuffix) {
			return Coordinate{
				Repository: repo,
				GroupPath:  strings.Join(rest[:n-2], "/"),
				ArtifactID: parent,
				FileName:   file,
			}, nil
		}
	}

	if n < 4 {
		return Coordinate{}, fmt.Errorf("%w: expected group/artifact/version/file in %s", services.ErrMalformedPath, p)
	}

	return Coordinate{
		Repository: repo,
		GroupPath:  strings.Join(rest[:n-3], "/"),
		ArtifactID: rest[n-3],
		Version:    rest[n-2],
		FileName:   file,
	}, nil
}

// ValidateExtension returns ErrUnsupportedFileType unless the file name has
// an accepted upload extension.
func ValidateExtension(fileName string) error {
	if !allowedExtensions[strings.ToLower(path.Ext(fileName))] {
		return fmt.Errorf("%w: %s", services.ErrUnsupportedFileType, fileName)
	}
	return nil
}

// IsChecksumFile reports whether the file is a checksum sidecar.
func IsChecksumFile(fileName string) bool {
	return checksumExtensions[strings.ToLower(path.Ext(fileName))]
}

// IsSignatureFile reports whether the file is a detached PGP signature.
func IsSignatureFile(fileName string) bool {
	return strings.EqualFold(path.Ext(fileName), ".asc")
}

// IsMetadataFile reports whether the file is maven-metadata.xml or one of its
// checksum or signature sidecars.
func IsMetadataFile(fileName string) bool {
	return fileName == MetadataFile || strings.HasPrefix(fileName, MetadataFile+".")
}

// IsPrimaryFile reports whether the file is subject to release immutability.
func IsPrimaryFile(fileName string) bool {
	return !IsChecksumFile(fileName) && !IsSignatureFile(fileName) && !IsMetadataFile(fileName)
}

// IsSnapshotVersion reports whether version ends with -SNAPSHOT.
func IsSnapshotVersion(version string) bool {
	return strings.HasSuffix(version, SnapshotSuffix)
}

// GroupIDToPath converts a dotted group ID to its slash-delimited path.
func GroupIDToPath(groupID string) string {
	return strings.ReplaceAll(groupID, ".", "/")
}

// PathToGroupID converts a slash-delimited group path to a dotted group ID.
func PathToGroupID(groupPath string) string {
	return strings.ReplaceAll(groupPath, "/", ".")
}

// Artifact identifies a single file of an artifact version for the
// server-computed publish path.
type Artifact struct {
	GroupID    string
	ArtifactID string
	Version    string
	Classifier string
	Extension  string
}

// Validate checks the fields required to derive a storage key.
func (a Artifact) Validate() error {
	required := []struct{ name, value string }{
		{"group", a.GroupID},
		{"artifact", a.ArtifactID},
		{"version", a.Version},
		{"extension", a.Extension},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%w: %s is required", services.ErrInvalidRequest, f.name)
		}
	}
	for _, v := range []string{a.ArtifactID, a.Version, a.Classifier, a.Extension} {
		if strings.ContainsAny(v, "/\\") || v == "." || v == ".." {
			return fmt.Errorf("%w: %q", services.ErrMalformedPath, v)
		}
	}
	for _, seg := range strings.Split(a.GroupID, ".") {
		if seg == "" || strings.ContainsAny(seg, "/\\") {
			return fmt.Errorf("%w: group %q", services.ErrMalformedPath, a.GroupID)
		}
	}
	return ValidateExtension("x." + a.Extension)
}

// GroupPath returns the group ID as a path.
func (a Artifact) GroupPath() string {
	return GroupIDToPath(a.GroupID)
}

// FileName returns the release file name {artifactId}-{version}[-{classifier}].{ext}.
func (a Artifact) FileName() string {
	return fileName(a.ArtifactID, a.Version, a.Classifier, a.Extension)
}

// VersionDir returns the version directory key relative to the repository root.
func (a Artifact) VersionDir() string {
	return a.GroupPath() + "/" + a.ArtifactID + "/" + a.Version
}

// ArtifactDir returns the artifact directory key relative to the repository root.
func (a Artifact) ArtifactDir() string {
	return a.GroupPath() + "/" + a.ArtifactID
}

func fileName(artifactID, version, classifier, ext string) string {
	name := artifactID + "-" + version
	if classifier != "" {
		name += "-" + classifier
	}
	return name + "." + ext
}

// ContentType returns the HTTP content type served for a repository file.
func ContentType(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".jar":
		return "application/java-archive"
	case ".pom", ".xml":
		return "application/xml"
	case ".module":
		return "application/json"
	case ".asc":
		return "application/pgp-signature"
	case ".sha1", ".sha256", ".sha512", ".md5":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
