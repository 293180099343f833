package maven

import (
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the UTC layout of a snapshot timestamp bucket.
const TimestampLayout = "20060102.150405"

// SnapshotBuild is the (timestamp, buildNumber) pair assigned to an upload.
type SnapshotBuild struct {
	Timestamp   string
	BuildNumber int
}

// NextSnapshotBuild derives the build for an upload at now from the existing
// version-level metadata, which may be nil. Within the same timestamp bucket
// the existing build number is incremented; any other bucket starts at 1.
func NextSnapshotBuild(existing *Metadata, now time.Time) SnapshotBuild {
	ts := now.UTC().Format(TimestampLayout)
	if existing != nil && existing.Versioning.Snapshot != nil && existing.Versioning.Snapshot.Timestamp == ts {
		return SnapshotBuild{Timestamp: ts, BuildNumber: existing.Versioning.Snapshot.BuildNumber + 1}
	}
	return SnapshotBuild{Timestamp: ts, BuildNumber: 1}
}

// Value returns the resolved file version, e.g. 1.0-20240118.123456-3 for 1.0-SNAPSHOT.
func (b SnapshotBuild) Value(version string) string {
	base := strings.TrimSuffix(version, SnapshotSuffix)
	return base + "-" + b.Timestamp + "-" + strconv.Itoa(b.BuildNumber)
}

// SnapshotFileName returns the timestamped file name of a snapshot upload.
func SnapshotFileName(a Artifact, b SnapshotBuild) string {
	return fileName(a.ArtifactID, b.Value(a.Version), a.Classifier, a.Extension)
}

// ApplySnapshotBuild records build in version-level metadata and upserts the
// snapshotVersion entry keyed by (extension, classifier).
func (m *Metadata) ApplySnapshotBuild(b SnapshotBuild, classifier, extension string, now time.Time) {
	updated := now.UTC().Format(LastUpdatedLayout)
	m.Versioning.Snapshot = &Snapshot{Timestamp: b.Timestamp, BuildNumber: b.BuildNumber}
	m.Versioning.LastUpdated = updated

	entry := SnapshotVersion{
		Classifier: classifier,
		Extension:  extension,
		Value:      b.Value(m.Version),
		Updated:    updated,
	}
	for i, sv := range m.Versioning.SnapshotVersions {
		if sv.Extension == extension && sv.Classifier == classifier {
			m.Versioning.SnapshotVersions[i] = entry
			return
		}
	}
	m.Versioning.SnapshotVersions = append(m.Versioning.SnapshotVersions, entry)
}
