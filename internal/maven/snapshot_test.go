package maven

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNextSnapshotBuild(t *testing.T) {
	t0 := time.Date(2024, 1, 18, 12, 34, 56, 100, time.UTC)

	first := NextSnapshotBuild(nil, t0)
	require.Equal(t, SnapshotBuild{Timestamp: "20240118.123456", BuildNumber: 1}, first)

	m := NewVersionMetadata("g", "a", "1.0-SNAPSHOT")
	m.ApplySnapshotBuild(first, "", "jar", t0)

	same := NextSnapshotBuild(m, t0.Add(500*time.Millisecond))
	require.Equal(t, SnapshotBuild{Timestamp: "20240118.123456", BuildNumber: 2}, same)

	m.ApplySnapshotBuild(same, "", "pom", t0)
	later := NextSnapshotBuild(m, t0.Add(2*time.Second))
	require.Equal(t, SnapshotBuild{Timestamp: "20240118.123458", BuildNumber: 1}, later)
}

func TestNextSnapshotBuildUsesUTC(t *testing.T) {
	loc := time.FixedZone("plus10", 10*60*60)
	local := time.Date(2024, 1, 18, 22, 0, 0, 0, loc)
	require.Equal(t, "20240118.120000", NextSnapshotBuild(nil, local).Timestamp)
}

func TestSnapshotFileName(t *testing.T) {
	b := SnapshotBuild{Timestamp: "20240118.123456", BuildNumber: 3}
	a := Artifact{GroupID: "com.iamkaf", ArtifactID: "amber", Version: "1.1-SNAPSHOT", Extension: "jar"}
	require.Equal(t, "amber-1.1-20240118.123456-3.jar", SnapshotFileName(a, b))

	a.Classifier = "sources"
	require.Equal(t, "amber-1.1-20240118.123456-3-sources.jar", SnapshotFileName(a, b))
}

func TestApplySnapshotBuildUpserts(t *testing.T) {
	now := time.Date(2024, 1, 18, 12, 34, 56, 0, time.UTC)
	m := NewVersionMetadata("g", "a", "1.0-SNAPSHOT")

	m.ApplySnapshotBuild(SnapshotBuild{"20240118.123456", 1}, "", "jar", now)
	m.ApplySnapshotBuild(SnapshotBuild{"20240118.123456", 2}, "", "pom", now)
	m.ApplySnapshotBuild(SnapshotBuild{"20240118.123456", 3}, "sources", "jar", now)
	m.ApplySnapshotBuild(SnapshotBuild{"20240118.123456", 4}, "", "jar", now)

	require.Len(t, m.Versioning.SnapshotVersions, 3)
	require.Equal(t, "1.0-20240118.123456-4", m.Versioning.SnapshotVersions[0].Value)
	require.Equal(t, "1.0-20240118.123456-2", m.Versioning.SnapshotVersions[1].Value)
	require.Equal(t, "sources", m.Versioning.SnapshotVersions[2].Classifier)
	require.Equal(t, 4, m.Versioning.Snapshot.BuildNumber)
}
