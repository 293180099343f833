package maven

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foundry/mavenrepo/internal/core/services"
)

func TestParseMetadata(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<metadata>
  <groupId>com.iamkaf</groupId>
  <artifactId>amber</artifactId>
  <versioning>
    <latest>1.1.0</latest>
    <release>1.1.0</release>
    <versions>
      <version>1.0.0</version>
      <version> 1.0.0 </version>
      <version>1.1.0</version>
    </versions>
    <lastUpdated>20240118123456</lastUpdated>
  </versioning>
</metadata>`

	m, err := ParseMetadata([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, "com.iamkaf", m.GroupID)
	require.Equal(t, "amber", m.ArtifactID)
	require.Equal(t, []string{"1.0.0", "1.1.0"}, m.Versioning.Versions)
	require.Equal(t, "1.1.0", m.Versioning.Latest)
}

func TestParseMetadataSingleVersion(t *testing.T) {
	doc := `<metadata><groupId>g</groupId><artifactId>a</artifactId><versioning><versions><version>1.0</version></versions></versioning></metadata>`
	m, err := ParseMetadata([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, []string{"1.0"}, m.Versioning.Versions)
}

func TestParseMetadataPointerNotListed(t *testing.T) {
	doc := `<metadata><groupId>g</groupId><artifactId>a</artifactId><versioning><release>2.0</release><versions><version>1.0</version></versions></versioning></metadata>`
	m, err := ParseMetadata([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, []string{"1.0", "2.0"}, m.Versioning.Versions)
}

func TestParseMetadataInvalid(t *testing.T) {
	for _, doc := range []string{"", "not xml", "<project></project>", "<metadata><groupId>"} {
		_, err := ParseMetadata([]byte(doc))
		require.ErrorIs(t, err, services.ErrInvalidMetadata, doc)
	}
}

func TestAddRelease(t *testing.T) {
	now := time.Date(2024, 1, 18, 12, 34, 56, 0, time.UTC)
	m := NewArtifactMetadata("com.iamkaf", "amber")

	m.AddRelease("1.1.0", now)
	m.AddRelease("1.0.5", now)
	m.AddRelease("1.1.0", now)

	require.Equal(t, []string{"1.1.0", "1.0.5"}, m.Versioning.Versions)
	require.Equal(t, "1.1.0", m.Versioning.Latest)
	require.Equal(t, "1.1.0", m.Versioning.Release)
	require.Equal(t, "20240118123456", m.Versioning.LastUpdated)
}

func TestAddSnapshotKeepsRelease(t *testing.T) {
	now := time.Now()
	m := NewArtifactMetadata("g", "a")
	m.AddRelease("1.0", now)
	m.AddSnapshot("1.1-SNAPSHOT", now)

	require.Equal(t, "1.1-SNAPSHOT", m.Versioning.Latest)
	require.Equal(t, "1.0", m.Versioning.Release)
}

func TestMetadataLatest(t *testing.T) {
	m := NewArtifactMetadata("g", "a")
	_, err := m.Latest()
	require.ErrorIs(t, err, services.ErrNotDeterminable)

	m.Versioning.Release = "1.0"
	v, err := m.Latest()
	require.NoError(t, err)
	require.Equal(t, "1.0", v)

	m.Versioning.Latest = "1.1"
	v, err = m.Latest()
	require.NoError(t, err)
	require.Equal(t, "1.1", v)
}

func TestMarshalElementOrder(t *testing.T) {
	now := time.Date(2024, 1, 18, 12, 34, 56, 0, time.UTC)
	m := NewVersionMetadata("com.iamkaf", "amber", "1.1-SNAPSHOT")
	m.ApplySnapshotBuild(NextSnapshotBuild(nil, now), "", "jar", now)
	m.AddVersion("1.1-SNAPSHOT", now)
	m.Versioning.Latest = "1.1-SNAPSHOT"

	data, err := m.Marshal()
	require.NoError(t, err)
	out := string(data)

	order := []string{
		"<metadata>", "<groupId>com.iamkaf</groupId>", "<artifactId>amber</artifactId>",
		"<version>1.1-SNAPSHOT</version>", "<versioning>", "<snapshot>",
		"<timestamp>20240118.123456</timestamp>", "<buildNumber>1</buildNumber>",
		"<lastUpdated>20240118123456</lastUpdated>", "<snapshotVersions>",
		"<value>1.1-20240118.123456-1</value>", "<versions>", "<latest>",
	}
	pos := 0
	for _, s := range order {
		idx := indexFrom(out, s, pos)
		require.GreaterOrEqual(t, idx, 0, "missing or out of order: %s\n%s", s, out)
		pos = idx
	}
	require.NotContains(t, out, "<release>")
	require.NotContains(t, out, "<classifier>")

	back, err := ParseMetadata(data)
	require.NoError(t, err)
	require.Equal(t, m.Versioning.Snapshot, back.Versioning.Snapshot)
	require.Equal(t, m.Versioning.SnapshotVersions, back.Versioning.SnapshotVersions)
}

func TestMarshalOmitsEmptyLists(t *testing.T) {
	data, err := NewArtifactMetadata("g", "a").Marshal()
	require.NoError(t, err)
	require.NotContains(t, string(data), "<versions>")
	require.NotContains(t, string(data), "<snapshotVersions>")

	m := NewVersionMetadata("g", "a", "1.0-SNAPSHOT")
	now := time.Date(2024, 1, 18, 12, 34, 56, 0, time.UTC)
	m.ApplySnapshotBuild(NextSnapshotBuild(nil, now), "", "jar", now)
	data, err = m.Marshal()
	require.NoError(t, err)
	require.Contains(t, string(data), "<snapshotVersions>")
	require.NotContains(t, string(data), "<versions>")

	back, err := ParseMetadata(data)
	require.NoError(t, err)
	require.Len(t, back.Versioning.SnapshotVersions, 1)
	require.Empty(t, back.Versioning.Versions)
}

func indexFrom(s, sub string, from int) int {
	for i := from; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
