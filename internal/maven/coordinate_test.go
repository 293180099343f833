package maven

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/foundry/mavenrepo/internal/core/services"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want Coordinate
	}{
		{
			name: "release jar",
			path: "/releases/com/iamkaf/amber/1.0.0/amber-1.0.0.jar",
			want: Coordinate{Repository: Releases, GroupPath: "com/iamkaf", ArtifactID: "amber", Version: "1.0.0", FileName: "amber-1.0.0.jar"},
		},
		{
			name: "single segment group",
			path: "/releases/org/lib/2.1/lib-2.1.pom",
			want: Coordinate{Repository: Releases, GroupPath: "org", ArtifactID: "lib", Version: "2.1", FileName: "lib-2.1.pom"},
		},
		{
			name: "snapshot file",
			path: "/snapshots/com/iamkaf/amber/1.1-SNAPSHOT/amber-1.1-20240118.123456-1.jar",
			want: Coordinate{Repository: Snapshots, GroupPath: "com/iamkaf", ArtifactID: "amber", Version: "1.1-SNAPSHOT", FileName: "amber-1.1-20240118.123456-1.jar"},
		},
		{
			name: "snapshot version metadata",
			path: "/snapshots/com/iamkaf/amber/1.1-SNAPSHOT/maven-metadata.xml",
			want: Coordinate{Repository: Snapshots, GroupPath: "com/iamkaf", ArtifactID: "amber", Version: "1.1-SNAPSHOT", FileName: "maven-metadata.xml"},
		},
		{
			name: "artifact metadata three segments",
			path: "/snapshots/com/amber/maven-metadata.xml",
			want: Coordinate{Repository: Snapshots, GroupPath: "com", ArtifactID: "amber", FileName: "maven-metadata.xml"},
		},
		{
			name: "artifact metadata nested group",
			path: "/snapshots/com/iamkaf/amber/maven-metadata.xml.sha1",
			want: Coordinate{Repository: Snapshots, GroupPath: "com/iamkaf", ArtifactID: "amber", FileName: "maven-metadata.xml.sha1"},
		},
		{
			name: "release artifact metadata",
			path: "/releases/com/iamkaf/amber/maven-metadata.xml",
			want: Coordinate{Repository: Releases, GroupPath: "com/iamkaf", ArtifactID: "amber", FileName: "maven-metadata.xml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.path)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParsePathKeys(t *testing.T) {
	c, err := ParsePath("/releases/com/iamkaf/amber/1.0.0/amber-1.0.0.jar")
	require.NoError(t, err)
	require.Equal(t, "com.iamkaf", c.GroupID())
	require.Equal(t, "com/iamkaf/amber/1.0.0/amber-1.0.0.jar", c.Key())
	require.Equal(t, "releases/com/iamkaf/amber/1.0.0/amber-1.0.0.jar", c.StoreKey())

	meta, err := ParsePath("/snapshots/com/iamkaf/amber/maven-metadata.xml")
	require.NoError(t, err)
	require.True(t, meta.IsArtifactMetadata())
	require.Equal(t, "snapshots/com/iamkaf/amber/maven-metadata.xml", meta.StoreKey())
}

func TestParsePathMalformed(t *testing.T) {
	paths := []string{
		"/",
		"/releases",
		"/releases/amber/1.0/amber.jar",
		"/other/com/amber/1.0/amber-1.0.jar",
		"/releases/com//amber/1.0/amber-1.0.jar",
		"/releases/com/../amber/1.0/amber-1.0.jar",
		"/snapshots/amber/maven-metadata.xml",
	}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			_, err := ParsePath(p)
			require.ErrorIs(t, err, services.ErrMalformedPath)
		})
	}
}

func TestValidateExtension(t *testing.T) {
	for _, name := range []string{"a.jar", "a.pom", "a.module", "maven-metadata.xml", "a.jar.sha1", "a.jar.sha256", "a.jar.sha512", "a.jar.md5", "a.jar.asc"} {
		require.NoError(t, ValidateExtension(name), name)
	}
	for _, name := range []string{"a.war", "a.zip", "a", "a.exe"} {
		require.ErrorIs(t, ValidateExtension(name), services.ErrUnsupportedFileType, name)
	}
}

func TestFileClassification(t *testing.T) {
	require.True(t, IsPrimaryFile("amber-1.0.0.jar"))
	require.True(t, IsPrimaryFile("amber-1.0.0.pom"))
	require.True(t, IsPrimaryFile("amber-1.0.0-cyclonedx.xml"))
	require.False(t, IsPrimaryFile("amber-1.0.0.jar.sha1"))
	require.False(t, IsPrimaryFile("amber-1.0.0.jar.asc"))
	require.False(t, IsPrimaryFile("maven-metadata.xml"))
	require.False(t, IsPrimaryFile("maven-metadata.xml.md5"))
}

func TestArtifactFileName(t *testing.T) {
	a := Artifact{GroupID: "com.iamkaf", ArtifactID: "amber", Version: "1.0.0", Extension: "jar"}
	require.NoError(t, a.Validate())
	require.Equal(t, "amber-1.0.0.jar", a.FileName())
	require.Equal(t, "com/iamkaf/amber/1.0.0", a.VersionDir())

	a.Classifier = "sources"
	require.Equal(t, "amber-1.0.0-sources.jar", a.FileName())
}

func TestArtifactValidate(t *testing.T) {
	tests := []struct {
		name string
		a    Artifact
		want error
	}{
		{"missing group", Artifact{ArtifactID: "a", Version: "1", Extension: "jar"}, services.ErrInvalidRequest},
		{"missing extension", Artifact{GroupID: "g", ArtifactID: "a", Version: "1"}, services.ErrInvalidRequest},
		{"slash in artifact", Artifact{GroupID: "g", ArtifactID: "a/b", Version: "1", Extension: "jar"}, services.ErrMalformedPath},
		{"empty group segment", Artifact{GroupID: "com..x", ArtifactID: "a", Version: "1", Extension: "jar"}, services.ErrMalformedPath},
		{"bad extension", Artifact{GroupID: "g", ArtifactID: "a", Version: "1", Extension: "war"}, services.ErrUnsupportedFileType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.a.Validate(), tt.want)
		})
	}
}

func TestGroupIDRoundTrip(t *testing.T) {
	for _, g := range []string{"com", "com.iamkaf", "io.github.user.lib"} {
		require.Equal(t, g, PathToGroupID(GroupIDToPath(g)))
	}
}

func TestParseRepository(t *testing.T) {
	r, err := ParseRepository("")
	require.NoError(t, err)
	require.Equal(t, Releases, r)

	r, err = ParseRepository("snapshots")
	require.NoError(t, err)
	require.Equal(t, Snapshots, r)

	_, err = ParseRepository("staging")
	require.ErrorIs(t, err, services.ErrInvalidRequest)
}
