package maven

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/foundry/mavenrepo/internal/core/services"
)

// LastUpdatedLayout is the layout of <lastUpdated> and <updated>.
const LastUpdatedLayout = "20060102150405"

// Metadata is a maven-metadata.xml document. The artifact-level document
// leaves Version empty; the version-level snapshot document sets it.
type Metadata struct {
	XMLName    xml.Name   `xml:"metadata"`
	GroupID    string     `xml:"groupId"`
	ArtifactID string     `xml:"artifactId"`
	Version    string     `xml:"version,omitempty"`
	Versioning Versioning `xml:"versioning"`
}

// Versioning holds the <versioning> element. Field order is the element
// order written by Maven.
type Versioning struct {
	Snapshot         *Snapshot
	LastUpdated      string
	SnapshotVersions []SnapshotVersion
	Versions         []string
	Latest           string
	Release          string
}

// versioningXML is the wire form of Versioning. The list wrappers are
// pointers so that empty lists leave no element behind.
type versioningXML struct {
	Snapshot         *Snapshot            `xml:"snapshot,omitempty"`
	LastUpdated      string               `xml:"lastUpdated,omitempty"`
	SnapshotVersions *snapshotVersionList `xml:"snapshotVersions,omitempty"`
	Versions         *versionList         `xml:"versions,omitempty"`
	Latest           string               `xml:"latest,omitempty"`
	Release          string               `xml:"release,omitempty"`
}

type snapshotVersionList struct {
	Items []SnapshotVersion `xml:"snapshotVersion"`
}

type versionList struct {
	Items []string `xml:"version"`
}

func (v Versioning) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	w := versioningXML{
		Snapshot:    v.Snapshot,
		LastUpdated: v.LastUpdated,
		Latest:      v.Latest,
		Release:     v.Release,
	}
	if len(v.SnapshotVersions) > 0 {
		w.SnapshotVersions = &snapshotVersionList{Items: v.SnapshotVersions}
	}
	if len(v.Versions) > 0 {
		w.Versions = &versionList{Items: v.Versions}
	}
	return e.EncodeElement(w, start)
}

func (v *Versioning) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var w versioningXML
	if err := d.DecodeElement(&w, &start); err != nil {
		return err
	}
	*v = Versioning{
		Snapshot:    w.Snapshot,
		LastUpdated: w.LastUpdated,
		Latest:      w.Latest,
		Release:     w.Release,
	}
	if w.SnapshotVersions != nil {
		v.SnapshotVersions = w.SnapshotVersions.Items
	}
	if w.Versions != nil {
		v.Versions = w.Versions.Items
	}
	return nil
}

// Snapshot is the current (timestamp, buildNumber) pair of a snapshot version.
type Snapshot struct {
	Timestamp   string `xml:"timestamp"`
	BuildNumber int    `xml:"buildNumber"`
}

// SnapshotVersion maps one extension/classifier to its resolved file version.
type SnapshotVersion struct {
	Classifier string `xml:"classifier,omitempty"`
	Extension  string `xml:"extension"`
	Value      string `xml:"value"`
	Updated    string `xml:"updated"`
}

// NewArtifactMetadata returns an empty artifact-level document.
func NewArtifactMetadata(groupID, artifactID string) *Metadata {
	return &Metadata{GroupID: groupID, ArtifactID: artifactID}
}

// NewVersionMetadata returns an empty version-level snapshot document.
func NewVersionMetadata(groupID, artifactID, version string) *Metadata {
	return &Metadata{GroupID: groupID, ArtifactID: artifactID, Version: version}
}

// ParseMetadata decodes and normalizes a maven-metadata.xml document.
func ParseMetadata(data []byte) (*Metadata, error) {
	var m Metadata
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", services.ErrInvalidMetadata, err)
	}
	m.normalize()
	return &m, nil
}

// normalize trims whitespace, drops empty and duplicate versions and makes
// latest/release members of the version list.
func (m *Metadata) normalize() {
	m.GroupID = strings.TrimSpace(m.GroupID)
	m.ArtifactID = strings.TrimSpace(m.ArtifactID)
	m.Version = strings.TrimSpace(m.Version)

	v := &m.Versioning
	v.Latest = strings.TrimSpace(v.Latest)
	v.Release = strings.TrimSpace(v.Release)
	v.LastUpdated = strings.TrimSpace(v.LastUpdated)

	versions := make([]string, 0, len(v.Versions)+2)
	for _, ver := range v.Versions {
		ver = strings.TrimSpace(ver)
		if ver != "" && !slices.Contains(versions, ver) {
			versions = append(versions, ver)
		}
	}
	for _, ptr := range []string{v.Release, v.Latest} {
		if ptr != "" && !slices.Contains(versions, ptr) {
			versions = append(versions, ptr)
		}
	}
	v.Versions = versions

	if v.Snapshot != nil {
		v.Snapshot.Timestamp = strings.TrimSpace(v.Snapshot.Timestamp)
	}
	for i := range v.SnapshotVersions {
		sv := &v.SnapshotVersions[i]
		sv.Classifier = strings.TrimSpace(sv.Classifier)
		sv.Extension = strings.TrimSpace(sv.Extension)
		sv.Value = strings.TrimSpace(sv.Value)
		sv.Updated = strings.TrimSpace(sv.Updated)
	}
}

// Marshal encodes the document with an XML header and two-space indentation.
func (m *Metadata) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// HasVersion reports whether version is listed.
func (m *Metadata) HasVersion(version string) bool {
	return slices.Contains(m.Versioning.Versions, version)
}

// AddVersion appends version if missing and stamps lastUpdated. It never
// removes a version.
func (m *Metadata) AddVersion(version string, now time.Time) {
	if !m.HasVersion(version) {
		m.Versioning.Versions = append(m.Versioning.Versions, version)
	}
	m.Versioning.LastUpdated = now.UTC().Format(LastUpdatedLayout)
}

// AddRelease records a newly published release. The new version always
// becomes latest and release; ordering is applied only at read time.
func (m *Metadata) AddRelease(version string, now time.Time) {
	m.AddVersion(version, now)
	m.Versioning.Latest = version
	m.Versioning.Release = version
}

// AddSnapshot records a snapshot version in artifact-level metadata. Only
// latest moves; release pointers never reference snapshots.
func (m *Metadata) AddSnapshot(version string, now time.Time) {
	m.AddVersion(version, now)
	m.Versioning.Latest = version
}

// Latest returns latest, falling back to release.
func (m *Metadata) Latest() (string, error) {
	if m.Versioning.Latest != "" {
		return m.Versioning.Latest, nil
	}
	if m.Versioning.Release != "" {
		return m.Versioning.Release, nil
	}
	return "", services.ErrNotDeterminable
}
