package models

import "time"

// Envelope is the body of every read and direct-publish API response.
// Exactly one of Data and Error is set.
type Envelope struct {
	Data  any     `json:"data"`
	Error *string `json:"error"`
}

// ArtifactEntry is a child of a group: an artifact when it carries
// maven-metadata.xml, otherwise a subgroup.
type ArtifactEntry struct {
	Name       string `json:"name"`
	IsArtifact bool   `json:"isArtifact"`
}

// VersionEntry is a version annotated with the metadata pointers.
type VersionEntry struct {
	Version string `json:"version"`
	Latest  bool   `json:"latest"`
	Release bool   `json:"release"`
}

// FileEntry is a file stored in a version directory.
type FileEntry struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Uploaded time.Time `json:"uploaded"`
}

// PublishResult describes a file stored through the direct publish API.
type PublishResult struct {
	Key         string `json:"key"`
	FileName    string `json:"fileName"`
	Version     string `json:"version"`
	Timestamp   string `json:"timestamp,omitempty"`
	BuildNumber int    `json:"buildNumber,omitempty"`
}

// PurgeResult reports the keys removed by a purge and any per-repository
// failures.
type PurgeResult struct {
	Success bool     `json:"success"`
	Deleted []string `json:"deleted"`
	Errors  []string `json:"errors,omitempty"`
}
