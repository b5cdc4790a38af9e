// Package archlist answers which platforms an image supports, using a
// document store as a time-bounded cache in front of a manifest inspector.
package archlist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/go-containerregistry/pkg/v1/types"
)

// YesNo is a boolean serialized as "Yes" or "No"
type YesNo bool

// MarshalJSON implements json.Marshaler
func (y YesNo) MarshalJSON() ([]byte, error) {
	if y {
		return []byte(`"Yes"`), nil
	}
	return []byte(`"No"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (y *YesNo) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("manifestList must be a string: %w", err)
	}
	switch s {
	case "Yes":
		*y = true
	case "No", "":
		*y = false
	default:
		return fmt.Errorf("manifestList must be Yes or No, got %q", s)
	}
	return nil
}

// String returns "Yes" or "No"
func (y YesNo) String() string {
	if y {
		return "Yes"
	}
	return "No"
}

// CacheEntry is the cached platform summary of one image.
// ManifestList discriminates the two shapes: ArchList is set for manifest
// lists, Platform for single manifests.
type CacheEntry struct {
	ID           string   `json:"_id"`
	Rev          string   `json:"_rev,omitempty"`
	CacheTime    int64    `json:"cachetime"` // unix milliseconds
	ManifestList YesNo    `json:"manifestList"`
	Tag          string   `json:"tag,omitempty"`
	RepoTags     []string `json:"repoTags,omitempty"`
	ArchList     []string `json:"archList,omitempty"`
	Platform     string   `json:"Platform,omitempty"`
}

// MarshalJSON writes archList for every manifest list, empty or not
func (e CacheEntry) MarshalJSON() ([]byte, error) {
	type plain CacheEntry
	if !e.ManifestList {
		return json.Marshal(plain(e))
	}
	archList := e.ArchList
	if archList == nil {
		archList = []string{}
	}
	return json.Marshal(struct {
		plain
		ArchList []string `json:"archList"`
	}{plain(e), archList})
}

// Platforms returns the supported platform strings regardless of shape
func (e *CacheEntry) Platforms() []string {
	if e.ManifestList {
		return e.ArchList
	}
	if e.Platform == "" {
		return nil
	}
	return []string{e.Platform}
}

// ManifestPlatform is the platform object of a manifest list entry
type ManifestPlatform struct {
	Architecture string `json:"architecture"`
	OS           string `json:"os"`
	Variant      string `json:"variant,omitempty"`
}

// ManifestEntry is one record of raw manifest inspection output.
// List entries carry Platform; single-manifest entries carry Architecture and Os.
type ManifestEntry struct {
	MediaType    string            `json:"MediaType"`
	RepoTags     []string          `json:"RepoTags,omitempty"`
	Tag          string            `json:"Tag,omitempty"`
	Platform     *ManifestPlatform `json:"Platform,omitempty"`
	Architecture string            `json:"Architecture,omitempty"`
	Os           string            `json:"Os,omitempty"`
}

// RawManifestData is the ordered inspection output for one image
type RawManifestData []ManifestEntry

// IsManifestListMediaType reports whether mediaType marks a manifest list
func IsManifestListMediaType(mediaType string) bool {
	switch types.MediaType(mediaType) {
	case types.DockerManifestList, types.OCIImageIndex:
		return true
	}
	return false
}

// Inspector fetches raw manifest data for an image from the source of truth
type Inspector interface {
	Inspect(ctx context.Context, image string) (RawManifestData, error)
}
