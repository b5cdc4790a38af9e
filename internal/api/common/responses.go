package common

import (
	"github.com/mquery-dev/api/pkg/archlist"
)

// ServiceLookupResult is the lookup outcome for one compose service.
// Exactly one of Payload and Error is set.
type ServiceLookupResult struct {
	Service string               `json:"service"`
	Image   string               `json:"image"`
	Payload *archlist.CacheEntry `json:"payload,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// ComposeLookupResponse contains the per-service results of a compose lookup
type ComposeLookupResponse struct {
	Results  []ServiceLookupResult `json:"results"`
	Skipped  []string              `json:"skipped,omitempty"` // services with a build but no image
	Warnings []string              `json:"warnings,omitempty"`
}

// HealthInfo is returned by /health?info=true
type HealthInfo struct {
	APIID string `json:"api_id"`
}
