package models

import (
	"crypto/sha256"
	"encoding/hex"
)

type Destination struct {
	ID     string            `json:"ID,omitempty"`
	Name   string            `json:"Name,omitempty"`
	Config DestinationConfig `json:"Config"`
}

type DestinationConfig struct {
	APIKey string `json:"apiKey"`
	HubID  string `json:"hubID"`
}

// CacheKey identifies the HubSpot account behind the destination's
// credential without exposing the credential itself.
func (d Destination) CacheKey() string {
	sum := sha256.Sum256([]byte(d.Config.APIKey))
	return hex.EncodeToString(sum[:16])
}
