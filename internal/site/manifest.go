package site

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/wolfeidau/sitepack/internal/assets"
	"github.com/wolfeidau/sitepack/internal/htmlgen"
)

// ManifestFile is the manifest's name inside the output directory.
const ManifestFile = "manifest.json"

// Manifest summarises one build.
type Manifest struct {
	BuildID string `json:"build_id"`
	// Fingerprint is the base58 encoded SHA256 of the esbuild metafile, stable
	// across builds of unchanged sources.
	Fingerprint string                   `json:"fingerprint"`
	CreatedAt   time.Time                `json:"created_at"`
	Entries     map[string]assets.Bundle `json:"entries"`
	Pages       []htmlgen.Page           `json:"pages"`
	Assets      []string                 `json:"assets"`
}

func NewManifest(metafile []byte, entries map[string]assets.Bundle, pages []htmlgen.Page, emitted []string) *Manifest {
	hash := sha256.Sum256(metafile)
	if emitted == nil {
		emitted = []string{}
	}
	return &Manifest{
		BuildID:     uuid.NewString(),
		Fingerprint: base58.Encode(hash[:]),
		CreatedAt:   time.Now().UTC(),
		Entries:     entries,
		Pages:       pages,
		Assets:      emitted,
	}
}

// Write stores the manifest as indented JSON.
func (m *Manifest) Write(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by Write.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}
