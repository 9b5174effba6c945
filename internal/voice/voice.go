// Package voice manages the voice-style assets that condition synthesis.
// Voices are listed in a JSON manifest; each entry points at a raw float32
// little-endian style file holding one 256-wide vector per token count.
package voice

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// StyleDim is the width of one style vector.
const StyleDim = 256

// MaxRows is the number of style rows in a full voice file, one per possible
// token count of a synthesis step.
const MaxRows = 510

// Voice describes one entry of the manifest.
type Voice struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	Lang    string `json:"lang,omitempty"`
	License string `json:"license,omitempty"`
}

type manifest struct {
	Voices []Voice `json:"voices"`
}

// Manager resolves voice ids to loaded style tables.
type Manager struct {
	baseDir string
	voices  []Voice
	byID    map[string]Voice
}

// NewManager reads and validates the voice manifest.
func NewManager(manifestPath string) (*Manager, error) {
	if manifestPath == "" {
		return nil, errors.New("manifest path is required")
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read voice manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode voice manifest: %w", err)
	}

	mgr := &Manager{
		baseDir: filepath.Dir(manifestPath),
		voices:  append([]Voice(nil), m.Voices...),
		byID:    make(map[string]Voice, len(m.Voices)),
	}

	for _, v := range m.Voices {
		if v.ID == "" {
			return nil, errors.New("voice manifest contains empty id")
		}
		if v.Path == "" {
			return nil, fmt.Errorf("voice %q has empty path", v.ID)
		}
		if _, exists := mgr.byID[v.ID]; exists {
			return nil, fmt.Errorf("duplicate voice id %q", v.ID)
		}
		mgr.byID[v.ID] = v
	}

	return mgr, nil
}

// List returns all manifest entries.
func (m *Manager) List() []Voice {
	return append([]Voice(nil), m.voices...)
}

// ResolvePath returns the absolute style file path for a voice id.
func (m *Manager) ResolvePath(id string) (string, error) {
	v, ok := m.byID[id]
	if !ok {
		return "", fmt.Errorf("unknown voice id %q", id)
	}

	resolved := v.Path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(m.baseDir, resolved)
	}
	resolved = filepath.Clean(resolved)

	if _, err := os.Stat(resolved); err != nil {
		return "", fmt.Errorf("voice file for %q: %w", id, err)
	}

	return resolved, nil
}

// Load resolves and loads the style table for a voice id.
func (m *Manager) Load(id string) (*Style, error) {
	path, err := m.ResolvePath(id)
	if err != nil {
		return nil, err
	}
	return LoadStyle(path)
}

// Style is a loaded voice-style table. Row i conditions a step of i+1
// tokens; single-row files apply one vector to every step.
type Style struct {
	rows [][]float32
}

// LoadStyle reads a raw float32 little-endian style file. The file must hold
// a whole number of 256-wide rows.
func LoadStyle(path string) (*Style, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read style file: %w", err)
	}

	if len(data) == 0 || len(data)%(StyleDim*4) != 0 {
		return nil, fmt.Errorf("style file %s: %d bytes is not a whole number of %d-float rows", path, len(data), StyleDim)
	}

	n := len(data) / (StyleDim * 4)
	if n > MaxRows {
		return nil, fmt.Errorf("style file %s: %d rows exceeds maximum %d", path, n, MaxRows)
	}

	rows := make([][]float32, n)
	for i := range rows {
		row := make([]float32, StyleDim)
		for j := range row {
			bits := binary.LittleEndian.Uint32(data[(i*StyleDim+j)*4:])
			row[j] = math.Float32frombits(bits)
		}
		rows[i] = row
	}

	return &Style{rows: rows}, nil
}

// Rows returns the number of style rows.
func (s *Style) Rows() int { return len(s.rows) }

// Vector returns the style row conditioning a step of the given token
// count. Counts beyond the table clamp to the last row.
func (s *Style) Vector(tokenCount int) []float32 {
	idx := tokenCount - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(s.rows) {
		idx = len(s.rows) - 1
	}
	return s.rows[idx]
}
