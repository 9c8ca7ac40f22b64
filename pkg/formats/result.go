package formats

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/aobake/pkg/aobake"
	"github.com/Faultbox/aobake/pkg/scene"
)

// Result is the YAML document written after a bake.
type Result struct {
	Params ResultParams `yaml:"params"`
	Meshes []MeshResult `yaml:"meshes"`
}

// ResultParams records the parameters a result was baked with.
type ResultParams struct {
	SampleRate float64 `yaml:"sample_rate"`
	Gamma      float64 `yaml:"gamma"`
	Exposure   float64 `yaml:"exposure"`
	Distance   float64 `yaml:"distance"`
}

// MeshResult holds the baked color buffer of one mesh node.
type MeshResult struct {
	Path     string    `yaml:"path"`
	Vertices int       `yaml:"vertices"`
	Colors   []float32 `yaml:"colors,flow,omitempty"`
	// RGBA is the clamped color buffer as hex-encoded RGBA8 bytes.
	RGBA string `yaml:"rgba,omitempty"`
}

// NewResult collects the color buffers of every mesh under root. When rgba
// is set each mesh also carries the RGBA8 encoding.
func NewResult(root *scene.Node, p aobake.Params, rgba bool) *Result {
	r := &Result{
		Params: ResultParams{
			SampleRate: p.SampleRate,
			Gamma:      p.Gamma,
			Exposure:   p.Exposure,
			Distance:   p.Distance,
		},
	}
	for _, node := range root.Meshes() {
		m := MeshResult{
			Path:     node.Path(),
			Vertices: node.Geometry.VertexCount(),
			Colors:   node.Geometry.Colors,
		}
		if rgba {
			m.RGBA = hex.EncodeToString(node.Geometry.ColorsRGBA8())
		}
		r.Meshes = append(r.Meshes, m)
	}
	return r
}

// Mesh returns the result for the mesh at path, or nil.
func (r *Result) Mesh(path string) *MeshResult {
	for i := range r.Meshes {
		if r.Meshes[i].Path == path {
			return &r.Meshes[i]
		}
	}
	return nil
}

// DecodeRGBA returns the RGBA8 bytes of the mesh, or nil when absent.
func (m *MeshResult) DecodeRGBA() ([]byte, error) {
	if m.RGBA == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(m.RGBA)
	if err != nil {
		return nil, fmt.Errorf("decoding rgba of %s: %w", m.Path, err)
	}
	return b, nil
}

// ParseResult decodes a result document.
func ParseResult(data []byte) (*Result, error) {
	var r Result
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	return &r, nil
}

// WriteResultFile writes r to path as YAML.
func WriteResultFile(path string, r *Result) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing result file: %w", err)
	}
	return nil
}
