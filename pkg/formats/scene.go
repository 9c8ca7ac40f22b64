package formats

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/aobake/pkg/scene"
)

// SceneVersion is the newest scene file version understood by ParseScene.
const SceneVersion = 1

// Scene file errors.
var (
	ErrUnsupportedSceneVersion = errors.New("unsupported scene version")
	ErrUnknownShape            = errors.New("unknown mesh shape")
	ErrInvalidMesh             = errors.New("invalid mesh description")
)

// SceneFile is the YAML scene description:
//
//	version: 1
//	root:
//	  name: room
//	  children:
//	    - name: floor
//	      mesh: {shape: plane, size: [10, 10], segments: 4}
//	    - name: crate
//	      position: [0, 0.5, 0]
//	      rotation: {axis: [0, 1, 0], degrees: 30}
//	      mesh: {shape: box}
type SceneFile struct {
	Version int      `yaml:"version"`
	Root    NodeDesc `yaml:"root"`
}

// NodeDesc describes one node and its subtree.
type NodeDesc struct {
	Name     string        `yaml:"name"`
	Position [3]float64    `yaml:"position,flow,omitempty"`
	Rotation *RotationDesc `yaml:"rotation,omitempty"`
	Scale    *[3]float64   `yaml:"scale,flow,omitempty"`
	Mesh     *MeshDesc     `yaml:"mesh,omitempty"`
	Children []NodeDesc    `yaml:"children,omitempty"`
}

// RotationDesc is an axis-angle rotation.
type RotationDesc struct {
	Axis    [3]float64 `yaml:"axis,flow"`
	Degrees float64    `yaml:"degrees"`
}

// MeshDesc is either a built-in shape or explicit vertex buffers.
type MeshDesc struct {
	// Shape is one of quad, plane or box. Size holds [size] for a quad,
	// [width, depth] for a plane and [width, height, depth] for a box; a
	// single value is used for every dimension.
	Shape    string    `yaml:"shape,omitempty"`
	Size     []float64 `yaml:"size,flow,omitempty"`
	Segments int       `yaml:"segments,omitempty"`

	Positions []float32 `yaml:"positions,flow,omitempty"`
	Normals   []float32 `yaml:"normals,flow,omitempty"`
	Indices   []uint32  `yaml:"indices,flow,omitempty"`

	// SmoothNormals, when positive, averages normals of vertices closer
	// than this distance.
	SmoothNormals float64 `yaml:"smooth_normals,omitempty"`
}

// ParseScene decodes a YAML scene description into a node tree.
func ParseScene(data []byte) (*scene.Node, error) {
	var f SceneFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding scene: %w", err)
	}
	if f.Version > SceneVersion || f.Version < 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSceneVersion, f.Version)
	}
	return BuildNode(f.Root)
}

// ParseSceneFile parses a scene file from disk.
func ParseSceneFile(path string) (*scene.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}
	return ParseScene(data)
}

// BuildNode converts a description into a node tree.
func BuildNode(desc NodeDesc) (*scene.Node, error) {
	n := scene.NewNode(desc.Name)
	n.Position = mgl64.Vec3(desc.Position)
	if desc.Rotation != nil {
		n.SetRotation(mgl64.Vec3(desc.Rotation.Axis), desc.Rotation.Degrees)
	}
	if desc.Scale != nil {
		n.Scale = mgl64.Vec3(*desc.Scale)
	}

	if desc.Mesh != nil {
		g, err := buildGeometry(desc.Mesh)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", desc.Name, err)
		}
		n.Geometry = g
	}

	for i, child := range desc.Children {
		c, err := BuildNode(child)
		if err != nil {
			return nil, fmt.Errorf("child %d of %q: %w", i, desc.Name, err)
		}
		n.Add(c)
	}
	return n, nil
}

func buildGeometry(m *MeshDesc) (*scene.Geometry, error) {
	var g *scene.Geometry
	var err error
	if m.Shape != "" {
		g, err = buildShape(m)
	} else {
		g, err = buildBuffers(m)
	}
	if err != nil {
		return nil, err
	}

	if m.SmoothNormals > 0 {
		g.SmoothNormals(m.SmoothNormals)
	}
	g.NeedsUpdate = false
	return g, nil
}

func buildShape(m *MeshDesc) (*scene.Geometry, error) {
	if len(m.Positions) > 0 {
		return nil, fmt.Errorf("%w: shape %q with explicit positions", ErrInvalidMesh, m.Shape)
	}
	for _, s := range m.Size {
		if !(s > 0) {
			return nil, fmt.Errorf("%w: non-positive size %v", ErrInvalidMesh, s)
		}
	}

	switch m.Shape {
	case "quad":
		size, err := dims(m.Size, 1)
		if err != nil {
			return nil, err
		}
		return scene.NewQuad(size[0]), nil
	case "plane":
		size, err := dims(m.Size, 2)
		if err != nil {
			return nil, err
		}
		return scene.NewPlane(size[0], size[1], m.Segments), nil
	case "box":
		size, err := dims(m.Size, 3)
		if err != nil {
			return nil, err
		}
		return scene.NewBox(size[0], size[1], size[2]), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownShape, m.Shape)
	}
}

// dims expands size to n values; empty means unit, one value is repeated.
func dims(size []float64, n int) ([]float64, error) {
	out := make([]float64, n)
	switch len(size) {
	case 0:
		for i := range out {
			out[i] = 1
		}
	case 1:
		for i := range out {
			out[i] = size[0]
		}
	case n:
		copy(out, size)
	default:
		return nil, fmt.Errorf("%w: size needs 1 or %d values, got %d", ErrInvalidMesh, n, len(size))
	}
	return out, nil
}

func buildBuffers(m *MeshDesc) (*scene.Geometry, error) {
	if len(m.Positions) == 0 || len(m.Positions)%3 != 0 {
		return nil, fmt.Errorf("%w: %d position floats", ErrInvalidMesh, len(m.Positions))
	}
	if len(m.Normals) > 0 && len(m.Normals) != len(m.Positions) {
		return nil, fmt.Errorf("%w: %d normal floats for %d position floats", ErrInvalidMesh, len(m.Normals), len(m.Positions))
	}

	g := &scene.Geometry{
		Positions: m.Positions,
		Normals:   m.Normals,
		Indices:   m.Indices,
	}
	if len(g.Normals) > 0 {
		if g.Indices != nil {
			// Catch bad indices now rather than at bake time
			if _, err := g.ToNonIndexed(); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidMesh, err)
			}
		}
		return g, nil
	}

	// Face normals need one normal per triangle corner
	flat, err := g.ToNonIndexed()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMesh, err)
	}
	if flat.VertexCount()%3 != 0 {
		return nil, fmt.Errorf("%w: %d vertices do not form triangles", ErrInvalidMesh, flat.VertexCount())
	}
	flat.ComputeFlatNormals()
	return flat, nil
}
