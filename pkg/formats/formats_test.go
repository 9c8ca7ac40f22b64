package formats

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/aobake/pkg/geom"
)

const roomScene = `
version: 1
root:
  name: room
  children:
    - name: floor
      mesh: {shape: plane, size: [10, 6], segments: 2}
    - name: crate
      position: [1, 0.5, -2]
      rotation: {axis: [0, 1, 0], degrees: 90}
      scale: [2, 1, 1]
      mesh: {shape: box}
      children:
        - name: lid
          position: [0, 0.5, 0]
          mesh: {shape: quad, size: [0.5]}
    - name: tri
      mesh:
        positions: [0, 0, 0, 1, 0, 0, 0, 0, 1]
`

func TestParseScene(t *testing.T) {
	root, err := ParseScene([]byte(roomScene))
	if err != nil {
		t.Fatalf("ParseScene failed: %v", err)
	}

	if root.Name != "room" {
		t.Errorf("expected root 'room', got %q", root.Name)
	}
	meshes := root.Meshes()
	if len(meshes) != 4 {
		t.Fatalf("expected 4 meshes, got %d", len(meshes))
	}

	floor := root.Find("floor")
	if got := floor.Geometry.TriangleCount(); got != 8 {
		t.Errorf("floor: expected 8 triangles, got %d", got)
	}
	if box := floor.Geometry.Bounds(); box.Max[0] != 5 || box.Max[2] != 3 {
		t.Errorf("floor: unexpected bounds %v", box)
	}

	crate := root.Find("crate")
	if crate.Position != (mgl64.Vec3{1, 0.5, -2}) {
		t.Errorf("crate: unexpected position %v", crate.Position)
	}
	if crate.Scale != (mgl64.Vec3{2, 1, 1}) {
		t.Errorf("crate: unexpected scale %v", crate.Scale)
	}
	if got := crate.Geometry.TriangleCount(); got != 12 {
		t.Errorf("crate: expected 12 triangles, got %d", got)
	}

	lid := root.Find("crate/lid")
	if lid == nil {
		t.Fatal("crate/lid not found")
	}
	if lid.Path() != "room/crate/lid" {
		t.Errorf("unexpected lid path %q", lid.Path())
	}

	// Rotation of 90 degrees about Y maps +X onto -Z before scaling by 2
	root.UpdateWorldMatrix()
	p := geom.TransformPoint(crate.WorldMatrix(), mgl64.Vec3{0.5, 0, 0})
	if !p.ApproxEqualThreshold(mgl64.Vec3{1, 0.5, -3}, 1e-9) {
		t.Errorf("crate: unexpected world point %v", p)
	}
}

func TestParseSceneComputesMissingNormals(t *testing.T) {
	root, err := ParseScene([]byte(roomScene))
	if err != nil {
		t.Fatalf("ParseScene failed: %v", err)
	}

	g := root.Find("tri").Geometry
	if err := g.Validate(); err != nil {
		t.Fatalf("computed geometry invalid: %v", err)
	}
	// (1,0,0) x (0,0,1) points down
	if n := geom.Vec3At(g.Normals, 0); n != (mgl64.Vec3{0, -1, 0}) {
		t.Errorf("unexpected normal %v", n)
	}
}

func TestParseSceneIndexed(t *testing.T) {
	data := `
root:
  name: indexed
  mesh:
    positions: [0, 0, 0, 1, 0, 0, 1, 0, 1, 0, 0, 1]
    indices: [0, 2, 1, 0, 3, 2]
`
	root, err := ParseScene([]byte(data))
	if err != nil {
		t.Fatalf("ParseScene failed: %v", err)
	}
	g := root.Geometry
	if g.Indices != nil {
		t.Error("expected flat normals to expand the index buffer")
	}
	if g.VertexCount() != 6 {
		t.Errorf("expected 6 vertices, got %d", g.VertexCount())
	}
	if n := geom.Vec3At(g.Normals, 3); n != (mgl64.Vec3{0, 1, 0}) {
		t.Errorf("unexpected normal %v", n)
	}
}

func TestParseSceneSmoothNormals(t *testing.T) {
	data := `
root:
  name: blob
  mesh: {shape: box, size: [2], smooth_normals: 0.001}
`
	root, err := ParseScene([]byte(data))
	if err != nil {
		t.Fatalf("ParseScene failed: %v", err)
	}
	g := root.Geometry
	for v := 0; v < g.VertexCount(); v++ {
		n := geom.Vec3At(g.Normals, v)
		if n[0] == 0 || n[1] == 0 || n[2] == 0 {
			t.Fatalf("vertex %d not smoothed: %v", v, n)
		}
	}
	if g.NeedsUpdate {
		t.Error("freshly loaded geometry should not be marked dirty")
	}
}

func TestParseSceneErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{
			name: "future version",
			data: "version: 9\nroot: {name: r}",
			want: ErrUnsupportedSceneVersion,
		},
		{
			name: "unknown shape",
			data: "root: {name: r, mesh: {shape: torus}}",
			want: ErrUnknownShape,
		},
		{
			name: "bad size arity",
			data: "root: {name: r, mesh: {shape: box, size: [1, 2]}}",
			want: ErrInvalidMesh,
		},
		{
			name: "negative size",
			data: "root: {name: r, mesh: {shape: quad, size: [-1]}}",
			want: ErrInvalidMesh,
		},
		{
			name: "partial vertex",
			data: "root: {name: r, mesh: {positions: [0, 0]}}",
			want: ErrInvalidMesh,
		},
		{
			name: "partial triangle",
			data: "root: {name: r, mesh: {positions: [0, 0, 0, 1, 0, 0]}}",
			want: ErrInvalidMesh,
		},
		{
			name: "normal mismatch",
			data: "root: {name: r, mesh: {positions: [0, 0, 0, 1, 0, 0, 0, 0, 1], normals: [0, 1, 0]}}",
			want: ErrInvalidMesh,
		},
		{
			name: "index out of range",
			data: "root: {name: r, mesh: {positions: [0, 0, 0, 1, 0, 0, 0, 0, 1], normals: [0, 1, 0, 0, 1, 0, 0, 1, 0], indices: [0, 1, 5]}}",
			want: ErrInvalidMesh,
		},
		{
			name: "nested error",
			data: "root: {name: r, children: [{name: c, mesh: {shape: cone}}]}",
			want: ErrUnknownShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScene([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := ParseScene([]byte("root: [")); err == nil {
		t.Error("expected YAML syntax error")
	}
}

func TestParseSceneFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "room.yaml")
	if err := os.WriteFile(path, []byte(roomScene), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	root, err := ParseSceneFile(path)
	if err != nil {
		t.Fatalf("ParseSceneFile failed: %v", err)
	}
	if root.Name != "room" {
		t.Errorf("expected root 'room', got %q", root.Name)
	}

	if _, err := ParseSceneFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
