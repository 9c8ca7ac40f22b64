// Package octree provides an adaptive octree over a triangle soup that answers
// nearest-hit ray queries.
//
// Triangles are stored once in an arena; nodes reference them by index. A
// triangle that straddles octant boundaries is referenced by every child it
// overlaps, and queries deduplicate candidates before testing them.
package octree

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/aobake/pkg/geom"
)

const (
	// MaxLeafTriangles is the triangle count above which a node splits.
	MaxLeafTriangles = 8
	// MaxDepth bounds the recursion; nodes at this depth never split.
	MaxDepth = 16
	// Horizon is the distance at and beyond which hits are ignored.
	Horizon = 1000.0
)

// Node is one octant of the tree.
type Node struct {
	box       geom.AABB
	depth     int
	triangles []int32
	children  []*Node
}

// Box returns the bounds of the node.
func (n *Node) Box() geom.AABB { return n.box }

// Depth returns the distance from the root (root is 0).
func (n *Node) Depth() int { return n.depth }

// Triangles returns the arena indices held by a leaf.
func (n *Node) Triangles() []int32 { return n.triangles }

// Children returns the non-empty child octants.
func (n *Node) Children() []*Node { return n.children }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// Octree indexes triangles for ray queries. Add triangles with AddTriangle,
// then call Build once. After Build the tree is read-only and RayIntersect
// may be called from multiple goroutines.
type Octree struct {
	tris   []geom.Triangle
	bounds geom.AABB
	root   *Node
}

// New creates an empty octree.
func New() *Octree {
	return &Octree{bounds: geom.EmptyAABB()}
}

// AddTriangle appends a triangle and grows the accumulated bounds.
func (o *Octree) AddTriangle(tri geom.Triangle) {
	o.bounds = o.bounds.Union(tri.Bounds())
	o.tris = append(o.tris, tri)
}

// Len returns the number of triangles added.
func (o *Octree) Len() int { return len(o.tris) }

// Triangle returns the triangle stored at arena index i.
func (o *Octree) Triangle(i int32) geom.Triangle { return o.tris[i] }

// Bounds returns the union box of all added triangles.
func (o *Octree) Bounds() geom.AABB { return o.bounds }

// Root returns the root node, or nil before Build.
func (o *Octree) Root() *Node { return o.root }

// Built reports whether Build has been called.
func (o *Octree) Built() bool { return o.root != nil }

// Build finalizes the root box from the accumulated bounds and splits it.
// The root is always split once, whatever its triangle count.
// Calling Build again rebuilds the tree from all triangles added so far.
func (o *Octree) Build() {
	root := &Node{box: o.bounds}
	if len(o.tris) > 0 {
		root.triangles = make([]int32, len(o.tris))
		for i := range root.triangles {
			root.triangles[i] = int32(i)
		}
		o.split(root)
	}
	o.root = root
}

// split distributes the node's triangles into its eight octants and recurses
// into crowded children. The node keeps no triangles of its own afterwards.
func (o *Octree) split(n *Node) {
	boxes := octants(n.box)
	children := make([]*Node, len(boxes))
	for i, box := range boxes {
		children[i] = &Node{box: box, depth: n.depth + 1}
	}

	for _, ti := range n.triangles {
		tri := o.tris[ti]
		for _, child := range children {
			if overlaps(child.box, tri) {
				child.triangles = append(child.triangles, ti)
			}
		}
	}
	n.triangles = nil

	for _, child := range children {
		if len(child.triangles) == 0 {
			continue
		}
		if len(child.triangles) > MaxLeafTriangles && child.depth < MaxDepth {
			o.split(child)
		}
		n.children = append(n.children, child)
	}
}

// RayIntersect returns the distance from the ray origin to the nearest
// triangle hit. ok is false when nothing is hit, when the nearest hit lies at
// or beyond Horizon, or when the ray direction has zero length.
func (o *Octree) RayIntersect(ray geom.Ray) (distance float64, ok bool) {
	if ray.IsDegenerate() || !o.Built() {
		return 0, false
	}

	candidates := o.collect(o.root, ray, nil)
	if len(candidates) == 0 {
		return 0, false
	}
	slices.Sort(candidates)
	candidates = slices.Compact(candidates)

	nearest := Horizon
	for _, ti := range candidates {
		d, hit := ray.TriangleDistance(o.tris[ti])
		if hit && d < nearest {
			nearest = d
		}
	}
	if nearest >= Horizon {
		return 0, false
	}
	return nearest, true
}

// collect appends the triangles of every leaf under n whose box the ray
// passes through.
func (o *Octree) collect(n *Node, ray geom.Ray, out []int32) []int32 {
	for _, child := range n.children {
		if _, hit := ray.IntersectAABB(child.box); !hit {
			continue
		}
		if child.IsLeaf() {
			out = append(out, child.triangles...)
		} else {
			out = o.collect(child, ray, out)
		}
	}
	return out
}

// octants divides box at its midpoint. On each axis the lower half spans
// [Min, mid] and the upper half [mid, Max], so the halves share the midpoint
// exactly and together reach the parent's faces. An axis with zero extent is
// not divided; stepping there would only produce duplicate octants.
func octants(box geom.AABB) []geom.AABB {
	mid := box.Min.Add(box.Size().Mul(0.5))

	var spans [3][][2]float64
	for axis := range spans {
		if box.Min[axis] == box.Max[axis] {
			spans[axis] = [][2]float64{{box.Min[axis], box.Max[axis]}}
			continue
		}
		spans[axis] = [][2]float64{
			{box.Min[axis], mid[axis]},
			{mid[axis], box.Max[axis]},
		}
	}

	out := make([]geom.AABB, 0, 8)
	for _, x := range spans[0] {
		for _, y := range spans[1] {
			for _, z := range spans[2] {
				out = append(out, geom.AABB{
					Min: mgl64.Vec3{x[0], y[0], z[0]},
					Max: mgl64.Vec3{x[1], y[1], z[1]},
				})
			}
		}
	}
	return out
}

// overlaps reports whether tri touches box. The bounds check rejects most
// non-overlapping pairs before the full separating axis test.
func overlaps(box geom.AABB, tri geom.Triangle) bool {
	return box.Intersects(tri.Bounds()) && box.IntersectsTriangle(tri)
}
