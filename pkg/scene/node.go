package scene

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/aobake/pkg/geom"
)

// Node is an element of the mesh hierarchy. Its local transform is
// Translate(Position) * Rotation * Scale; the world matrix is inherited from
// the parent chain. A node with Geometry is a mesh.
type Node struct {
	Name     string
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
	Geometry *Geometry

	children []*Node
	parent   *Node
	world    mgl64.Mat4
}

// NewNode creates a node with an identity transform.
func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
		world:    mgl64.Ident4(),
	}
}

// NewMesh creates a node carrying g.
func NewMesh(name string, g *Geometry) *Node {
	n := NewNode(name)
	n.Geometry = g
	return n
}

// Add attaches children to n, detaching them from any previous parent.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c.parent != nil {
			c.parent.remove(c)
		}
		c.parent = n
		n.children = append(n.children, c)
	}
	return n
}

func (n *Node) remove(c *Node) {
	for i, child := range n.children {
		if child == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

// Children returns the direct children of n.
func (n *Node) Children() []*Node { return n.children }

// Parent returns the parent of n, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// IsMesh reports whether the node carries geometry.
func (n *Node) IsMesh() bool { return n.Geometry != nil }

// SetRotation sets the rotation from an axis and an angle in degrees.
func (n *Node) SetRotation(axis mgl64.Vec3, degrees float64) {
	if axis.Len() < 1e-12 || degrees == 0 {
		n.Rotation = mgl64.QuatIdent()
		return
	}
	n.Rotation = mgl64.QuatRotate(mgl64.DegToRad(degrees), axis.Normalize())
}

// LocalMatrix returns Position * Rotation * Scale. A zero Scale is treated
// as unit scale and a zero quaternion as identity, so literal nodes work.
func (n *Node) LocalMatrix() mgl64.Mat4 {
	scale := n.Scale
	if scale == (mgl64.Vec3{}) {
		scale = mgl64.Vec3{1, 1, 1}
	}
	rot := n.Rotation
	if rot.Len() == 0 {
		rot = mgl64.QuatIdent()
	}

	m := mgl64.Translate3D(n.Position[0], n.Position[1], n.Position[2])
	m = m.Mul4(rot.Normalize().Mat4())
	return m.Mul4(mgl64.Scale3D(scale[0], scale[1], scale[2]))
}

// UpdateWorldMatrix recomputes the world matrix of n and its descendants from
// the parent chain.
func (n *Node) UpdateWorldMatrix() {
	parent := mgl64.Ident4()
	if n.parent != nil {
		parent = n.parent.computeWorld()
	}
	n.updateWorld(parent)
}

// computeWorld walks up the parent chain without caching.
func (n *Node) computeWorld() mgl64.Mat4 {
	if n.parent == nil {
		return n.LocalMatrix()
	}
	return n.parent.computeWorld().Mul4(n.LocalMatrix())
}

func (n *Node) updateWorld(parent mgl64.Mat4) {
	n.world = parent.Mul4(n.LocalMatrix())
	for _, c := range n.children {
		c.updateWorld(n.world)
	}
}

// WorldMatrix returns the world matrix computed by the last UpdateWorldMatrix.
func (n *Node) WorldMatrix() mgl64.Mat4 {
	if n.world == (mgl64.Mat4{}) {
		return mgl64.Ident4()
	}
	return n.world
}

// NormalMatrix returns the matrix that takes local normals to world space.
func (n *Node) NormalMatrix() mgl64.Mat3 {
	return geom.NormalMatrix(n.WorldMatrix())
}

// Traverse calls fn for n and every descendant, parents first, in child order.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// Meshes returns every mesh node under n, including n, in traversal order.
func (n *Node) Meshes() []*Node {
	var out []*Node
	n.Traverse(func(c *Node) {
		if c.IsMesh() {
			out = append(out, c)
		}
	})
	return out
}

// Path returns the slash-separated names from the root down to n.
func (n *Node) Path() string {
	var parts []string
	for c := n; c != nil; c = c.parent {
		parts = append(parts, c.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Find returns the first node under n (including n) whose Path ends with
// path, or nil.
func (n *Node) Find(path string) *Node {
	var found *Node
	n.Traverse(func(c *Node) {
		if found == nil && (c.Name == path || strings.HasSuffix(c.Path(), "/"+path) || c.Path() == path) {
			found = c
		}
	})
	return found
}
