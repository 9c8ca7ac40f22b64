// Package formats reads scene descriptions and writes bake results.
//
// Both are YAML documents. A scene is a node tree with transforms whose
// meshes are built-in shapes or explicit vertex buffers; a result lists the
// baked color buffer of every mesh by node path.
package formats
