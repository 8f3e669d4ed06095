// Package shaders provides the embedded GLSL sources of the IBL scene.
package shaders

import _ "embed"

// BasicVertexShader transforms foreground meshes into world and clip space.
//
//go:embed basic.vert
var BasicVertexShader string

// BasicFragmentShader shades foreground meshes from the environment maps.
//
//go:embed basic.frag
var BasicFragmentShader string

// CubemapVertexShader draws the environment box around the camera.
//
//go:embed cubemap.vert
var CubemapVertexShader string

// CubemapFragmentShader samples the specular map as the backdrop.
//
//go:embed cubemap.frag
var CubemapFragmentShader string

// NormalVertexShader extends line tips along the vertex normals.
//
//go:embed normal.vert
var NormalVertexShader string

// NormalFragmentShader colors normal lines from base to tip.
//
//go:embed normal.frag
var NormalFragmentShader string
