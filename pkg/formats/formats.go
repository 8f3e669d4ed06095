// Package formats decodes DirectDraw Surface (DDS) textures: plain 2D
// images, mip chains and cubemaps in uncompressed and block-compressed
// pixel formats.
package formats
