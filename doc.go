// Package imgblend combines same-sized raster images into one by per-image weights.
//
// Weights are normalized to sum to 1 and every output sample is the weighted sum of
// the input samples, accumulated in float32 in input order. Inputs may be 8-bit
// (PNG, JPEG, BMP, TIFF, WebP, GIF) or floating point (OpenEXR, Radiance RGBE);
// the output is always a float surface, written as OpenEXR or RGBE.
package imgblend
