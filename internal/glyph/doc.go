// Package glyph provides the core value types shared by the stylization
// pipeline, the two animation codecs and the playback engine.
//
//   - [Cell]: one stylized grid position (empty, symbol or dot)
//   - [Frame]: a row-major grid of cells with fixed dimensions
//   - [Alphabet]: ordered glyph set; the last glyph is never selected
//   - [MaskSet]: frozen set of coordinates forced to render empty
//   - [Metadata]: immutable description of a finished animation
//
// # Errors
//
// Failures are classified by the sentinels [ErrSource], [ErrFormat] and
// [ErrEncode] and carried by [Error], so callers test them with errors.Is:
//
//	if errors.Is(err, glyph.ErrFormat) {
//		// malformed file, nothing was decoded
//	}
package glyph
