// Package codec implements the quantization law and the frame codec over
// the IR slot list.
//
// A ranged signal of width w maps a physical value v in [min, max] to the
// integer code
//
//	c = roundHalfEven((v - min) / (max - min) * (2^w - 1))
//
// so min encodes to 0 and max to 2^w - 1 exactly. Decoding is
// min + c * scale. Payloads are little-endian with the first slot at bit 0,
// the same convention both generated artifacts follow.
package codec
