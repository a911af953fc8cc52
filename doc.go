// Package trvl implements Temporal RVL, a lossless real-time compression
// scheme for 16-bit depth streams (H. Jun and J. Bailenson, 2020), on top of
// the single-frame RVL codec in package rvl.
//
// Components:
//   - Encoder: per-pixel hysteresis state. Keyframes are RVL-encoded as is;
//     other frames encode only the change of each pixel's held value.
//   - Decoder: mirrors the encoder's held values by applying decoded diffs.
//   - Scheduler: decides which frames are keyframes (fixed interval).
//
// Pixel state machine (encoder side, raw sample r):
//
//	unset (last == 0):  r > 0  -> last = r
//	valid, r == 0:      invalidRun++; invalidRun >= InvalidThreshold -> last = 0, invalidRun = 0
//	valid, r != 0:      invalidRun = 0; |last - r| > ChangeThreshold -> last = r
//
// Streaming pattern:
//
//	seq, key := sched.Next()
//	b, err := enc.Encode(frame, key) // send (seq, key, b)
//	...
//	depth, err := dec.Decode(b, key) // view valid until the next Decode
//
// Encoders and decoders are single-owner and must see frames in order. Use
// one pair per stream (per camera).
package trvl
