package util

import "strconv"

// StreamKey names the epoch counter of one device stream: "<ns>:<device>".
func StreamKey(ns string, device uint16) string {
	return ns + ":" + strconv.FormatUint(uint64(device), 10)
}

// KeyframeKey is the provider key of a device's cached keyframe:
// "keyframe:<ns>:<device>".
func KeyframeKey(ns string, device uint16) string {
	return "keyframe:" + StreamKey(ns, device)
}

// DiffKey is the provider key of a cached diff packet:
// "keyframe:<ns>:<device>:<seq>".
func DiffKey(ns string, device uint16, seq uint32) string {
	return KeyframeKey(ns, device) + ":" + strconv.FormatUint(uint64(seq), 10)
}
