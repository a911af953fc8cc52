package util

import "testing"

func TestKeys(t *testing.T) {
	if got := StreamKey("lab", 3); got != "lab:3" {
		t.Fatalf("StreamKey=%q", got)
	}
	if got := KeyframeKey("lab", 65535); got != "keyframe:lab:65535" {
		t.Fatalf("KeyframeKey=%q", got)
	}
	if got := DiffKey("lab", 3, 4000000000); got != "keyframe:lab:3:4000000000" {
		t.Fatalf("DiffKey=%q", got)
	}
}
