package codec

import (
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type descriptor struct {
	Device int    `json:"device" cbor:"device" msgpack:"device"`
	Width  int    `json:"width" cbor:"width" msgpack:"width"`
	Height int    `json:"height" cbor:"height" msgpack:"height"`
	Method string `json:"method" cbor:"method" msgpack:"method"`
}

func roundTrip[V comparable](t *testing.T, name string, c Codec[V], v V) {
	t.Helper()
	b, err := c.Encode(v)
	if err != nil {
		t.Fatalf("%s Encode: %v", name, err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("%s Decode: %v", name, err)
	}
	if got != v {
		t.Fatalf("%s mismatch: got %+v want %+v", name, got, v)
	}
}

func TestCodecsRoundTrip(t *testing.T) {
	d := descriptor{Device: 1, Width: 640, Height: 576, Method: "temporal-rvl"}
	roundTrip[descriptor](t, "json", JSON[descriptor]{}, d)
	roundTrip[descriptor](t, "cbor", MustCBOR[descriptor](false), d)
	roundTrip[descriptor](t, "cbor-det", MustCBOR[descriptor](true), d)
	roundTrip[descriptor](t, "msgpack", Msgpack[descriptor]{}, d)
}

func TestCBORDeterministicIsStable(t *testing.T) {
	c := MustCBOR[map[string]int](true)
	a, err := c.Encode(map[string]int{"w": 1, "h": 2, "d": 3})
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Encode(map[string]int{"d": 3, "h": 2, "w": 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Fatalf("deterministic encoding differs: %x vs %x", a, b)
	}
}

func TestProtobufStruct(t *testing.T) {
	c := NewProtobuf(func() *structpb.Struct { return &structpb.Struct{} })
	in, err := structpb.NewStruct(map[string]any{"width": 640.0, "method": "rvl"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !proto.Equal(in, out) {
		t.Fatalf("got %v want %v", out, in)
	}
}

func TestLimitRejectsOversized(t *testing.T) {
	c := Limit[descriptor]{Inner: JSON[descriptor]{}, Max: 8}
	b, err := c.Encode(descriptor{Width: 640})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Decode(b); err == nil {
		t.Fatalf("expected size error for %d bytes", len(b))
	}

	unlimited := Limit[descriptor]{Inner: JSON[descriptor]{}}
	roundTrip[descriptor](t, "unlimited", unlimited, descriptor{Width: 640})
}

func TestMsgpackUnknownFields(t *testing.T) {
	type newer struct {
		descriptor
		Depth string `msgpack:"depth_unit"`
	}
	b, err := Msgpack[newer]{}.Encode(newer{descriptor: descriptor{Width: 640}, Depth: "mm"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := (Msgpack[descriptor]{}).Decode(b); err == nil {
		t.Fatalf("unknown field must be rejected")
	}
	got, err := Msgpack[descriptor]{Lenient: true}.Decode(b)
	if err != nil || got.Width != 640 {
		t.Fatalf("lenient decode: %+v err=%v", got, err)
	}
}
