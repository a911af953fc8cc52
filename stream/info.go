package stream

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/unkn0wn-root/trvl"
	"github.com/unkn0wn-root/trvl/codec"
)

// Info is the stream descriptor a sender announces once per session, before
// the first packet. It carries everything a viewer needs to set up, while the
// packets themselves stay small.
type Info struct {
	SessionID        uuid.UUID `json:"session_id" cbor:"session_id" msgpack:"session_id"`
	Device           uint16    `json:"device" cbor:"device" msgpack:"device"`
	Width            uint16    `json:"width" cbor:"width" msgpack:"width"`
	Height           uint16    `json:"height" cbor:"height" msgpack:"height"`
	Method           Method    `json:"method" cbor:"method" msgpack:"method"`
	FPS              int       `json:"fps" cbor:"fps" msgpack:"fps"`
	KeyframeInterval int       `json:"keyframe_interval" cbor:"keyframe_interval" msgpack:"keyframe_interval"`
}

func (i Info) Samples() int { return int(i.Width) * int(i.Height) }

// Validate rejects descriptors no receiver could act on.
func (i Info) Validate() error {
	if i.SessionID == uuid.Nil {
		return fmt.Errorf("%w: missing session id", trvl.ErrInvalidConfig)
	}
	if i.Width == 0 || i.Height == 0 {
		return fmt.Errorf("%w: frame %dx%d", trvl.ErrInvalidConfig, i.Width, i.Height)
	}
	if !i.Method.Valid() {
		return fmt.Errorf("%w: %v", ErrMethod, i.Method)
	}
	return nil
}

// maxInfoSize caps decoded descriptors; a real one is well under 200 bytes.
const maxInfoSize = 4 << 10

// InfoCodec is the default descriptor codec: deterministic CBOR behind a
// size limit.
func InfoCodec() codec.Codec[Info] {
	return codec.Limit[Info]{Inner: codec.MustCBOR[Info](true), Max: maxInfoSize}
}

// ProtoInfo encodes Info as a protobuf Struct, for peers that speak
// protobuf but do not share a generated schema.
type ProtoInfo struct{}

var _ codec.Codec[Info] = ProtoInfo{}

var pbStruct = codec.NewProtobuf(func() *structpb.Struct { return &structpb.Struct{} })

func (ProtoInfo) Encode(i Info) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"session_id":        i.SessionID.String(),
		"device":            int(i.Device),
		"width":             int(i.Width),
		"height":            int(i.Height),
		"method":            i.Method.String(),
		"fps":               i.FPS,
		"keyframe_interval": i.KeyframeInterval,
	})
	if err != nil {
		return nil, err
	}
	return pbStruct.Encode(s)
}

func (ProtoInfo) Decode(b []byte) (Info, error) {
	s, err := pbStruct.Decode(b)
	if err != nil {
		return Info{}, err
	}
	f := s.GetFields()

	var i Info
	if i.SessionID, err = uuid.Parse(f["session_id"].GetStringValue()); err != nil {
		return Info{}, fmt.Errorf("stream: info session_id: %w", err)
	}
	if i.Method, err = ParseMethod(f["method"].GetStringValue()); err != nil {
		return Info{}, err
	}

	var n [5]int
	for k, name := range []string{"device", "width", "height", "fps", "keyframe_interval"} {
		v := f[name].GetNumberValue()
		if v < 0 || v > math.MaxInt32 || v != math.Trunc(v) {
			return Info{}, fmt.Errorf("stream: info %s: bad value %v", name, v)
		}
		n[k] = int(v)
	}
	if n[0] > math.MaxUint16 || n[1] > math.MaxUint16 || n[2] > math.MaxUint16 {
		return Info{}, fmt.Errorf("stream: info: device or dimensions out of range")
	}
	i.Device, i.Width, i.Height = uint16(n[0]), uint16(n[1]), uint16(n[2])
	i.FPS, i.KeyframeInterval = n[3], n[4]
	return i, nil
}
