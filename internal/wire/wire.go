package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version    byte = 1
	kindPacket byte = 1
	kindEntry  byte = 2

	flagKeyframe byte = 1 << 0

	packetHeader = 4 + 1 + 1 + 1 + 1 + 2 + 4 + 2 + 2 + 4
	entryHeader  = 4 + 1 + 1 + 8 + 4
)

var (
	ErrCorrupt = errors.New("trvl: corrupt packet")
	magic4     = [...]byte{'T', 'R', 'V', 'L'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Header describes one encoded depth frame on the wire. Method is opaque to
// this package.
type Header struct {
	Method   byte
	Keyframe bool
	Device   uint16
	Seq      uint32
	Width    uint16
	Height   uint16
}

// Samples is the frame size implied by the dimensions.
func (h Header) Samples() int { return int(h.Width) * int(h.Height) }

// Packet:
//
//	magic(4) | ver(1) | kind(1=packet) | method(1) | flags(1) |
//	device(u16 be) | seq(u32 be) | width(u16 be) | height(u16 be) | plen(u32 be) | payload(plen)
func EncodePacket(h Header, payload []byte) []byte {
	return AppendPacket(make([]byte, 0, packetHeader+len(payload)), h, payload)
}

// AppendPacket is EncodePacket appending to dst.
func AppendPacket(dst []byte, h Header, payload []byte) []byte {
	var flags byte
	if h.Keyframe {
		flags |= flagKeyframe
	}
	dst = append(dst, magic4[:]...)
	dst = append(dst, version, kindPacket, h.Method, flags)
	dst = binary.BigEndian.AppendUint16(dst, h.Device)
	dst = binary.BigEndian.AppendUint32(dst, h.Seq)
	dst = binary.BigEndian.AppendUint16(dst, h.Width)
	dst = binary.BigEndian.AppendUint16(dst, h.Height)
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...)
}

// DecodePacket parses a packet. The payload aliases b.
func DecodePacket(b []byte) (Header, []byte, error) {
	if len(b) < packetHeader || !hasMagic(b) || b[4] != version || b[5] != kindPacket {
		return Header{}, nil, ErrCorrupt
	}
	if b[7]&^flagKeyframe != 0 { // unknown flags
		return Header{}, nil, ErrCorrupt
	}

	h := Header{
		Method:   b[6],
		Keyframe: b[7]&flagKeyframe != 0,
	}
	off := 8

	h.Device = binary.BigEndian.Uint16(b[off : off+2])
	off += 2
	h.Seq = binary.BigEndian.Uint32(b[off : off+4])
	off += 4
	h.Width = binary.BigEndian.Uint16(b[off : off+2])
	off += 2
	h.Height = binary.BigEndian.Uint16(b[off : off+2])
	off += 2

	// plen
	plen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if plen < 0 || plen != len(b)-off { // exact: no truncation, no trailing junk
		return Header{}, nil, ErrCorrupt
	}

	return h, b[off : off+plen], nil
}

// Entry wraps a cached packet with the stream epoch it was produced under:
//
//	magic(4) | ver(1) | kind(2=entry) | epoch(u64 be) | plen(u32 be) | packet(plen)
func EncodeEntry(epoch uint64, packet []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(entryHeader + len(packet))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindEntry)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], epoch)
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(packet)))
	buf.Write(u4[:])

	buf.Write(packet)
	return buf.Bytes()
}

func DecodeEntry(b []byte) (epoch uint64, packet []byte, err error) {
	if len(b) < entryHeader || !hasMagic(b) || b[4] != version || b[5] != kindEntry {
		return 0, nil, ErrCorrupt
	}

	off := 6

	epoch = binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	plen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if plen < 0 || plen != len(b)-off {
		return 0, nil, ErrCorrupt
	}

	return epoch, b[off : off+plen], nil
}
