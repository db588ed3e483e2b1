package dispute

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/wienerlabs/archimedes/commitment"
	"github.com/wienerlabs/archimedes/group"
)

// Tag identifies the payload kind of a DisputeMessage (spec §6).
type Tag byte

const (
	TagQuery      Tag = 0x01
	TagReply      Tag = 0x02
	TagNarrow     Tag = 0x03
	TagRevealStep Tag = 0x04
)

// Message is the wire envelope for every dispute protocol message (spec §6
// "DisputeMessage ::= session_id[16] round[4] tag[1] payload"). Exactly one
// of the payload fields is populated, selected by Tag.
type Message struct {
	SessionID [16]byte
	Round     uint32
	Tag       Tag

	Mid uint64 // TagQuery

	Point   group.Point  // TagReply
	Blinder group.Scalar // TagReply
	Path    [][32]byte   // TagReply

	Dir Direction // TagNarrow

	Step    commitment.StepRecord // TagRevealStep
	Witness []byte                // TagRevealStep
}

// ErrMalformedMessage is returned for any framing deviation (spec §6: "Any
// deviation in framing is a MalformedMessage and counts against the
// sender's clock").
var ErrMalformedMessage = errors.New("dispute: malformed message framing")

// Marshal encodes m per the persisted layout of spec §6.
func Marshal(m Message) []byte {
	buf := make([]byte, 0, 16+4+1+64)
	buf = append(buf, m.SessionID[:]...)
	var roundBuf [4]byte
	binary.LittleEndian.PutUint32(roundBuf[:], m.Round)
	buf = append(buf, roundBuf[:]...)
	buf = append(buf, byte(m.Tag))

	switch m.Tag {
	case TagQuery:
		var midBuf [8]byte
		binary.LittleEndian.PutUint64(midBuf[:], m.Mid)
		buf = append(buf, midBuf[:]...)
	case TagReply:
		buf = append(buf, padTo(m.Point.Bytes(), commitment.PointSize)...)
		buf = append(buf, padTo(m.Blinder.Bytes(), commitment.ScalarSize)...)
		var lenBuf [2]byte
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(m.Path)))
		buf = append(buf, lenBuf[:]...)
		for _, h := range m.Path {
			buf = append(buf, h[:]...)
		}
	case TagNarrow:
		buf = append(buf, byte(m.Dir))
	case TagRevealStep:
		buf = append(buf, commitment.MarshalStepRecord(m.Step)...)
		var wLenBuf [4]byte
		binary.LittleEndian.PutUint32(wLenBuf[:], uint32(len(m.Witness)))
		buf = append(buf, wLenBuf[:]...)
		buf = append(buf, m.Witness...)
	}
	return buf
}

// Unmarshal decodes the layout produced by Marshal, rejecting any framing
// deviation with ErrMalformedMessage.
func Unmarshal(g group.Group, buf []byte) (Message, error) {
	if len(buf) < 16+4+1 {
		return Message{}, ErrMalformedMessage
	}
	var m Message
	copy(m.SessionID[:], buf[:16])
	off := 16
	m.Round = binary.LittleEndian.Uint32(buf[off : off+4])
	off += 4
	m.Tag = Tag(buf[off])
	off++

	rest := buf[off:]
	switch m.Tag {
	case TagQuery:
		if len(rest) != 8 {
			return Message{}, ErrMalformedMessage
		}
		m.Mid = binary.LittleEndian.Uint64(rest)
	case TagReply:
		if len(rest) < commitment.PointSize+commitment.ScalarSize+2 {
			return Message{}, ErrMalformedMessage
		}
		p, err := g.PointFromBytes(rest[:commitment.PointSize])
		if err != nil {
			return Message{}, errors.Wrap(err, "decoding reply point")
		}
		m.Point = p
		off2 := commitment.PointSize
		s, err := g.ScalarFromBytes(rest[off2 : off2+commitment.ScalarSize])
		if err != nil {
			return Message{}, errors.Wrap(err, "decoding reply blinder")
		}
		m.Blinder = s
		off2 += commitment.ScalarSize
		pathLen := int(binary.LittleEndian.Uint16(rest[off2 : off2+2]))
		off2 += 2
		if len(rest) != off2+pathLen*32 {
			return Message{}, ErrMalformedMessage
		}
		m.Path = make([][32]byte, pathLen)
		for i := 0; i < pathLen; i++ {
			copy(m.Path[i][:], rest[off2+i*32:off2+(i+1)*32])
		}
	case TagNarrow:
		if len(rest) != 1 || rest[0] > byte(DirRight) {
			return Message{}, ErrMalformedMessage
		}
		m.Dir = Direction(rest[0])
	case TagRevealStep:
		if len(rest) < commitment.StepRecSize+4 {
			return Message{}, ErrMalformedMessage
		}
		sr, err := commitment.UnmarshalStepRecord(g, rest[:commitment.StepRecSize])
		if err != nil {
			return Message{}, errors.Wrap(err, "decoding revealed step")
		}
		m.Step = sr
		off2 := commitment.StepRecSize
		wLen := int(binary.LittleEndian.Uint32(rest[off2 : off2+4]))
		off2 += 4
		if len(rest) != off2+wLen {
			return Message{}, ErrMalformedMessage
		}
		m.Witness = append([]byte(nil), rest[off2:off2+wLen]...)
	default:
		return Message{}, ErrMalformedMessage
	}
	return m, nil
}

func padTo(b []byte, n int) []byte {
	if len(b) == n {
		return b
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}
