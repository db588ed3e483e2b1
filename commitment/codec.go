package commitment

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/wienerlabs/archimedes/group"
)

// Sizes of the fixed-width fields in the persisted layout (spec §6):
// little-endian integers, length-prefixed variable fields.
const (
	PointSize   = 48 // compressed BLS12-381 G1 affine point
	ScalarSize  = 32 // BLS12-381 scalar field element
	RootSize    = 32 // a 32-byte Merkle/state root
	StateCSize  = RootSize + PointSize + ScalarSize
	TransCSize  = RootSize + RootSize + 8 + PointSize + ScalarSize
	StepRecSize = 8 + StateCSize + TransCSize + RootSize
)

// MarshalStateCommitment serializes a StateCommitment as
// state_root[32] point[48] blinder[32].
func MarshalStateCommitment(sc StateCommitment) []byte {
	buf := make([]byte, 0, StateCSize)
	buf = append(buf, sc.StateRoot[:]...)
	buf = append(buf, padTo(sc.Point.Bytes(), PointSize)...)
	buf = append(buf, padTo(sc.Blinder.Bytes(), ScalarSize)...)
	return buf
}

// UnmarshalStateCommitment parses the layout produced by MarshalStateCommitment.
func UnmarshalStateCommitment(g group.Group, buf []byte) (StateCommitment, error) {
	if len(buf) != StateCSize {
		return StateCommitment{}, errors.Errorf("commitment: bad StateCommitment length %d, want %d", len(buf), StateCSize)
	}
	var sc StateCommitment
	copy(sc.StateRoot[:], buf[:RootSize])
	off := RootSize
	p, err := g.PointFromBytes(buf[off : off+PointSize])
	if err != nil {
		return StateCommitment{}, errors.Wrap(err, "decoding point")
	}
	sc.Point = p
	off += PointSize
	s, err := g.ScalarFromBytes(buf[off : off+ScalarSize])
	if err != nil {
		return StateCommitment{}, errors.Wrap(err, "decoding blinder")
	}
	sc.Blinder = s
	return sc, nil
}

// MarshalTransitionCommitment serializes a TransitionCommitment as
// pre[32] post[32] fn_id[8] point[48] blinder[32].
func MarshalTransitionCommitment(tc TransitionCommitment) []byte {
	buf := make([]byte, 0, TransCSize)
	buf = append(buf, tc.Pre[:]...)
	buf = append(buf, tc.Post[:]...)
	var fnBuf [8]byte
	binary.LittleEndian.PutUint64(fnBuf[:], tc.FnID)
	buf = append(buf, fnBuf[:]...)
	buf = append(buf, padTo(tc.Point.Bytes(), PointSize)...)
	buf = append(buf, padTo(tc.Blinder.Bytes(), ScalarSize)...)
	return buf
}

// UnmarshalTransitionCommitment parses the layout produced by
// MarshalTransitionCommitment.
func UnmarshalTransitionCommitment(g group.Group, buf []byte) (TransitionCommitment, error) {
	if len(buf) != TransCSize {
		return TransitionCommitment{}, errors.Errorf("commitment: bad TransitionCommitment length %d, want %d", len(buf), TransCSize)
	}
	var tc TransitionCommitment
	copy(tc.Pre[:], buf[:RootSize])
	off := RootSize
	copy(tc.Post[:], buf[off:off+RootSize])
	off += RootSize
	tc.FnID = binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8
	p, err := g.PointFromBytes(buf[off : off+PointSize])
	if err != nil {
		return TransitionCommitment{}, errors.Wrap(err, "decoding point")
	}
	tc.Point = p
	off += PointSize
	s, err := g.ScalarFromBytes(buf[off : off+ScalarSize])
	if err != nil {
		return TransitionCommitment{}, errors.Wrap(err, "decoding blinder")
	}
	tc.Blinder = s
	return tc, nil
}

// MarshalStepRecord serializes a StepRecord as
// index[8] state_c[StateCommitment] trans_c[TransitionCommitment] witness_digest[32].
func MarshalStepRecord(sr StepRecord) []byte {
	buf := make([]byte, 0, StepRecSize)
	var idxBuf [8]byte
	binary.LittleEndian.PutUint64(idxBuf[:], sr.Index)
	buf = append(buf, idxBuf[:]...)
	buf = append(buf, MarshalStateCommitment(sr.StateC)...)
	buf = append(buf, MarshalTransitionCommitment(sr.TransC)...)
	buf = append(buf, sr.WitnessDigest[:]...)
	return buf
}

// UnmarshalStepRecord parses the layout produced by MarshalStepRecord.
func UnmarshalStepRecord(g group.Group, buf []byte) (StepRecord, error) {
	if len(buf) != StepRecSize {
		return StepRecord{}, errors.Errorf("commitment: bad StepRecord length %d, want %d", len(buf), StepRecSize)
	}
	var sr StepRecord
	sr.Index = binary.LittleEndian.Uint64(buf[:8])
	off := 8
	sc, err := UnmarshalStateCommitment(g, buf[off:off+StateCSize])
	if err != nil {
		return StepRecord{}, errors.Wrap(err, "decoding state_c")
	}
	sr.StateC = sc
	off += StateCSize
	tc, err := UnmarshalTransitionCommitment(g, buf[off:off+TransCSize])
	if err != nil {
		return StepRecord{}, errors.Wrap(err, "decoding trans_c")
	}
	sr.TransC = tc
	off += TransCSize
	copy(sr.WitnessDigest[:], buf[off:off+RootSize])
	return sr, nil
}

// padTo right-pads (or truncates, which should never happen for a
// well-formed field element) b to exactly n bytes. Group encodings are
// expected to already be exactly n bytes; this guards against a backend
// that returns a shorter canonical form for small values.
func padTo(b []byte, n int) []byte {
	if len(b) == n {
		return b
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}
