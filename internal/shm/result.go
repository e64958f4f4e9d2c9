package shm

import (
	"math"

	"github.com/ayusman/typecoach/internal/hand"
)

const (
	// ResultHeaderSize is the header: hand count, flag and a 16-bit sequence.
	ResultHeaderSize = 4
	// RecordFloats is handedness, confidence and 21 xyz triples.
	RecordFloats = 2 + hand.NumLandmarks*3
	// RecordSize is one hand record in bytes.
	RecordSize = RecordFloats * 4
	// ResultRegionSize is the fixed size of the result region.
	ResultRegionSize = ResultHeaderSize + hand.MaxHands*RecordSize
)

// ResultSet is one published batch of hands.
type ResultSet struct {
	// Seq increments on every publish and wraps at 16 bits. Readers use it
	// to tell a fresh result from one they have already seen.
	Seq   uint16
	Hands []hand.Landmarks
}

// ResultChannel carries up to two hand records.
//
// Layout: byte 0 is the hand count, byte 1 the flag, bytes 2..3 the publish
// sequence; records of 65 float32 values follow. The writer moves the flag
// to WRITING before touching records and back to IDLE with a new sequence
// afterwards. Readers compare the header before and after copying and
// discard the copy if it changed, so any number of readers can observe the
// channel without blocking the writer.
type ResultChannel struct {
	region *Region
}

// CreateResultChannel creates the result region as its writer.
func CreateResultChannel(dir, name string) (*ResultChannel, error) {
	r, err := CreateRegion(dir, name, ResultRegionSize)
	if err != nil {
		return nil, err
	}
	r.store(0, packHeader(0, FlagIdle, 0))
	return &ResultChannel{region: r}, nil
}

// OpenResultChannel opens an existing result region as a reader.
func OpenResultChannel(dir, name string) (*ResultChannel, error) {
	r, err := OpenRegion(dir, name, ResultRegionSize)
	if err != nil {
		return nil, err
	}
	return &ResultChannel{region: r}, nil
}

// Flag returns the current flag value.
func (c *ResultChannel) Flag() Flag {
	_, f, _ := unpackHeader(c.region.load(0))
	return f
}

// Publish writes hands as the newest result. Hands beyond MaxHands are
// dropped. Only one process may publish to a channel.
func (c *ResultChannel) Publish(hands []hand.Landmarks) error {
	if len(hands) > hand.MaxHands {
		hands = hands[:hand.MaxHands]
	}

	_, flag, seq := unpackHeader(c.region.load(0))
	if flag == FlagExit {
		return ErrChannelClosed
	}

	c.region.store(0, packHeader(0, FlagWriting, seq))

	for i := range hands {
		c.writeRecord(i, &hands[i])
	}

	c.region.store(0, packHeader(len(hands), FlagIdle, seq+1))
	return nil
}

// Read returns the latest complete result. It returns false when a write is
// in progress or overlapped the copy, and ErrChannelClosed after EXIT.
func (c *ResultChannel) Read() (ResultSet, bool, error) {
	before := c.region.load(0)
	count, flag, seq := unpackHeader(before)

	switch flag {
	case FlagExit:
		return ResultSet{}, false, ErrChannelClosed
	case FlagIdle:
	default:
		return ResultSet{}, false, nil
	}
	if count > hand.MaxHands {
		return ResultSet{}, false, nil
	}

	hands := make([]hand.Landmarks, count)
	for i := range hands {
		c.readRecord(i, &hands[i])
	}

	if c.region.load(0) != before {
		return ResultSet{}, false, nil
	}

	return ResultSet{Seq: seq, Hands: hands}, true, nil
}

// MarkExit signals permanent shutdown to every reader.
func (c *ResultChannel) MarkExit() {
	_, _, seq := unpackHeader(c.region.load(0))
	c.region.store(0, packHeader(0, FlagExit, seq))
}

// Close unmaps the channel.
func (c *ResultChannel) Close() error {
	return c.region.Close()
}

// Unlink removes the channel's name. Only the creator should call it.
func (c *ResultChannel) Unlink() error {
	return c.region.Unlink()
}

func (c *ResultChannel) writeRecord(i int, h *hand.Landmarks) {
	off := ResultHeaderSize + i*RecordSize

	side := float32(0)
	if h.Side == hand.Left {
		side = 1
	}
	c.putFloat(off, side)
	c.putFloat(off+4, float32(h.Score))

	off += 8
	for _, p := range h.Points {
		c.putFloat(off, float32(p.X))
		c.putFloat(off+4, float32(p.Y))
		c.putFloat(off+8, float32(p.Z))
		off += 12
	}
}

func (c *ResultChannel) readRecord(i int, h *hand.Landmarks) {
	off := ResultHeaderSize + i*RecordSize

	h.Side = hand.Right
	if c.getFloat(off) >= 0.5 {
		h.Side = hand.Left
	}
	h.Score = float64(c.getFloat(off + 4))

	off += 8
	for j := range h.Points {
		h.Points[j] = hand.Point3D{
			X: float64(c.getFloat(off)),
			Y: float64(c.getFloat(off + 4)),
			Z: float64(c.getFloat(off + 8)),
		}
		off += 12
	}
}

func (c *ResultChannel) putFloat(off int, v float32) {
	c.region.store(off, math.Float32bits(v))
}

func (c *ResultChannel) getFloat(off int) float32 {
	return math.Float32frombits(c.region.load(off))
}

func packHeader(count int, flag Flag, seq uint16) uint32 {
	return packWord([4]byte{byte(count), byte(flag), byte(seq), byte(seq >> 8)})
}

func unpackHeader(v uint32) (count int, flag Flag, seq uint16) {
	b := unpackWord(v)
	return int(b[0]), Flag(b[1]), uint16(b[2]) | uint16(b[3])<<8
}
