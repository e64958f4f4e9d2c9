package shm

import "fmt"

// Dimensions describes the frames carried by a FrameChannel.
type Dimensions struct {
	Width    int
	Height   int
	Channels int
}

// FrameSize is the number of pixel bytes in one frame.
func (d Dimensions) FrameSize() int {
	return d.Width * d.Height * d.Channels
}

// RegionSize is the size of the shared region: one flag byte plus the frame.
func (d Dimensions) RegionSize() int {
	return 1 + d.FrameSize()
}

func (d Dimensions) validate() error {
	if d.Width <= 0 || d.Height <= 0 || d.Channels <= 0 {
		return fmt.Errorf("invalid frame dimensions %dx%dx%d", d.Width, d.Height, d.Channels)
	}
	return nil
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%dx%d", d.Width, d.Height, d.Channels)
}

// FrameChannel carries one raw frame behind a flag byte.
//
// Layout: byte 0 is the flag, bytes [1, 1+W*H*C) are the pixels. The first
// word (flag plus pixel bytes 0..2) is only touched atomically, so claiming
// and releasing the slot is a compare-and-swap and releasing publishes
// everything copied before it.
type FrameChannel struct {
	region *Region
	dims   Dimensions
}

// CreateFrameChannel creates the frame region as its producer. The flag
// starts at IDLE.
func CreateFrameChannel(dir, name string, dims Dimensions) (*FrameChannel, error) {
	if err := dims.validate(); err != nil {
		return nil, err
	}

	r, err := CreateRegion(dir, name, dims.RegionSize())
	if err != nil {
		return nil, err
	}
	r.store(0, packWord([4]byte{byte(FlagIdle)}))

	return &FrameChannel{region: r, dims: dims}, nil
}

// OpenFrameChannel opens an existing frame region as a consumer. It fails
// with ErrChannelUnavailable if the producer has not created it, and with
// ErrResolutionMismatch if the producer's frame size differs from dims.
func OpenFrameChannel(dir, name string, dims Dimensions) (*FrameChannel, error) {
	if err := dims.validate(); err != nil {
		return nil, err
	}

	r, err := OpenRegion(dir, name, dims.RegionSize())
	if err != nil {
		return nil, err
	}

	return &FrameChannel{region: r, dims: dims}, nil
}

// Dimensions returns the channel's frame dimensions.
func (c *FrameChannel) Dimensions() Dimensions {
	return c.dims
}

// Flag returns the current flag value.
func (c *FrameChannel) Flag() Flag {
	return Flag(unpackWord(c.region.load(0))[0])
}

// Write publishes a frame. It returns false without writing if a consumer
// currently holds the slot, and ErrChannelClosed after EXIT.
func (c *FrameChannel) Write(frame []byte) (bool, error) {
	if len(frame) != c.dims.FrameSize() {
		return false, fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(frame), c.dims.FrameSize())
	}

	old := c.region.load(0)
	b := unpackWord(old)
	switch Flag(b[0]) {
	case FlagExit:
		return false, ErrChannelClosed
	case FlagIdle:
	default:
		return false, nil
	}

	b[0] = byte(FlagWriting)
	if !c.region.cas(0, old, packWord(b)) {
		return false, nil
	}

	copy(c.region.data[4:], frame[3:])
	c.region.store(0, packWord([4]byte{byte(FlagIdle), frame[0], frame[1], frame[2]}))

	return true, nil
}

// Read copies the current frame into dst. It returns false when the slot is
// busy (being written or read by another consumer), and ErrChannelClosed
// once the producer has signalled EXIT.
func (c *FrameChannel) Read(dst []byte) (bool, error) {
	if len(dst) != c.dims.FrameSize() {
		return false, fmt.Errorf("%w: buffer is %d bytes, want %d", ErrFrameSize, len(dst), c.dims.FrameSize())
	}

	old := c.region.load(0)
	b := unpackWord(old)
	switch Flag(b[0]) {
	case FlagExit:
		return false, ErrChannelClosed
	case FlagIdle:
	default:
		return false, nil
	}

	claimed := b
	claimed[0] = byte(FlagReading)
	if !c.region.cas(0, old, packWord(claimed)) {
		return false, nil
	}

	dst[0], dst[1], dst[2] = b[1], b[2], b[3]
	copy(dst[3:], c.region.data[4:])

	// A failed release means the producer switched to EXIT meanwhile; the
	// copy is still whole.
	c.region.cas(0, packWord(claimed), old)

	return true, nil
}

// MarkExit signals permanent shutdown to every consumer.
func (c *FrameChannel) MarkExit() {
	for {
		old := c.region.load(0)
		b := unpackWord(old)
		if Flag(b[0]) == FlagExit {
			return
		}
		b[0] = byte(FlagExit)
		if c.region.cas(0, old, packWord(b)) {
			return
		}
	}
}

// Close unmaps the channel.
func (c *FrameChannel) Close() error {
	return c.region.Close()
}

// Unlink removes the channel's name. Only the creator should call it.
func (c *FrameChannel) Unlink() error {
	return c.region.Unlink()
}
