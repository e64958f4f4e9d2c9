package capture

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/typecoach/internal/poll"
	"github.com/ayusman/typecoach/internal/shm"
)

// ProducerStats counts frames since the producer started.
type ProducerStats struct {
	Captured uint64 `json:"captured"`
	Written  uint64 `json:"written"`
	Dropped  uint64 `json:"dropped"`
	Failed   uint64 `json:"failed"`
}

// Producer is the camera process loop: read a frame, write it to the frame
// channel, wait the pacing interval. A failed read waits one backoff
// interval before the next attempt.
type Producer struct {
	camera   Camera
	frames   *shm.FrameChannel
	interval atomic.Int64
	backoff  *poll.Poller

	captured atomic.Uint64
	written  atomic.Uint64
	dropped  atomic.Uint64
	failed   atomic.Uint64
}

// NewProducer creates a Producer. An interval of zero captures as fast as
// the camera delivers.
func NewProducer(camera Camera, frames *shm.FrameChannel, interval time.Duration) *Producer {
	p := &Producer{camera: camera, frames: frames, backoff: poll.New(poll.DefaultInterval)}
	p.SetInterval(interval)
	return p
}

// SetInterval changes the pacing interval, e.g. after measuring detector
// throughput.
func (p *Producer) SetInterval(d time.Duration) {
	if d < 0 {
		d = 0
	}
	p.interval.Store(int64(d))
}

// Interval returns the pacing interval.
func (p *Producer) Interval() time.Duration {
	return time.Duration(p.interval.Load())
}

// Run captures until ctx ends, the camera is closed or a frame has the wrong
// size. It marks the frame channel EXIT on return so the detector shuts down.
func (p *Producer) Run(ctx context.Context) error {
	defer p.frames.MarkExit()

	dims := p.frames.Dimensions()
	log.Printf("Camera producer started (%s, interval %s)", dims, p.Interval())

	for {
		if ctx.Err() != nil {
			log.Printf("Camera producer stopped: %d captured, %d written, %d dropped",
				p.captured.Load(), p.written.Load(), p.dropped.Load())
			return nil
		}

		if err := p.captureOne(dims); err != nil {
			if isFatal(err) {
				return err
			}
			p.failed.Add(1)
			log.Printf("Capture failed: %v", err)
			p.backoff.Sleep(ctx)
			continue
		}

		if d := p.Interval(); d > 0 {
			poll.New(d).Sleep(ctx)
		}
	}
}

func isFatal(err error) bool {
	return errors.Is(err, ErrCameraNotOpen) ||
		errors.Is(err, ErrResolutionUnavailable) ||
		errors.Is(err, shm.ErrChannelClosed)
}

func (p *Producer) captureOne(dims shm.Dimensions) error {
	mat, err := p.camera.ReadFrame()
	if err != nil {
		return err
	}
	defer mat.Close()

	p.captured.Add(1)

	if err := checkFrame(mat, dims); err != nil {
		return err
	}

	ok, err := p.frames.Write(mat.ToBytes())
	if err != nil {
		return err
	}
	if ok {
		p.written.Add(1)
	} else {
		p.dropped.Add(1)
	}
	return nil
}

func checkFrame(mat *gocv.Mat, dims shm.Dimensions) error {
	if mat.Cols() != dims.Width || mat.Rows() != dims.Height || mat.Channels() != dims.Channels {
		return fmt.Errorf("%w: frame is %dx%dx%d, channel expects %s",
			ErrResolutionUnavailable, mat.Cols(), mat.Rows(), mat.Channels(), dims)
	}
	return nil
}

// Stats returns the current counters.
func (p *Producer) Stats() ProducerStats {
	return ProducerStats{
		Captured: p.captured.Load(),
		Written:  p.written.Load(),
		Dropped:  p.dropped.Load(),
		Failed:   p.failed.Load(),
	}
}
