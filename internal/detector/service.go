package detector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"gocv.io/x/gocv"

	"github.com/ayusman/typecoach/internal/hand"
	"github.com/ayusman/typecoach/internal/poll"
	"github.com/ayusman/typecoach/internal/shm"
)

// Stats counts the service's work since it started.
type Stats struct {
	Frames    uint64 `json:"frames"`
	Published uint64 `json:"published"`
	Errors    uint64 `json:"errors"`
}

// Service is the detector process loop: claim a frame, run the detector,
// publish the hands.
type Service struct {
	frames   *shm.FrameChannel
	results  *shm.ResultChannel
	detector Detector
	poller   *poll.Poller
	config   Config

	frameCount   atomic.Uint64
	publishCount atomic.Uint64
	errorCount   atomic.Uint64
}

// NewService wires a detector between an opened frame channel and a
// created result channel.
func NewService(frames *shm.FrameChannel, results *shm.ResultChannel, det Detector, poller *poll.Poller, cfg Config) *Service {
	return &Service{
		frames:   frames,
		results:  results,
		detector: det,
		poller:   poller,
		config:   cfg,
	}
}

// Run processes frames until ctx ends or the producer signals EXIT. On
// return the result channel carries EXIT so readers unwind too.
func (s *Service) Run(ctx context.Context) error {
	defer s.results.MarkExit()

	dims := s.frames.Dimensions()
	buf := make([]byte, dims.FrameSize())

	log.Printf("Detector service started (%s)", dims)

	err := s.poller.Until(ctx, func() (bool, error) {
		ok, err := s.frames.Read(buf)
		if errors.Is(err, shm.ErrChannelClosed) {
			log.Println("Frame channel closed, stopping detector")
			return true, nil
		}
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}

		s.frameCount.Add(1)
		if err := s.process(buf, dims); err != nil {
			s.errorCount.Add(1)
			log.Printf("Detection failed: %v", err)
		}
		return false, nil
	})

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}

	log.Printf("Detector service stopped: %d frames, %d published", s.frameCount.Load(), s.publishCount.Load())
	return err
}

func (s *Service) process(buf []byte, dims shm.Dimensions) error {
	hands, err := detectBytes(s.detector, buf, dims)
	if err != nil {
		return err
	}

	hands = filterHands(hands, s.config.MaxHands, s.config.MinConfidence)
	if err := s.results.Publish(hands); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	s.publishCount.Add(1)

	return nil
}

// Stats returns the current counters.
func (s *Service) Stats() Stats {
	return Stats{
		Frames:    s.frameCount.Load(),
		Published: s.publishCount.Load(),
		Errors:    s.errorCount.Load(),
	}
}

// detectBytes wraps a raw BGR frame in a Mat and runs the detector on it.
func detectBytes(det Detector, buf []byte, dims shm.Dimensions) ([]hand.Landmarks, error) {
	mat, err := gocv.NewMatFromBytes(dims.Height, dims.Width, gocv.MatTypeCV8UC3, buf)
	if err != nil {
		return nil, fmt.Errorf("wrap frame: %w", err)
	}
	defer mat.Close()

	return det.Detect(&mat)
}
