package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/typecoach/internal/shm"
)

// DefaultStreamInterval paces the MJPEG stream at about 15 FPS.
const DefaultStreamInterval = 66 * time.Millisecond

// FrameSource is the read side of a frame channel.
type FrameSource interface {
	Dimensions() shm.Dimensions
	Read(dst []byte) (bool, error)
}

// StreamHandler serves MJPEG frames read from the frame channel. It is an
// observer: a busy slot is skipped, never waited on.
type StreamHandler struct {
	frames   FrameSource
	interval time.Duration
	encode   func(frame []byte, dims shm.Dimensions) ([]byte, error)
}

// NewStreamHandler creates a new StreamHandler over frames.
func NewStreamHandler(frames FrameSource, interval time.Duration) *StreamHandler {
	if interval <= 0 {
		interval = DefaultStreamInterval
	}
	return &StreamHandler{frames: frames, interval: interval, encode: encodeJPEG}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	buf := make([]byte, h.frames.Dimensions().FrameSize())
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		ok, err := h.frames.Read(buf)
		if errors.Is(err, shm.ErrChannelClosed) {
			return
		}
		if err != nil || !ok {
			continue
		}

		jpeg, err := h.encode(buf, h.frames.Dimensions())
		if err != nil {
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(jpeg))
		w.Write(jpeg)
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func encodeJPEG(frame []byte, dims shm.Dimensions) ([]byte, error) {
	mat, err := gocv.NewMatFromBytes(dims.Height, dims.Width, gocv.MatTypeCV8UC3, frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}
