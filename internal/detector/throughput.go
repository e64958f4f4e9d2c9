package detector

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/ayusman/typecoach/internal/shm"
)

// pacingMargin leaves the detector 10% headroom over its measured latency.
const pacingMargin = 1.1

// Throughput is the measured detection speed.
type Throughput struct {
	Samples int
	// Latency is the mean time per detection.
	Latency time.Duration
	// FPS is the highest sustainable detection rate.
	FPS float64
}

// Interval is the camera pacing interval that keeps the detector from
// falling behind.
func (t Throughput) Interval() time.Duration {
	return time.Duration(float64(t.Latency) * pacingMargin)
}

func (t Throughput) String() string {
	return fmt.Sprintf("%.1f fps, %s per frame, pace camera at %s",
		t.FPS, t.Latency.Round(time.Microsecond), t.Interval().Round(time.Microsecond))
}

// MeasureThroughput runs the detector on frame n times and reports the mean
// latency. Progress is drawn to progress; pass io.Discard to stay quiet.
func MeasureThroughput(ctx context.Context, det Detector, frame []byte, dims shm.Dimensions, n int, progress io.Writer) (Throughput, error) {
	if n <= 0 {
		return Throughput{}, fmt.Errorf("sample count must be positive, got %d", n)
	}
	if len(frame) != dims.FrameSize() {
		return Throughput{}, fmt.Errorf("%w: got %d bytes, want %d", shm.ErrFrameSize, len(frame), dims.FrameSize())
	}

	bar := progressbar.NewOptions(n,
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("Measuring detector"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Finish()

	// Warm up once so model loading is not counted.
	if _, err := detectBytes(det, frame, dims); err != nil {
		return Throughput{}, fmt.Errorf("warm-up detection: %w", err)
	}

	start := time.Now()
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return Throughput{}, err
		}
		if _, err := detectBytes(det, frame, dims); err != nil {
			return Throughput{}, fmt.Errorf("detection %d: %w", i+1, err)
		}
		bar.Add(1)
	}
	elapsed := time.Since(start)

	latency := elapsed / time.Duration(n)
	t := Throughput{Samples: n, Latency: latency}
	if latency > 0 {
		t.FPS = float64(time.Second) / float64(latency)
	}

	return t, nil
}
