package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/typecoach/internal/detector"
	"github.com/ayusman/typecoach/internal/poll"
	"github.com/ayusman/typecoach/internal/shm"
)

// frameWait bounds how long --measure waits for the camera's first frame.
const frameWait = 10 * time.Second

var (
	measureSamples int
	measureSave    bool
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect hands in camera frames and publish landmarks",
	Long: "Opens the frame channel written by 'typecoach camera', runs the MediaPipe " +
		"hand detector on each frame and publishes up to two hands to the result channel.\n\n" +
		"With --measure N it instead times N detections and prints the camera pacing " +
		"interval that keeps the detector from falling behind.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		frames, err := shm.OpenFrameChannel(cfg.Channel.Dir, cfg.Channel.Frames, cfg.FrameDimensions())
		if err != nil {
			return fmt.Errorf("is 'typecoach camera' running? %w", err)
		}
		defer frames.Close()

		det, err := detector.NewMediaPipeDetector(cfg.Detector)
		if err != nil {
			return err
		}
		defer det.Close()

		if measureSamples > 0 {
			return measure(ctx, frames, det)
		}

		results, err := shm.CreateResultChannel(cfg.Channel.Dir, cfg.Channel.Results)
		if err != nil {
			return err
		}
		defer func() {
			results.Unlink()
			results.Close()
		}()
		log.Printf("Result channel %s created", cfg.Channel.Results)

		svc := detector.NewService(frames, results, det, poll.New(poll.DefaultInterval), cfg.Detector)
		return svc.Run(ctx)
	},
}

// measure times detections on one live frame and reports the pacing.
func measure(ctx context.Context, frames *shm.FrameChannel, det detector.Detector) error {
	dims := frames.Dimensions()
	buf := make([]byte, dims.FrameSize())

	waitCtx, cancel := context.WithTimeout(ctx, frameWait)
	defer cancel()

	err := poll.New(10*time.Millisecond).Until(waitCtx, func() (bool, error) {
		return frames.Read(buf)
	})
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("no frame within %s", frameWait)
	}
	if err != nil {
		return err
	}

	tp, err := detector.MeasureThroughput(ctx, det, buf, dims, measureSamples, os.Stderr)
	if err != nil {
		return err
	}
	fmt.Println(tp)

	if !measureSave {
		fmt.Printf("Run the camera with --interval %s\n", tp.Interval().Round(time.Millisecond))
		return nil
	}
	if configPath == "" {
		return errors.New("--save needs --config")
	}
	cfg.Camera.Interval = tp.Interval().Round(time.Millisecond)
	if err := cfg.Save(configPath); err != nil {
		return err
	}
	fmt.Printf("Saved camera.interval=%s to %s\n", cfg.Camera.Interval, configPath)
	return nil
}

func init() {
	detectCmd.Flags().IntVar(&measureSamples, "measure", 0, "time N detections and print the recommended camera interval")
	detectCmd.Flags().BoolVar(&measureSave, "save", false, "write the measured interval to the --config file")
	rootCmd.AddCommand(detectCmd)
}
