package cli

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/typecoach/internal/capture"
	"github.com/ayusman/typecoach/internal/shm"
)

var (
	cameraDevice   int
	cameraInterval time.Duration
)

var cameraCmd = &cobra.Command{
	Use:   "camera",
	Short: "Capture camera frames into the frame channel",
	Long: "Creates the frame channel and writes one camera frame into it per cycle. " +
		"Stopping the camera marks the channel EXIT, which shuts the detector down.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("device") {
			cfg.Camera.Device = cameraDevice
		}
		if cmd.Flags().Changed("interval") {
			cfg.Camera.Interval = cameraInterval
		}

		dims := cfg.FrameDimensions()
		frames, err := shm.CreateFrameChannel(cfg.Channel.Dir, cfg.Channel.Frames, dims)
		if err != nil {
			return err
		}
		defer func() {
			frames.Unlink()
			frames.Close()
		}()
		log.Printf("Frame channel %s created (%s)", cfg.Channel.Frames, dims)

		camera := capture.NewCamera(cfg.CaptureConfig())
		if err := camera.Open(); err != nil {
			frames.MarkExit()
			return fmt.Errorf("failed to open camera %d: %w", cfg.Camera.Device, err)
		}
		defer camera.Close()

		producer := capture.NewProducer(camera, frames, cfg.Camera.Interval)
		return producer.Run(cmd.Context())
	},
}

func init() {
	cameraCmd.Flags().IntVar(&cameraDevice, "device", 0, "camera device index")
	cameraCmd.Flags().DurationVar(&cameraInterval, "interval", 0, "minimum time between frames (see detect --measure)")
	rootCmd.AddCommand(cameraCmd)
}
