// Command typecoach checks touch-typing fingering from a camera.
//
// The pipeline runs as three processes connected by shared memory:
//
//	typecoach camera   # capture frames
//	typecoach detect   # find hands in each frame
//	typecoach run      # calibrate, then judge every keystroke
package main

import "github.com/ayusman/typecoach/internal/cli"

func main() {
	cli.Execute()
}
