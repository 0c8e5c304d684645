package cmd

import (
	"fmt"
	"time"

	"github.com/go-drift/lottie/internal/demo"
	"github.com/go-drift/lottie/pkg/lottie"
)

func init() {
	RegisterCommand(&Command{
		Name:  "info",
		Short: "Print animation properties",
		Long: `Print an animation's size, frame rate, frame count and duration
without playing it.`,
		Usage: "lottieplay info <file>",
		Run:   runInfo,
	})
}

func runInfo(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("animation file is required\n\nUsage: lottieplay info <file>")
	}
	path := args[0]
	content, err := lottie.ReadContent(nil, path)
	if err != nil {
		return err
	}
	state, err := lottie.Parse(content, demo.Factory, nil, lottie.FrameRequest{})
	if err != nil {
		return err
	}
	info := state.Information()
	duration := time.Duration(info.FramesCount) * time.Second / time.Duration(info.FrameRate)

	fmt.Printf("file:     %s\n", path)
	fmt.Printf("size:     %dx%d\n", info.Size.Width, info.Size.Height)
	fmt.Printf("rate:     %d fps\n", info.FrameRate)
	fmt.Printf("frames:   %d\n", info.FramesCount)
	fmt.Printf("duration: %s\n", duration)
	return nil
}
