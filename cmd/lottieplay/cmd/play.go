package cmd

import (
	"fmt"

	"github.com/go-drift/lottie/cmd/lottieplay/internal/config"
	"github.com/go-drift/lottie/cmd/lottieplay/internal/ui"
	"github.com/go-drift/lottie/internal/demo"
	"github.com/go-drift/lottie/pkg/lottie"
)

func init() {
	RegisterCommand(&Command{
		Name:  "play",
		Short: "Play an animation in the terminal",
		Long: `Play a Lottie JSON or TGS animation in the terminal.

Playback settings (loop, frame size, tint) come from lottieplay.yaml in the
current directory when present.

Controls:
  space   pause/resume
  q       quit`,
		Usage: "lottieplay play <file>",
		Run:   runPlay,
	})
}

func runPlay(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("animation file is required\n\nUsage: lottieplay play <file>")
	}
	path := args[0]
	if !lottie.ValidateFile(path) {
		return fmt.Errorf("unsupported file %q: want .json or .tgs", path)
	}
	content, err := lottie.ReadContent(nil, path)
	if err != nil {
		return err
	}
	settings, err := config.Resolve(".")
	if err != nil {
		return err
	}
	return ui.Run(ui.New(path, content, demo.Factory, settings))
}
