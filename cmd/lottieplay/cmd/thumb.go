package cmd

import (
	"fmt"
	"image/png"
	"os"

	"github.com/go-drift/lottie/internal/demo"
	"github.com/go-drift/lottie/pkg/lottie"
)

func init() {
	RegisterCommand(&Command{
		Name:  "thumb",
		Short: "Render the first frame to a PNG file",
		Long: `Render an animation's first frame at its natural size and write
it as a PNG file.`,
		Usage: "lottieplay thumb <file> <out.png>",
		Run:   runThumb,
	})
}

func runThumb(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("input and output files are required\n\nUsage: lottieplay thumb <file> <out.png>")
	}
	content, err := lottie.ReadContent(nil, args[0])
	if err != nil {
		return err
	}
	thumbnail := lottie.ReadThumbnail(content, demo.Factory)
	if thumbnail == nil {
		return fmt.Errorf("cannot read %q as an animation", args[0])
	}
	out, err := os.Create(args[1])
	if err != nil {
		return err
	}
	defer out.Close()
	if err := png.Encode(out, thumbnail); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%dx%d)\n", args[1], thumbnail.Rect.Dx(), thumbnail.Rect.Dy())
	return nil
}
