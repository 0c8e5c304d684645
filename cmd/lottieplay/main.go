// Lottieplay is a terminal previewer and inspector for Lottie JSON and TGS
// animations.
package main

import (
	"os"

	"github.com/go-drift/lottie/cmd/lottieplay/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
