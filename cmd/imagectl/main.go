package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ds124wfegd/image-studio/internal/cli"
)

func main() {
	app := cli.New()

	if err := app.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
