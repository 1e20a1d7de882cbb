package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/folio/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file path (optional, defaults to ~/.config/folio/config.toml)")
	prefsPath := flag.String("prefs", "", "preferences file path (optional)")
	scale := flag.String("scale", "", "initial zoom: a number or auto, page-actual, page-width, page-height, page-fit")
	exportDir := flag.String("export", "", "render every page to PNG files in this directory and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: folio [flags] <document>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		DocumentPath: flag.Arg(0),
		ConfigPath:   *configPath,
		PrefsPath:    *prefsPath,
		Scale:        *scale,
		ExportDir:    *exportDir,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "folio: %v\n", err)
		return 1
	}
	return 0
}
