package main

import (
	"bytes"
	"context"
	"image"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/inhies/go-bytesize"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"picshield/pkg/fetch"
	"picshield/pkg/protect"
	"picshield/pkg/raster"
	"picshield/pkg/store"
)

var in = flag.String("in", "", "source image file")
var url = flag.String("url", "", "source image url")
var out = flag.String("out", "", "output file, defaults to protected_<source name>")
var maxSize = flag.String("max-size", "50MB", "largest accepted source")
var watermarkOnly = flag.Bool("watermark-only", false, "overlay the label without scrambling")
var debug = flag.Bool("debug", false, "set debug")

var protectFlags = protect.BindFlags(flag.CommandLine)

func main() {
	flag.Parse()

	logger, _ := zap.NewProduction()
	if *debug {
		logger, _ = zap.NewDevelopment()
	}
	defer func() {
		_ = logger.Sync()
	}()

	if (*in == "") == (*url == "") {
		log.Fatal("exactly one of --in or --url is required")
	}

	limit, err := bytesize.Parse(*maxSize)
	if err != nil {
		log.Fatalf("invalid --max-size: %s", err)
	}

	cfg, err := protectFlags.Config()
	if err != nil {
		log.Fatal(err)
	}

	p, err := protect.New(cfg, protect.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fs := afero.NewOsFs()

	var src []byte
	var name string
	if *in != "" {
		name = *in
		if src, err = afero.ReadFile(fs, *in); err != nil {
			log.Fatal(err)
		}
		if int64(len(src)) > int64(limit) {
			log.Fatalf("%s is larger than %s", *in, limit)
		}
	} else {
		name = "image"
		if src, err = fetch.New(logger, fetch.WithLimit(limit)).Get(ctx, *url); err != nil {
			log.Fatal(err)
		}
	}

	run := p.Protect
	if *watermarkOnly {
		run = p.Watermark
	}

	result, err := run(src)
	if err != nil {
		log.Fatal(err)
	}

	dst := *out
	if dst == "" {
		dst = defaultOutput(name, src)
	}

	if err := store.WriteAtomic(fs, dst, result); err != nil {
		log.Fatal(err)
	}

	logger.With(
		zap.String("out", dst),
		zap.Stringer("size", bytesize.New(float64(len(result)))),
	).Info("written")
}

func defaultOutput(name string, src []byte) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		format = "png"
	}
	return outputPath(name, raster.OutputFormat(format))
}
