// imghash computes and compares perceptual image hashes from the command
// line.
//
//	imghash hash [flags] FILE...    print "FILE<TAB>WxH:hex" per file
//	imghash compare A B             A and B are shaped hashes or image files
//	imghash decode WxH:hex          print the bit grid
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"imghash/internal/config"
	"imghash/internal/imagehash"
	"imghash/internal/imageprocessing"
	"imghash/internal/logging"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

const usage = "usage: imghash hash|compare|decode [flags] ARGS..."

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	switch args[0] {
	case "-h", "--help", "help":
		fmt.Fprintln(out, usage)
		return nil
	}

	var configPath, algorithm, colorSpace, resize, logLevel string
	var width, height, factor, workers int

	flagSet := pflag.NewFlagSet("imghash "+args[0], pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config (default: $"+config.EnvVar+")")
	flagSet.StringVarP(&algorithm, "algorithm", "a", "", "average, median, difference or perceptual")
	flagSet.IntVarP(&width, "width", "W", 0, "hash width")
	flagSet.IntVarP(&height, "height", "H", 0, "hash height")
	flagSet.IntVar(&factor, "factor", 0, "perceptual upscale factor")
	flagSet.StringVar(&colorSpace, "color-space", "", "rec601 or rec709")
	flagSet.StringVar(&resize, "resize", "", "resize backend, imaging or nfnt")
	flagSet.IntVarP(&workers, "workers", "j", 0, "files hashed in parallel")
	flagSet.StringVar(&logLevel, "log-level", "warning", "log level")
	flagSet.SetOutput(out)
	if err := flagSet.Parse(args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if algorithm != "" {
		cfg.Hash.Algorithm = algorithm
	}
	if width != 0 {
		cfg.Hash.Width = width
	}
	if height != 0 {
		cfg.Hash.Height = height
	}
	if factor != 0 {
		cfg.Hash.Factor = factor
	}
	if colorSpace != "" {
		cfg.Hash.ColorSpace = colorSpace
	}
	if resize != "" {
		cfg.Hash.Resize = resize
	}
	if workers != 0 {
		cfg.Images.Workers = workers
	}

	log, closer, err := logging.Setup(logLevel, cfg.Log.Format, "")
	if err != nil {
		return err
	}
	defer closer.Close()

	switch args[0] {
	case "hash":
		hasher, err := cfg.Hash.NewHasher()
		if err != nil {
			return err
		}
		return hashFiles(out, hasher, flagSet.Args(), cfg.Images.Workers, log)
	case "compare":
		if flagSet.NArg() != 2 {
			return errors.New("compare takes exactly two hashes or files")
		}
		hasher, err := cfg.Hash.NewHasher()
		if err != nil {
			return err
		}
		return compare(out, hasher, flagSet.Arg(0), flagSet.Arg(1))
	case "decode":
		if flagSet.NArg() != 1 {
			return errors.New("decode takes exactly one shaped hash")
		}
		return decode(out, flagSet.Arg(0))
	}
	return errors.Errorf("unknown command %q", args[0])
}

type result struct {
	hash imagehash.BitMatrix
	err  error
}

// hashFiles hashes paths on a bounded worker pool and prints the results
// in input order. Failed files are logged and reported in the returned error.
func hashFiles(out io.Writer, hasher *imageprocessing.Hasher, paths []string, workers int, log logrus.FieldLogger) error {
	if len(paths) == 0 {
		return errors.New("no files given")
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]result, len(paths))
	var wg sync.WaitGroup
	threadLimit := make(chan struct{}, workers)

	for i, path := range paths {
		wg.Add(1)
		threadLimit <- struct{}{}

		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-threadLimit }()

			m, err := hasher.HashFile(path)
			results[i] = result{hash: m, err: err}
		}(i, path)
	}
	wg.Wait()

	failed := 0
	for i, r := range results {
		if r.err != nil {
			log.WithField("filename", paths[i]).WithError(r.err).Error("Could not hash file")
			failed++
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", paths[i], r.hash)
	}
	if failed > 0 {
		return errors.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}

// resolve treats arg as a shaped hash when it parses as one and as an
// image path otherwise.
func resolve(hasher *imageprocessing.Hasher, arg string) (imagehash.BitMatrix, error) {
	if m, err := imagehash.ParseShaped(arg); err == nil {
		return m, nil
	}
	return hasher.HashFile(arg)
}

func compare(out io.Writer, hasher *imageprocessing.Hasher, a, b string) error {
	ha, err := resolve(hasher, a)
	if err != nil {
		return err
	}
	hb, err := resolve(hasher, b)
	if err != nil {
		return err
	}
	distance, err := imagehash.Distance(ha, hb)
	if err != nil {
		return err
	}
	similarity, _ := imagehash.Similarity(ha, hb)
	fmt.Fprintf(out, "distance %d similarity %.2f%%\n", distance, similarity)
	return nil
}

func decode(out io.Writer, shaped string) error {
	m, err := imagehash.ParseShaped(shaped)
	if err != nil {
		return err
	}
	for _, row := range m.Rows() {
		var b strings.Builder
		for _, bit := range row {
			if bit {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
		fmt.Fprintln(out, b.String())
	}
	return nil
}
