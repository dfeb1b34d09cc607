// shapedump reads one document in a self-describing format, captures it as
// buffered shape content, and prints the captured tree.
//
// Usage:
//
//	shapedump [flags] [file]
//
// With no file, the document is read from stdin. --replay additionally
// decodes the document directly, through reference replay and through
// consuming replay, and fails if the three generic values differ.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/dhoelle/shape"
	"github.com/dhoelle/shape/shapecbor"
	"github.com/dhoelle/shape/shapejson"
	"github.com/dhoelle/shape/shapemsgpack"
	"github.com/dhoelle/shape/shapeyaml"
	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var formats = []string{"json", "jsonc", "msgpack", "cbor", "yaml"}

type options struct {
	format     string
	decompress string
	color      string
	replay     bool
	zeroCopy   bool
	maxDepth   int
	verbose    bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var opts options
	flags := pflag.NewFlagSet("shapedump", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&opts.format, "format", "f", "", "input format: "+strings.Join(formats, ", ")+" (default: from file extension, else json)")
	flags.StringVar(&opts.decompress, "decompress", "", "decompress input first: zstd or lz4 (default: from file extension)")
	flags.StringVar(&opts.color, "color", "auto", "style kind labels: auto, always or never")
	flags.BoolVar(&opts.replay, "replay", false, "verify that replaying the captured content matches a direct decode")
	flags.BoolVar(&opts.zeroCopy, "zero-copy", false, "capture CBOR strings as borrowed slices of the input")
	flags.IntVar(&opts.maxDepth, "max-depth", 0, "nesting limit (default 128)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if flags.NArg() > 1 {
		return fmt.Errorf("expected at most one input file, got %d", flags.NArg())
	}

	logger := newLogger(stderr, opts.verbose)

	input := stdin
	if flags.NArg() == 1 {
		path := flags.Arg(0)
		inferFromPath(&opts, path)
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer file.Close()
		input = file
	}
	if opts.format == "" {
		opts.format = "json"
	}

	decode, err := decoderFor(opts, logger)
	if err != nil {
		return err
	}
	p, err := newPrinter(stdout, opts.color)
	if err != nil {
		return err
	}

	data, err := readInput(input, opts.decompress)
	if err != nil {
		return err
	}
	logger.Debug("read input", "format", opts.format, "bytes", len(data))

	content, err := decodeAs(data, shape.CaptureContent, decode)
	if err != nil {
		return fmt.Errorf("failed to capture %s document: %w", opts.format, err)
	}
	if err := p.print(&content); err != nil {
		return err
	}

	if opts.replay {
		if err := verifyReplay(data, &content, decode); err != nil {
			return err
		}
		logger.Info("replay matches direct decode", "format", opts.format)
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}

// inferFromPath fills in unset format and compression options from the
// file name, e.g. "events.cbor.zst".
func inferFromPath(opts *options, path string) {
	ext := strings.ToLower(filepath.Ext(path))
	if opts.decompress == "" {
		switch ext {
		case ".zst", ".zstd":
			opts.decompress = "zstd"
		case ".lz4":
			opts.decompress = "lz4"
		}
		if opts.decompress != "" {
			ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(path, filepath.Ext(path))))
		}
	}
	if opts.format != "" {
		return
	}
	switch ext {
	case ".json":
		opts.format = "json"
	case ".jsonc":
		opts.format = "jsonc"
	case ".msgpack", ".mpk":
		opts.format = "msgpack"
	case ".cbor":
		opts.format = "cbor"
	case ".yaml", ".yml":
		opts.format = "yaml"
	}
}

func readInput(r io.Reader, decompress string) ([]byte, error) {
	switch decompress {
	case "":
	case "zstd":
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		defer dec.Close()
		r = dec
	case "lz4":
		r = lz4.NewReader(r)
	default:
		return nil, fmt.Errorf("unknown compression %q (want zstd or lz4)", decompress)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}

// decoder runs a decode function over a whole document.
type decoder func(data []byte, decode func(shape.Deserializer) (any, error)) (any, error)

func decodeAs[T any](data []byte, decode func(shape.Deserializer) (T, error), dec decoder) (T, error) {
	v, err := dec(data, func(d shape.Deserializer) (any, error) { return decode(d) })
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

func decoderFor(opts options, logger *slog.Logger) (decoder, error) {
	switch opts.format {
	case "json", "jsonc":
		o := &shapejson.Options{AllowComments: opts.format == "jsonc", MaxDepth: opts.maxDepth}
		return func(data []byte, decode func(shape.Deserializer) (any, error)) (any, error) {
			return shapejson.Unmarshal(data, decode, o)
		}, nil
	case "msgpack":
		o := &shapemsgpack.Options{MaxDepth: opts.maxDepth}
		return func(data []byte, decode func(shape.Deserializer) (any, error)) (any, error) {
			return shapemsgpack.Unmarshal(data, decode, o)
		}, nil
	case "cbor":
		o := &shapecbor.Options{ZeroCopy: opts.zeroCopy, MaxDepth: opts.maxDepth}
		return func(data []byte, decode func(shape.Deserializer) (any, error)) (any, error) {
			if logger.Enabled(context.Background(), slog.LevelDebug) {
				if diag, err := cbor.Diagnose(data); err == nil {
					logger.Debug("cbor diagnostic notation", "value", diag)
				}
			}
			return shapecbor.Unmarshal(data, decode, o)
		}, nil
	case "yaml":
		o := &shapeyaml.Options{MaxDepth: opts.maxDepth}
		return func(data []byte, decode func(shape.Deserializer) (any, error)) (any, error) {
			return shapeyaml.Unmarshal(data, decode, o)
		}, nil
	}
	return nil, fmt.Errorf("unknown format %q (want one of %s)", opts.format, strings.Join(formats, ", "))
}

// verifyReplay decodes data into a generic value three ways and reports the
// first path that disagrees with the direct decode. The consuming replay
// runs last since it takes content apart.
func verifyReplay(data []byte, content *shape.Content, dec decoder) error {
	direct, err := decodeAs(data, shape.Value, dec)
	if err != nil {
		return fmt.Errorf("failed to decode document directly: %w", err)
	}
	for i := range 2 {
		byRef, err := shape.Value(shape.NewContentRefDeserializer(content))
		if err != nil {
			return fmt.Errorf("failed reference replay %d: %w", i+1, err)
		}
		if !reflect.DeepEqual(direct, byRef) {
			return fmt.Errorf("reference replay %d mismatch:\n direct: %#v\n replay: %#v", i+1, direct, byRef)
		}
	}
	consumed, err := shape.Value(shape.NewContentDeserializer(*content))
	if err != nil {
		return fmt.Errorf("failed consuming replay: %w", err)
	}
	if !reflect.DeepEqual(direct, consumed) {
		return fmt.Errorf("consuming replay mismatch:\n direct: %#v\n replay: %#v", direct, consumed)
	}
	return nil
}
