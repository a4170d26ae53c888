// Command cascadematch computes putative correspondences between the
// images of a feature store.
//
// Every image is a blob named "<id>.regions" in the store. The match table
// is written back to the same store.
//
// Usage:
//
//	cascadematch -store ./features -contiguous 5 -out matches.chmt
//	cascadematch -store s3://bucket/sfm/features -pairs pairs.txt
//	cascadematch -store minio://localhost:9000/bucket/features
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hupe1980/cascade"
	"github.com/hupe1980/cascade/artifact"
	"github.com/hupe1980/cascade/codec"
)

type config struct {
	store      string
	minioTLS   bool
	pairs      string
	contiguous int
	out        string

	ratio      float64
	seed       int64
	groups     int
	bits       int
	codeBits   int
	top        int
	noFallback bool

	workers  int
	memLimit int64
	ioLimit  int64

	compression artifact.Compression
	codec       codec.Codec

	logLevel slog.Level
	logJSON  bool
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	def := cascade.DefaultHashConfig()

	var (
		cfg         config
		compression string
		codecName   string
		logLevel    string
	)

	fs := flag.NewFlagSet("cascadematch", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&cfg.store, "store", ".", "feature store: directory, s3://bucket/prefix or minio://endpoint/bucket/prefix")
	fs.BoolVar(&cfg.minioTLS, "minio-tls", false, "use TLS for minio:// stores")
	fs.StringVar(&cfg.pairs, "pairs", "", "blob with one \"i j...\" line per image (default: all pairs)")
	fs.IntVar(&cfg.contiguous, "contiguous", 0, "match each image with the next N images in id order instead of all pairs")
	fs.StringVar(&cfg.out, "out", "matches.chmt", "name of the match table blob to write")
	fs.Float64Var(&cfg.ratio, "ratio", float64(cascade.DefaultRatio), "nearest-neighbor distance ratio")
	fs.Int64Var(&cfg.seed, "seed", def.Seed, "projection seed")
	fs.IntVar(&cfg.groups, "groups", def.Groups, "number of primary hash groups")
	fs.IntVar(&cfg.bits, "bits", def.BitsPerGroup, "bits per primary hash group")
	fs.IntVar(&cfg.codeBits, "code-bits", def.CodeBits, "length of the secondary hash code")
	fs.IntVar(&cfg.top, "top", def.TopCandidates, "candidates ranked by exact distance per query")
	fs.BoolVar(&cfg.noFallback, "no-fallback", !def.ExhaustiveFallback, "drop queries whose buckets hold fewer than two candidates")
	fs.IntVar(&cfg.workers, "workers", 0, "concurrent workers (default: GOMAXPROCS)")
	fs.Int64Var(&cfg.memLimit, "mem-limit", 0, "memory limit for hash indices in bytes (0: unlimited)")
	fs.Int64Var(&cfg.ioLimit, "io-limit", 0, "read rate limit in bytes per second (0: unlimited)")
	fs.StringVar(&compression, "compression", "zstd", "match table compression: none, lz4, zstd")
	fs.StringVar(&codecName, "codec", codec.Default.Name(), "match table codec: json, go-json")
	fs.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.BoolVar(&cfg.logJSON, "log-json", false, "log in JSON")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if fs.NArg() > 0 {
		return config{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if cfg.pairs != "" && cfg.contiguous > 0 {
		return config{}, errors.New("-pairs and -contiguous are mutually exclusive")
	}
	if cfg.contiguous < 0 {
		return config{}, fmt.Errorf("invalid -contiguous %d", cfg.contiguous)
	}

	var err error
	if cfg.compression, err = artifact.ParseCompression(compression); err != nil {
		return config{}, err
	}
	var ok bool
	if cfg.codec, ok = codec.ByName(codecName); !ok {
		return config{}, fmt.Errorf("unknown codec %q", codecName)
	}
	if err := cfg.logLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return config{}, err
	}

	return cfg, nil
}

func (c config) hashConfig() cascade.HashConfig {
	return cascade.HashConfig{
		Groups:             c.groups,
		BitsPerGroup:       c.bits,
		CodeBits:           c.codeBits,
		TopCandidates:      c.top,
		Seed:               c.seed,
		ExhaustiveFallback: !c.noFallback,
	}
}

func (c config) logger() *cascade.Logger {
	if c.logJSON {
		return cascade.NewJSONLogger(c.logLevel)
	}
	return cascade.NewTextLogger(c.logLevel)
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := cfg.logger()
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("cascadematch failed", "error", err)
		stop()
		os.Exit(1)
	}
}
