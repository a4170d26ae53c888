package main

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/cascade"
	"github.com/hupe1980/cascade/artifact"
	"github.com/hupe1980/cascade/blobstore"
	"github.com/hupe1980/cascade/model"
	"github.com/hupe1980/cascade/resource"
)

func run(ctx context.Context, cfg config, logger *cascade.Logger) error {
	store, err := openStore(ctx, cfg.store, cfg.minioTLS)
	if err != nil {
		return err
	}
	return runWithStore(ctx, cfg, store, logger)
}

func runWithStore(ctx context.Context, cfg config, store blobstore.Store, logger *cascade.Logger) error {
	workers := cfg.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   cfg.memLimit,
		MaxWorkers:         int64(workers),
		IOLimitBytesPerSec: cfg.ioLimit,
	})

	start := time.Now()
	src, ids, err := loadRegions(ctx, store, rc)
	if err != nil {
		return err
	}
	logger.Info("regions loaded", "images", len(ids), "elapsed", time.Since(start))

	pairs, err := loadPairs(ctx, store, rc, cfg, ids)
	if err != nil {
		return err
	}

	metrics := &cascade.BasicMetricsCollector{}
	m, err := cascade.New(
		cascade.WithRatio(float32(cfg.ratio)),
		cascade.WithHashConfig(cfg.hashConfig()),
		cascade.WithWorkers(workers),
		cascade.WithLogger(logger),
		cascade.WithMetricsCollector(metrics),
		cascade.WithProgress(progressLogger(logger, pairs.Len())),
		cascade.WithResourceController(rc),
	)
	if err != nil {
		return err
	}

	matches, err := m.MatchAll(ctx, src, pairs)
	if err != nil {
		return err
	}

	data, err := artifact.EncodeMatches(matches, cfg.codec, cfg.compression)
	if err != nil {
		return err
	}
	if err := store.Put(ctx, cfg.out, data); err != nil {
		return fmt.Errorf("write %s: %w", cfg.out, err)
	}

	stats := metrics.Stats()
	logger.Info("match table written",
		"out", cfg.out,
		"bytes", len(data),
		"pairs", len(matches),
		"correspondences", stats.Correspondences,
		"skipped", stats.SkipsEmpty+stats.SkipsKindMismatch,
		"elapsed", time.Since(start),
	)
	return nil
}

// loadRegions reads every top-level "<id>.regions" blob.
func loadRegions(ctx context.Context, store blobstore.Store, rc *resource.Controller) (cascade.MemorySource, []model.ImageID, error) {
	names, err := store.List(ctx, "")
	if err != nil {
		return nil, nil, err
	}

	blobs := make(map[model.ImageID]string)
	for _, name := range names {
		stem, ok := strings.CutSuffix(name, artifact.RegionsExt)
		if !ok || strings.Contains(stem, "/") {
			continue
		}
		id, err := strconv.ParseUint(stem, 10, 32)
		if err != nil {
			continue
		}
		blobs[model.ImageID(id)] = name
	}

	var (
		mu  sync.Mutex
		src = make(cascade.MemorySource, len(blobs))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rc.MaxWorkers())

	for id, name := range blobs {
		g.Go(func() error {
			data, err := blobstore.ReadAll(gctx, store, name, rc)
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			r, err := artifact.DecodeRegions(data)
			if err != nil {
				return fmt.Errorf("decode %s: %w", name, err)
			}

			mu.Lock()
			src[id] = r
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	ids := make([]model.ImageID, 0, len(src))
	for id := range src {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return src, ids, nil
}

func loadPairs(ctx context.Context, store blobstore.Store, rc *resource.Controller, cfg config, ids []model.ImageID) (model.PairSet, error) {
	switch {
	case cfg.pairs != "":
		data, err := blobstore.ReadAll(ctx, store, cfg.pairs, rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", cfg.pairs, err)
		}
		return cascade.ParsePairs(bytes.NewReader(data))
	case cfg.contiguous > 0:
		return cascade.ContiguousPairs(ids, cfg.contiguous), nil
	default:
		return cascade.ExhaustivePairs(ids), nil
	}
}

// progressLogger logs roughly every tenth of the job.
func progressLogger(logger *cascade.Logger, total int) cascade.Progress {
	step := max(total/10, 1)
	return cascade.ProgressFunc(func(done, total int) {
		if done%step == 0 || done == total {
			logger.Info("matching", "done", done, "total", total)
		}
	})
}
