// Package cascade matches local image descriptors between image pairs with
// cascade hashing.
//
// Every image of a job is indexed once: its descriptors are recentered by a
// job-wide zero-mean vector, projected onto fixed random directions and
// hashed into a few coarse bucket tables plus a fine binary fingerprint.
// Matching a pair gathers, per query descriptor, the bucket-mates in the
// other image, ranks them by fingerprint Hamming distance and computes exact
// distances only for the best few. A Lowe ratio test and deduplication turn
// the two nearest neighbors into correspondences.
//
// # Quick Start
//
//	src := cascade.MemorySource{}
//	src[0], _ = cascade.NewRegions(descA, 128, pointsA) // []uint8 or []float32
//	src[1], _ = cascade.NewRegions(descB, 128, pointsB)
//
//	m, _ := cascade.New(cascade.WithRatio(0.8), cascade.WithWorkers(8))
//	matches, _ := m.MatchAll(ctx, src, cascade.ExhaustivePairs([]model.ImageID{0, 1}))
//	for _, c := range matches[model.NewPair(0, 1)] {
//	    fmt.Println(c.A, c.B) // descriptor c.A of image 0 matches c.B of image 1
//	}
//
// # Pairs
//
//	cascade.ExhaustivePairs(ids)     // all unordered pairs
//	cascade.ContiguousPairs(ids, 5)  // each image with the next five
//	cascade.ParsePairs(r)            // "i j k..." lines
//
// # Determinism
//
// Projections are drawn from a seeded generator (WithSeed). For a fixed seed
// and input the table is identical across runs and worker counts; only the
// order in which pairs complete varies.
//
// # Observability
//
//	m, _ := cascade.New(
//	    cascade.WithLogger(cascade.NewJSONLogger(slog.LevelInfo)),
//	    cascade.WithMetricsCollector(&cascade.BasicMetricsCollector{}),
//	    cascade.WithProgress(cascade.ProgressFunc(func(done, total int) { ... })),
//	)
package cascade
