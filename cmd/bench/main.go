// Command bench runs a synthetic load-throughput workload against a
// Loader, serves Prometheus metrics, and optionally exposes a pprof
// endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/riftcache/assets/assets"
	"github.com/riftcache/assets/id"
	pmet "github.com/riftcache/assets/metrics/prom"
	"github.com/riftcache/assets/source"
)

// genSource is a synthetic in-memory Source: `keys` distinct ids, each
// backed by a small fixed payload, with an artificial per-call latency to
// make decode contention (and the dedup it drives) visible in the
// reported hit rate.
type genSource struct {
	payload []byte
	latency time.Duration
}

func (s *genSource) Find(_ context.Context, _ string, _ string) (id.AssetID, bool, error) {
	return 0, false, nil
}

func (s *genSource) Load(_ context.Context, asset id.AssetID) (source.Data, bool, error) {
	if s.latency > 0 {
		time.Sleep(s.latency)
	}
	return source.Data{Bytes: s.payload, Version: 1}, true, nil
}

func (s *genSource) Update(_ context.Context, _ id.AssetID, _ uint64) (source.Data, bool, error) {
	return source.Data{}, false, nil
}

type noBuilder struct{}

var blobType = assets.Trivial[[]byte, noBuilder]("Blob", func(data []byte) ([]byte, error) {
	return data, nil
})

func main() {
	var (
		shards  = flag.Int("shards", 0, "number of shards (0=auto)")
		workers = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")

		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		keys     = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS    = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV    = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		latency  = flag.Duration("source_latency", 0, "simulated per-Load latency")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	metrics := pmet.New(nil, "assets", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	src := &genSource{payload: []byte("benchmark payload"), latency: *latency}
	loader := assets.NewLoaderBuilder().
		WithSources(src).
		WithShardCount(*shards).
		WithMetrics(metrics).
		Build()

	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}
	keysMax := uint64(*keys - 1)

	var ops, errs uint64

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				loader.ReportShardMetrics()
			case <-ctx.Done():
				return
			}
		}
	}()

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workersN; w++ {
		w := w
		g.Go(func() error {
			localR := rand.New(rand.NewSource(*seed + int64(w)*9973))
			localZipf := rand.NewZipf(localR, *zipfS, *zipfV, keysMax)

			for {
				select {
				case <-gctx.Done():
					return nil
				default:
				}

				aid := id.AssetID(localZipf.Uint64() | 1)
				h := assets.Load(loader, blobType, assets.ByID(aid))
				_, err := h.AwaitLoaded(gctx)
				atomic.AddUint64(&ops, 1)
				if err != nil {
					atomic.AddUint64(&errs, 1)
				}
			}
		})
	}
	_ = g.Wait()
	elapsed := time.Since(start)

	opsN := atomic.LoadUint64(&ops)
	errsN := atomic.LoadUint64(&errs)

	fmt.Printf("shards=%d workers=%d keys=%d dur=%v seed=%d\n", loader.ShardCount(), workersN, *keys, elapsed, *seed)
	fmt.Printf("ops=%d (%.0f ops/s)  errors=%d\n", opsN, float64(opsN)/elapsed.Seconds(), errsN)
}
