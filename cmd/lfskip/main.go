// Command lfskip drives a lock-free skip list. The demo mode replays a small
// fixed scenario and dumps the levels after every step; the stress mode runs
// concurrent workers against one list and checks its structure afterwards.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	skiplist "github.com/metailurini/lfskiplist"
)

const shutdownTimeout = 5 * time.Second

type options struct {
	mode        string
	workers     int
	ops         int
	keys        int
	levels      int
	seed        int64
	budget      int
	metricsAddr string
	dump        bool
	dev         bool
}

func main() {
	var o options
	flag.StringVar(&o.mode, "mode", "demo", "demo or stress")
	flag.IntVar(&o.workers, "workers", 8, "concurrent workers in stress mode")
	flag.IntVar(&o.ops, "ops", 100000, "operations per worker in stress mode")
	flag.IntVar(&o.keys, "keys", 1024, "size of the key space in stress mode")
	flag.IntVar(&o.levels, "levels", skiplist.DefaultMaxLevel, "number of skip list levels")
	flag.Int64Var(&o.seed, "seed", 0, "seed for workers and level draws, 0 picks one from the clock")
	flag.IntVar(&o.budget, "budget", 0, "CAS retry budget per level operation, 0 keeps the library default")
	flag.StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address until interrupted")
	flag.BoolVar(&o.dump, "dump", false, "dump the list after a stress run")
	flag.BoolVar(&o.dev, "dev", true, "human friendly development logging")
	flag.Parse()

	logger, err := newLogger(o.dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, logger); err != nil {
		logger.Error("lfskip failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, o options, logger *zap.Logger) error {
	if o.seed == 0 {
		o.seed = time.Now().UnixNano()
	}
	opts := []skiplist.Option{
		skiplist.WithMaxLevel(o.levels),
		skiplist.WithSeed(uint64(o.seed)),
		skiplist.WithLogger(logger.Named("skiplist")),
	}
	if o.budget > 0 {
		opts = append(opts, skiplist.WithRetryBudget(o.budget))
	}
	sl := skiplist.New(opts...)

	var srv *http.Server
	if o.metricsAddr != "" {
		srv = serveMetrics(o.metricsAddr, sl, logger)
	}

	var err error
	switch o.mode {
	case "demo":
		err = demo(sl, logger)
	case "stress":
		err = stress(ctx, sl, o, logger)
	default:
		err = errors.Errorf("unknown mode %q", o.mode)
	}
	if err != nil || srv == nil {
		return err
	}

	logger.Info("serving metrics until interrupted", zap.String("addr", o.metricsAddr))
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "metrics server shutdown")
	}
	return nil
}

func serveMetrics(addr string, sl *skiplist.SkipList, logger *zap.Logger) *http.Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		skiplist.NewCollector(sl, "lfskip"),
		collectors.NewGoCollector(),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server closed", zap.Error(err))
		}
	}()
	return srv
}

func demo(sl *skiplist.SkipList, logger *zap.Logger) error {
	for _, k := range []int64{3, 2, 4, 6, 5} {
		if _, err := sl.Insert(k, k); err != nil {
			return errors.Wrapf(err, "insert %d", k)
		}
		if err := sl.Dump(os.Stdout); err != nil {
			return err
		}
	}

	v, ok := sl.Find(4)
	logger.Info("find", zap.Int64("key", 4), zap.Int64("value", v), zap.Bool("found", ok))

	deleted, err := sl.Delete(4)
	if err != nil {
		return errors.Wrap(err, "delete 4")
	}
	logger.Info("delete", zap.Int64("key", 4), zap.Bool("deleted", deleted))
	if err := sl.Dump(os.Stdout); err != nil {
		return err
	}
	return sl.Verify()
}

func stress(ctx context.Context, sl *skiplist.SkipList, o options, logger *zap.Logger) error {
	if o.workers < 1 || o.keys < 1 {
		return errors.Errorf("workers and keys must be positive, got %d and %d", o.workers, o.keys)
	}
	logger.Info("stress run starting",
		zap.Int("workers", o.workers),
		zap.Int("ops", o.ops),
		zap.Int("keys", o.keys),
		zap.Int64("seed", o.seed))

	began := time.Now()
	errs := make(chan error, o.workers)
	var wg sync.WaitGroup
	for w := range o.workers {
		wg.Add(1)
		go func(r *rand.Rand) {
			defer wg.Done()
			for range o.ops {
				if ctx.Err() != nil {
					return
				}
				key := int64(r.Intn(o.keys))
				var err error
				switch r.Intn(3) {
				case 0:
					_, err = sl.InsertContext(ctx, key, key)
				case 1:
					_, err = sl.DeleteContext(ctx, key)
				default:
					if v, ok := sl.Find(key); ok && v != key {
						err = errors.Errorf("key %d holds foreign value %d", key, v)
					}
				}
				if err != nil && ctx.Err() == nil {
					errs <- err
					return
				}
			}
		}(rand.New(rand.NewSource(o.seed + int64(w))))
	}
	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		return err
	}

	stats := sl.Stats()
	logger.Info("stress run finished",
		zap.Duration("elapsed", time.Since(began)),
		zap.Int64("len", sl.Len()),
		zap.Int64("insert_cas_successes", stats.InsertCASSuccesses),
		zap.Int64("insert_cas_retries", stats.InsertCASRetries),
		zap.Int64("delete_cas_successes", stats.DeleteCASSuccesses),
		zap.Int64("delete_cas_retries", stats.DeleteCASRetries),
		zap.Int64("unlinks", stats.Unlinks),
		zap.Int64("hint_fallbacks", stats.HintFallbacks),
		zap.Int64("contention", stats.Contention))

	if o.dump {
		if err := sl.Dump(os.Stdout); err != nil {
			return err
		}
	}
	if err := sl.Verify(); err != nil {
		if stats.Contention == 0 {
			return errors.Wrap(err, "structure check")
		}
		// An exhausted retry budget can strand an upper copy; lookups
		// ignore it.
		logger.Warn("structure check failed after contention",
			zap.Int64("contention", stats.Contention),
			zap.Error(err))
	}
	return nil
}
