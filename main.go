package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pirosb3/feedconsole/config"
	"github.com/pirosb3/feedconsole/feed"
	"github.com/pirosb3/feedconsole/metrics"
	"github.com/pirosb3/feedconsole/supervisor"
)

var banner = strings.Repeat("=", 60)

func main() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, config.Default(), os.Stdout, log.StandardLogger())
	stop()
	os.Exit(code)
}

// run subscribes to both feeds and blocks until they have all stopped. It returns
// the process exit status.
func run(ctx context.Context, cfg config.Config, out io.Writer, logger *log.Logger) int {
	fmt.Fprintf(out, "%s\nMatching Engine WebSocket Client\n%s\n\n", banner, banner)

	collector := metrics.NewCollector()
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, collector, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	opts := feed.Options{Metrics: collector, Logger: logger}
	sup := supervisor.New(cfg.ExitPolicy, logger)
	results := sup.Start(ctx,
		feed.NewMarketData(cfg, out, opts),
		feed.NewTrades(cfg, out, opts),
	)

	if ctx.Err() != nil {
		fmt.Fprintln(out, "\nDisconnected")
		return 0
	}

	failed := supervisor.Failed(results)
	logger.WithField("failed", len(failed)).Warningln("All feeds stopped")
	if len(failed) > 0 {
		return 1
	}
	return 0
}

func serveMetrics(addr string, collector *metrics.Collector, logger *log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithField("addr", addr).WithField("err", err.Error()).Warningln("Metrics listener unavailable")
		}
	}()
	return srv
}
