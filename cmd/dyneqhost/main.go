// Command dyneqhost runs the dynamic equalizer between the default capture
// and playback devices and serves its state as Prometheus metrics.
//
// Usage:
//
//	dyneqhost [flags]
//
// Examples:
//
//	dyneqhost --freq 3500 --gain -9 --threshold -30
//	dyneqhost --structure linear --metrics-addr :9102
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-dyneq/dsp/dyneq"
	"github.com/cwbudde/algo-dyneq/dsp/filter/design"
	"github.com/cwbudde/algo-dyneq/dsp/spectrum"
	"github.com/cwbudde/algo-dyneq/internal/host"
)

// CLI defines the command-line interface.
type CLI struct {
	SampleRate uint32  `default:"48000" help:"Device sample rate in Hz"`
	Period     uint32  `default:"256" help:"Device period in frames"`
	Structure  string  `default:"minimum" enum:"minimum,svf,parallel,matched,mixed,linear" help:"Filter structure"`
	Lookahead  float64 `default:"0" help:"Lookahead in ms"`

	Freq      float64 `default:"3000" help:"Demo band frequency in Hz"`
	Q         float64 `default:"1.4" help:"Demo band Q"`
	Gain      float64 `default:"-6" help:"Demo band target gain in dB"`
	Threshold float64 `default:"-30" help:"Demo band threshold in dB"`
	Learn     bool    `help:"Learn the demo band threshold"`

	MetricsAddr string        `default:":9102" help:"Listen address of the metrics endpoint"`
	Poll        time.Duration `default:"100ms" help:"Metrics sampling interval"`
	Debug       bool          `help:"Enable debug logging"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("dyneqhost"),
		kong.Description("Real-time 16 band dynamic equalizer"),
		kong.UsageOnError(),
	)

	level := slog.LevelInfo
	if cli.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, &cli, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("dyneqhost failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cli *CLI, logger *slog.Logger) error {
	structure, ok := dyneq.ParseStructure(cli.Structure)
	if !ok {
		return fmt.Errorf("unknown structure %q", cli.Structure)
	}

	analyzer, err := spectrum.New(spectrum.WithMaxTapDelay(int(cli.SampleRate)))
	if err != nil {
		return err
	}

	eq, err := dyneq.New(
		dyneq.WithAnalyzer(analyzer),
		dyneq.WithLatencyCallback(func(samples int) {
			logger.Info("latency changed", slog.Int("samples", samples))
		}),
	)
	if err != nil {
		return err
	}
	defer eq.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics, err := host.NewMetrics(registry)
	if err != nil {
		return err
	}

	proc, err := host.NewProcessor(eq, int(cli.Period), dyneq.NumBands, metrics, logger)
	if err != nil {
		return err
	}

	device, err := host.OpenDuplex(host.DeviceConfig{
		SampleRate:   cli.SampleRate,
		PeriodFrames: cli.Period,
	}, proc.OnData, logger)
	if err != nil {
		return err
	}
	defer device.Close()

	if err := eq.Prepare(float64(device.SampleRate()), int(cli.Period)); err != nil {
		return err
	}

	eq.Update(func(p *dyneq.Params) {
		p.Structure = structure
		p.Lookahead = cli.Lookahead

		b := &p.Bands[0]
		b.Active = true
		b.Dynamic = true
		b.Learn = cli.Learn
		b.Filter = design.Params{Type: design.Peak, Order: 2, Freq: cli.Freq, Q: cli.Q}
		b.TargetGain = cli.Gain
		b.TargetQ = cli.Q
		b.Threshold = cli.Threshold
	})

	server := &http.Server{
		Addr:              cli.MetricsAddr,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{ErrorHandling: promhttp.HTTPErrorOnError}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return analyzer.Run(ctx) })
	g.Go(func() error { return proc.Poll(ctx, cli.Poll) })
	g.Go(func() error {
		logger.Info("serving metrics", slog.String("addr", cli.MetricsAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := device.Start(); err != nil {
		return err
	}
	logger.Info("processing",
		slog.String("structure", structure.String()),
		slog.Int("latency", eq.Latency()))

	return g.Wait()
}
