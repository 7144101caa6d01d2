// Package host runs the equalizer engine on a full-duplex sound card and
// exports its state as Prometheus metrics.
package host

import (
	"context"
	"log/slog"
	"time"
)

// Engine is the part of dyneq.Controller the host drives.
type Engine interface {
	Process(buf [][]float64)
	Latency() int
	DynamicGain(i int) (float64, error)
}

// Processor adapts an Engine to the device data callback.
type Processor struct {
	engine  Engine
	conv    *Converter
	metrics *Metrics
	logger  *slog.Logger
	bands   int
}

// NewProcessor returns a processor for callbacks of up to maxFrames frames.
// Larger callbacks are processed in chunks. metrics may be nil.
func NewProcessor(engine Engine, maxFrames, bands int, metrics *Metrics, logger *slog.Logger) (*Processor, error) {
	conv, err := NewConverter(maxFrames)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Processor{
		engine:  engine,
		conv:    conv,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "host")),
		bands:   bands,
	}, nil
}

// OnData processes one device callback: out receives the processed input.
// Its signature matches the malgo data callback.
func (p *Processor) OnData(out, in []byte, frameCount uint32) {
	start := time.Now()
	frames := int(frameCount)
	chunk := p.conv.MaxFrames()

	if p.metrics != nil && frames > chunk {
		p.metrics.Oversized.Inc()
	}

	for off := 0; off < frames; off += chunk {
		n := min(chunk, frames-off)
		buf := p.conv.Deinterleave(in, off, n)
		p.engine.Process(buf)
		p.conv.Interleave(out, off, buf)
	}

	if p.metrics != nil {
		p.metrics.Blocks.Inc()
		p.metrics.Frames.Add(float64(frames))
		p.metrics.CallbackSeconds.Observe(time.Since(start).Seconds())
	}
}

// Sample copies the engine readouts into the metrics.
func (p *Processor) Sample() {
	if p.metrics == nil {
		return
	}

	p.metrics.Latency.Set(float64(p.engine.Latency()))
	for i := range p.bands {
		gain, err := p.engine.DynamicGain(i)
		if err != nil {
			p.logger.Debug("band gain unavailable", slog.Int("band", i), slog.Any("error", err))
			return
		}
		p.metrics.SetBandGain(i, gain)
	}
}

// Poll calls Sample every interval until ctx is done.
func (p *Processor) Poll(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Sample()
		}
	}
}
