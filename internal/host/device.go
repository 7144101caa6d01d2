package host

import (
	"fmt"
	"log/slog"

	"github.com/gen2brain/malgo"
)

// DeviceConfig selects the duplex stream format.
type DeviceConfig struct {
	SampleRate   uint32
	PeriodFrames uint32
}

// Device is an open full-duplex stream with stereo float32 input and
// output on the default devices.
type Device struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	logger *slog.Logger
}

// OpenDuplex opens the default capture and playback devices and routes
// their data through onData.
func OpenDuplex(cfg DeviceConfig, onData malgo.DataProc, logger *slog.Logger) (*Device, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "device"))

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("malgo", slog.String("message", message))
	})
	if err != nil {
		return nil, fmt.Errorf("host: init audio context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Duplex)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 2
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = 2
	deviceConfig.SampleRate = cfg.SampleRate
	deviceConfig.PeriodSizeInFrames = cfg.PeriodFrames
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onData})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("host: init duplex device: %w", err)
	}

	logger.Info("duplex device ready",
		slog.Int("sample_rate", int(device.SampleRate())),
		slog.Int("period_frames", int(cfg.PeriodFrames)))

	return &Device{ctx: ctx, device: device, logger: logger}, nil
}

// SampleRate returns the rate the device actually runs at.
func (d *Device) SampleRate() uint32 {
	return d.device.SampleRate()
}

// Start starts the stream.
func (d *Device) Start() error {
	if err := d.device.Start(); err != nil {
		return fmt.Errorf("host: start device: %w", err)
	}

	return nil
}

// Close stops the stream and releases the device.
func (d *Device) Close() error {
	if err := d.device.Stop(); err != nil {
		d.logger.Warn("stop device", slog.Any("error", err))
	}
	d.device.Uninit()

	err := d.ctx.Uninit()
	d.ctx.Free()
	if err != nil {
		return fmt.Errorf("host: release audio context: %w", err)
	}

	return nil
}
