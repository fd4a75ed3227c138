package capture

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
)

// Device opens mono int16 input streams.
type Device interface {
	Open(cfg model.CaptureConfig) (Stream, error)
}

// Stream delivers fixed-size chunks of samples. Read blocks until a full chunk
// is available. Close stops the stream and releases the device handle.
type Stream interface {
	Read() ([]int16, error)
	Close() error
}

// Capturer records a fixed-length clip. It blocks for the full duration;
// there is no early stop and no voice-activity detection.
type Capturer struct {
	device Device
	cfg    model.CaptureConfig
}

func NewCapturer(device Device, cfg model.CaptureConfig) (*Capturer, error) {
	if device == nil {
		return nil, utils.WrapIfNotNil(errors.New("capture device is required"))
	}

	defaults := model.DefaultCaptureConfig()
	if cfg.Duration <= 0 {
		cfg.Duration = defaults.Duration
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = defaults.SampleRate
	}
	if cfg.ChunkFrames <= 0 {
		cfg.ChunkFrames = defaults.ChunkFrames
	}
	cfg.Channels = defaults.Channels

	return &Capturer{device: device, cfg: cfg}, nil
}

func (c *Capturer) Config() model.CaptureConfig {
	return c.cfg
}

// Record captures audio and writes it as a WAV file at outputPath. The file is
// closed before Record returns, so the clip is safe to hand to a recognizer.
func (c *Capturer) Record(ctx context.Context, outputPath string) (model.AudioClip, error) {
	log := logging.NewLogger(ctx)
	if strings.TrimSpace(outputPath) == "" {
		return model.AudioClip{}, utils.WrapIfNotNil(errors.New("output path is required"))
	}

	log.Infof(
		"capture_request duration=%s sample_rate=%d chunk_frames=%d chunks=%d",
		c.cfg.Duration,
		c.cfg.SampleRate,
		c.cfg.ChunkFrames,
		c.cfg.ChunkCount(),
	)

	samples, err := c.readSamples()
	if err != nil {
		log.Errorf("error: %v", err)
		return model.AudioClip{}, utils.WrapIfNotNil(err)
	}

	err = WriteWAV(outputPath, samples, c.cfg.SampleRate, c.cfg.Channels)
	if err != nil {
		_ = os.Remove(outputPath)
		log.Errorf("error: %v", err)
		return model.AudioClip{}, utils.WrapIfNotNil(err)
	}

	return model.AudioClip{
		Path:       outputPath,
		MIMEType:   "audio/wav",
		SampleRate: c.cfg.SampleRate,
		Channels:   c.cfg.Channels,
		Duration:   samplesDuration(len(samples), c.cfg.SampleRate),
	}, nil
}

func (c *Capturer) readSamples() (samples []int16, err error) {
	stream, err := c.device.Open(c.cfg)
	if err != nil {
		return nil, utils.WrapWithKind(model.ErrDeviceUnavailable, err)
	}
	defer func() {
		closeErr := stream.Close()
		if err == nil && closeErr != nil {
			err = utils.WrapIfNotNil(closeErr)
		}
	}()

	chunks := c.cfg.ChunkCount()
	samples = make([]int16, 0, chunks*c.cfg.ChunkFrames)
	for i := 0; i < chunks; i++ {
		chunk, readErr := stream.Read()
		if readErr != nil {
			return nil, utils.WrapIfNotNil(readErr)
		}
		samples = append(samples, chunk...)
	}
	return samples, nil
}

func samplesDuration(count int, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(count) * time.Second / time.Duration(sampleRate)
}
