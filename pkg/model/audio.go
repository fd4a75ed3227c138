package model

import "time"

const (
	DefaultRecordDuration = 5 * time.Second
	DefaultSampleRate     = 16000
	DefaultChunkFrames    = 1024
	DefaultChannels       = 1
	DefaultBitDepth       = 16
)

// AudioClip is a short-lived audio file handed to a Recognizer exactly once.
// The file must be fully written and closed before it is transcribed.
type AudioClip struct {
	Path       string
	MIMEType   string
	SampleRate int
	Channels   int
	Duration   time.Duration
}

type AudioKeyword struct {
	Word           string   `json:"word,omitempty"`
	CommonMistypes []string `json:"common_mistypes,omitempty"`
	Definition     string   `json:"definition,omitempty"`
}

type AudioOptions struct {
	IgnoreInvalidGeneratorOptions bool
	URL                           string
	AuthToken                     string
	Model                         string
	// Prompt optionally overrides the provider's default audio prompt behavior.
	// When Prompt is set, keyword hints are not appended.
	Prompt string
	// Keywords provides domain terms that may be missed in transcription.
	Keywords []AudioKeyword
}

// CaptureConfig describes a fixed-length live recording.
type CaptureConfig struct {
	Duration    time.Duration
	SampleRate  int
	ChunkFrames int
	Channels    int
}

func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		Duration:    DefaultRecordDuration,
		SampleRate:  DefaultSampleRate,
		ChunkFrames: DefaultChunkFrames,
		Channels:    DefaultChannels,
	}
}

// ChunkCount is the number of fixed-size reads needed to cover Duration.
// Partial trailing chunks are dropped.
func (c CaptureConfig) ChunkCount() int {
	if c.ChunkFrames <= 0 || c.SampleRate <= 0 {
		return 0
	}
	return int(float64(c.SampleRate) / float64(c.ChunkFrames) * c.Duration.Seconds())
}
