package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
)

// AudioExtractor pulls a mono PCM WAV track out of a container file.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, inputPath string, outputPath string) (model.AudioClip, error)
}

type FFmpegExtractor struct {
	binary     string
	sampleRate int
}

func NewFFmpegExtractor(binary string, sampleRate int) *FFmpegExtractor {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = model.DefaultSampleRate
	}
	return &FFmpegExtractor{binary: binary, sampleRate: sampleRate}
}

// ExtractAudio runs `ffmpeg -y -i input -vn -ac 1 -ar <rate> -f wav output`.
func (e *FFmpegExtractor) ExtractAudio(ctx context.Context, inputPath string, outputPath string) (model.AudioClip, error) {
	log := logging.NewLogger(ctx)
	if strings.TrimSpace(inputPath) == "" || strings.TrimSpace(outputPath) == "" {
		return model.AudioClip{}, utils.WrapIfNotNil(errors.New("input and output paths are required"))
	}

	binary, err := exec.LookPath(e.binary)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.AudioClip{}, utils.WrapWithKind(model.ErrDecode, fmt.Errorf("ffmpeg not available: %w", err))
	}

	args := e.args(inputPath, outputPath)
	log.Infof("extract_audio_request input=%q rate=%d", filepath.Base(inputPath), e.sampleRate)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stderr = &stderr
	err = cmd.Run()
	if err != nil {
		message := strings.TrimSpace(stderr.String())
		log.Errorf("error: %v %s", err, message)
		return model.AudioClip{}, utils.WrapWithKind(model.ErrDecode, fmt.Errorf("ffmpeg: %w: %s", err, lastLine(message)))
	}

	return model.AudioClip{
		Path:       outputPath,
		MIMEType:   "audio/wav",
		SampleRate: e.sampleRate,
		Channels:   model.DefaultChannels,
	}, nil
}

func (e *FFmpegExtractor) args(inputPath string, outputPath string) []string {
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(e.sampleRate),
		"-f", "wav",
		outputPath,
	}
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndex(s, "\n"); idx >= 0 {
		return strings.TrimSpace(s[idx+1:])
	}
	return s
}
