package pipeline

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
)

type translateCall struct {
	Text   string
	Source string
	Target string
}

type fakeRecognizer struct {
	result model.TranscriptionResult
	err    error

	mu          sync.Mutex
	clips       []model.AudioClip
	fileExisted []bool
	active      atomic.Int32
	maxActive   atomic.Int32
	delay       time.Duration
}

func (f *fakeRecognizer) Transcribe(ctx context.Context, clip model.AudioClip) (model.TranscriptionResult, model.GenerationMetadata, error) {
	current := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		seen := f.maxActive.Load()
		if current <= seen || f.maxActive.CompareAndSwap(seen, current) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	_, statErr := os.Stat(clip.Path)
	f.mu.Lock()
	f.clips = append(f.clips, clip)
	f.fileExisted = append(f.fileExisted, statErr == nil)
	f.mu.Unlock()

	return f.result, model.GenerationMetadata{model.MetadataKeyProvider: "fake-recognizer"}, f.err
}

type fakeTranslator struct {
	translations map[string]string
	err          error

	mu    sync.Mutex
	calls []translateCall
}

func (f *fakeTranslator) Translate(ctx context.Context, text string, sourceLang string, targetLang string) (string, model.GenerationMetadata, error) {
	f.mu.Lock()
	f.calls = append(f.calls, translateCall{Text: text, Source: sourceLang, Target: targetLang})
	f.mu.Unlock()

	meta := model.GenerationMetadata{model.MetadataKeyProvider: "fake-translator"}
	if f.err != nil {
		return "", meta, f.err
	}
	if translated, ok := f.translations[text]; ok {
		return translated, meta, nil
	}
	return text, meta, nil
}

func (f *fakeTranslator) Calls() []translateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]translateCall(nil), f.calls...)
}

type fakeDetector struct {
	code  string
	err   error
	calls int
}

func (f *fakeDetector) DetectLanguage(ctx context.Context, text string) (string, error) {
	f.calls++
	return f.code, f.err
}

type fakeCapturer struct {
	err   error
	paths []string
}

func (f *fakeCapturer) Record(ctx context.Context, outputPath string) (model.AudioClip, error) {
	f.paths = append(f.paths, outputPath)
	if f.err != nil {
		return model.AudioClip{}, f.err
	}
	if err := os.WriteFile(outputPath, []byte("RIFF"), 0o600); err != nil {
		return model.AudioClip{}, err
	}
	return model.AudioClip{Path: outputPath, MIMEType: "audio/wav", SampleRate: model.DefaultSampleRate, Channels: 1}, nil
}

type fakeExtractor struct {
	err    error
	inputs []string
}

func (f *fakeExtractor) ExtractAudio(ctx context.Context, inputPath string, outputPath string) (model.AudioClip, error) {
	f.inputs = append(f.inputs, inputPath)
	if f.err != nil {
		return model.AudioClip{}, f.err
	}
	if _, err := os.Stat(inputPath); err != nil {
		return model.AudioClip{}, errors.New("input missing")
	}
	if err := os.WriteFile(outputPath, []byte("RIFF"), 0o600); err != nil {
		return model.AudioClip{}, err
	}
	return model.AudioClip{Path: outputPath, MIMEType: "audio/wav", SampleRate: model.DefaultSampleRate, Channels: 1}, nil
}
