package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
	"github.com/joho/godotenv"
)

const (
	RecognizerOpenAI = "openai"
	RecognizerGemini = "gemini"

	TranslatorGoogle         = "google"
	TranslatorOpenAIResponse = "openai_response"
	TranslatorGemini         = "gemini"
	TranslatorBedrock        = "bedrock"
	TranslatorOllama         = "ollama"

	TranscriptionTranslationReuse       = "reuse"
	TranscriptionTranslationIndependent = "independent"

	DefaultRecognizer = RecognizerOpenAI
	DefaultTranslator = TranslatorGoogle
	DefaultLogLevel   = "info"
	DefaultFFmpegPath = "ffmpeg"

	// DetectorLanguagesAll in DETECTOR_LANGUAGES lets the detector consider every language.
	DetectorLanguagesAll = "all"
	// DefaultDetectorMinRelativeDistance matches the detector's own default.
	DefaultDetectorMinRelativeDistance = 0.25
)

var DefaultAllowList = []string{"hi", "te"}

// Config is read once at startup from the environment, optionally overlaid by
// a dotenv settings file.
type Config struct {
	Recognizer string
	Translator string

	OpenAIToken          string
	OpenAIBaseURL        string
	OpenAIAudioModel     string
	OpenAITranslateModel string
	GeminiKey            string
	GeminiBaseURL        string
	GeminiModel          string
	BedrockModel         string
	OllamaBaseURL        string
	OllamaModel          string
	GoogleTranslateURL   string

	Capture                  model.CaptureConfig
	AllowList                []string
	TranscriptionTranslation string
	DetectorLanguages        []string
	// DetectorMinRelativeDistance is nil until Validate applies the default; 0 disables the check.
	DetectorMinRelativeDistance *float64
	FFmpegPath                  string
	TempDir                     string
	LogLevel                    string
}

// Load overlays settingsFile (or SETTINGS_FILE, or $HOME/.env when it exists)
// onto the process environment and builds a validated Config.
func Load(settingsFile string) (*Config, error) {
	if err := loadSettingsFile(settingsFile); err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return cfg, nil
}

func loadSettingsFile(settingsFile string) error {
	explicit := strings.TrimSpace(settingsFile)
	if explicit == "" {
		explicit = strings.TrimSpace(os.Getenv("SETTINGS_FILE"))
	}

	path := explicit
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(homeDir, ".env")
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && explicit == "" {
			// Defaulting to $HOME/.env is best effort.
			return nil
		}
		return err
	}

	return godotenv.Overload(path)
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Recognizer:               env("RECOGNIZER_PROVIDER"),
		Translator:               env("TRANSLATOR_PROVIDER"),
		OpenAIToken:              env("OPEN_API_TOKEN"),
		OpenAIBaseURL:            env("OPENAI_BASE_URL"),
		OpenAIAudioModel:         env("OPENAI_AUDIO_MODEL"),
		OpenAITranslateModel:     env("OPENAI_TRANSLATE_MODEL"),
		GeminiKey:                env("GEMINI_KEY"),
		GeminiBaseURL:            env("GEMINI_BASE_URL"),
		GeminiModel:              env("GEMINI_MODEL"),
		BedrockModel:             env("BEDROCK_MODEL"),
		OllamaBaseURL:            env("OLLAMA_BASE_URL"),
		OllamaModel:              env("OLLAMA_MODEL"),
		GoogleTranslateURL:       env("GOOGLE_TRANSLATE_URL"),
		AllowList:                splitList(env("TRANSCRIPTION_ALLOW_LIST")),
		TranscriptionTranslation: strings.ToLower(env("TRANSCRIPTION_TRANSLATION")),
		DetectorLanguages:        splitList(env("DETECTOR_LANGUAGES")),
		FFmpegPath:               env("FFMPEG_PATH"),
		TempDir:                  env("TEMP_DIR"),
		LogLevel:                 env("LOG_LEVEL"),
	}

	distance, err := envFloat("DETECTOR_MIN_RELATIVE_DISTANCE")
	if err != nil {
		return nil, err
	}
	cfg.DetectorMinRelativeDistance = distance

	seconds, err := envInt("RECORD_SECONDS")
	if err != nil {
		return nil, err
	}
	if seconds != nil {
		cfg.Capture.Duration = time.Duration(*seconds) * time.Second
	}
	sampleRate, err := envInt("SAMPLE_RATE")
	if err != nil {
		return nil, err
	}
	if sampleRate != nil {
		cfg.Capture.SampleRate = *sampleRate
	}
	chunk, err := envInt("CHUNK_FRAMES")
	if err != nil {
		return nil, err
	}
	if chunk != nil {
		cfg.Capture.ChunkFrames = *chunk
	}
	return cfg, nil
}

// Validate applies defaults, checks provider names, and rejects out-of-range
// capture values.
func (c *Config) Validate() error {
	c.Recognizer = strings.ToLower(strings.TrimSpace(c.Recognizer))
	if c.Recognizer == "" {
		c.Recognizer = DefaultRecognizer
	}
	switch c.Recognizer {
	case RecognizerOpenAI, RecognizerGemini:
	default:
		return fmt.Errorf("config: unknown recognizer provider %q", c.Recognizer)
	}

	c.Translator = strings.ToLower(strings.TrimSpace(c.Translator))
	if c.Translator == "" {
		c.Translator = DefaultTranslator
	}
	switch c.Translator {
	case TranslatorGoogle, TranslatorOpenAIResponse, TranslatorGemini, TranslatorBedrock, TranslatorOllama:
	default:
		return fmt.Errorf("config: unknown translator provider %q", c.Translator)
	}

	if c.TranscriptionTranslation == "" {
		c.TranscriptionTranslation = TranscriptionTranslationReuse
	}
	if c.TranscriptionTranslation != TranscriptionTranslationReuse &&
		c.TranscriptionTranslation != TranscriptionTranslationIndependent {
		return fmt.Errorf("config: transcription translation must be %q or %q, got %q",
			TranscriptionTranslationReuse, TranscriptionTranslationIndependent, c.TranscriptionTranslation)
	}

	defaults := model.DefaultCaptureConfig()
	if c.Capture.Duration == 0 {
		c.Capture.Duration = defaults.Duration
	}
	if c.Capture.SampleRate == 0 {
		c.Capture.SampleRate = defaults.SampleRate
	}
	if c.Capture.ChunkFrames == 0 {
		c.Capture.ChunkFrames = defaults.ChunkFrames
	}
	if c.Capture.Channels == 0 {
		c.Capture.Channels = defaults.Channels
	}
	if c.Capture.Duration < 0 {
		return fmt.Errorf("config: record seconds must be > 0, got %s", c.Capture.Duration)
	}
	if c.Capture.SampleRate < 0 {
		return fmt.Errorf("config: sample rate must be > 0, got %d", c.Capture.SampleRate)
	}
	if c.Capture.ChunkFrames < 0 {
		return fmt.Errorf("config: chunk frames must be > 0, got %d", c.Capture.ChunkFrames)
	}

	if len(c.AllowList) == 0 {
		c.AllowList = append([]string(nil), DefaultAllowList...)
	}
	for i, code := range c.AllowList {
		c.AllowList[i] = model.NormalizeLanguageCode(code)
	}
	if !c.AllDetectorLanguages() {
		for i, code := range c.DetectorLanguages {
			c.DetectorLanguages[i] = model.NormalizeLanguageCode(code)
		}
	}
	if c.DetectorMinRelativeDistance == nil {
		distance := DefaultDetectorMinRelativeDistance
		c.DetectorMinRelativeDistance = &distance
	}
	if d := *c.DetectorMinRelativeDistance; d < 0 || d >= 1 {
		return fmt.Errorf("config: detector minimum relative distance must be in [0, 1), got %v", d)
	}

	if c.FFmpegPath == "" {
		c.FFmpegPath = DefaultFFmpegPath
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	return nil
}

// AllDetectorLanguages reports whether DETECTOR_LANGUAGES asks for every language.
func (c *Config) AllDetectorLanguages() bool {
	return len(c.DetectorLanguages) == 1 && strings.EqualFold(c.DetectorLanguages[0], DetectorLanguagesAll)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envInt(key string) (*int, error) {
	raw := env(key)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("config: %s must be an integer, got %q", key, raw)
	}
	return &value, nil
}

func envFloat(key string) (*float64, error) {
	raw := env(key)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("config: %s must be a number, got %q", key, raw)
	}
	return &value, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	out := make([]string, 0)
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
