package openai

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	providerName        = "openai"
	envOpenAIToken      = "OPEN_API_TOKEN"
	envOpenAIBaseURL    = "OPENAI_BASE_URL"
	envOpenAIAudioModel = "OPENAI_AUDIO_MODEL"
)

type client struct {
	apiClient openai.Client
}

func newClient(cfg model.GeneratorConfig) (*client, error) {
	requestOpts := make([]option.RequestOption, 0, 2)

	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		baseURL = strings.TrimSpace(os.Getenv(envOpenAIBaseURL))
	}
	if baseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(baseURL))
	}

	token := strings.TrimSpace(cfg.AuthToken)
	if token == "" {
		token = strings.TrimSpace(os.Getenv(envOpenAIToken))
	}
	if token != "" {
		requestOpts = append(requestOpts, option.WithAPIKey(token))
	}

	apiClient := openai.NewClient(requestOpts...)
	return &client{apiClient: apiClient}, nil
}

func initMetadata(provider string, modelName string) model.GenerationMetadata {
	if strings.TrimSpace(modelName) == "" {
		modelName = "unknown"
	}

	return model.GenerationMetadata{
		model.MetadataKeyProvider: provider,
		model.MetadataKeyModel:    modelName,
	}
}

func setLatencyMetadata(meta model.GenerationMetadata, start time.Time) {
	if meta == nil {
		return
	}
	meta[model.MetadataKeyLatencyMs] = strconv.FormatInt(time.Since(start).Milliseconds(), 10)
}

// isBadRequest reports whether the API rejected the uploaded audio itself.
func isBadRequest(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusBadRequest ||
			apiErr.StatusCode == http.StatusUnsupportedMediaType ||
			apiErr.StatusCode == http.StatusRequestEntityTooLarge
	}
	return false
}
