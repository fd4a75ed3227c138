package google

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
)

// Translator calls the public Google web translation endpoint. It needs no key
// and, like the other backends, never retries.
type Translator struct {
	api *apiClient
}

type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
}

func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

func NewTranslator(opts ...Option) *Translator {
	resolved := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&resolved)
		}
	}
	return &Translator{api: newAPIClient(resolved.baseURL, resolved.httpClient)}
}

func (t *Translator) Translate(ctx context.Context, text string, sourceLang string, targetLang string) (string, model.GenerationMetadata, error) {
	start := time.Now()
	meta := model.GenerationMetadata{
		model.MetadataKeyProvider: providerName,
		model.MetadataKeyModel:    "gtx",
	}
	defer setLatencyMetadata(meta, start)

	req := model.NewTranslationRequest(text, sourceLang, targetLang)
	req.Metadata(meta)

	log := logging.NewLogger(ctx)
	if err := req.Validate(); err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	if req.Passthrough() {
		return req.Text, meta, nil
	}

	log.Infof("translate_request source=%q target=%q chars=%d", req.SourceLang, req.TargetLang, len(req.Text))
	out, err := t.api.translate(ctx, req.Text, req.SourceLang, req.TargetLang)
	if err != nil {
		err = utils.WrapWithKind(model.ErrTranslationService, err)
		log.Errorf("error: %v", err)
		return "", meta, err
	}
	meta[model.MetadataKeyAPICalls] = "1"
	if out.SourceLanguage != "" {
		meta[model.MetadataKeySourceLanguage] = model.NormalizeLanguageCode(out.SourceLanguage)
	}

	return strings.TrimSpace(out.Text), meta, nil
}
