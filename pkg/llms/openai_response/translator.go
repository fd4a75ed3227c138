package openai_response

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

const translatorInstructions = "You are a professional translator. Answer with the translation only."

// Translator translates through the Responses API with a strict JSON schema output.
type Translator struct {
	api responsesAPI
	cfg model.GeneratorConfig
}

func NewTranslator(opts ...model.GeneratorOption) *Translator {
	cfg := model.ResolveGeneratorOpts(opts...)
	return &Translator{api: newClient(cfg), cfg: cfg}
}

func (t *Translator) Translate(ctx context.Context, text string, sourceLang string, targetLang string) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveModelName(t.cfg)
	meta := initMetadata(providerName, modelName)
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

	params, err := t.buildParams(ctx, modelName, req)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	log.Infof("translate_request model=%q source=%q target=%q chars=%d", modelName, req.SourceLang, req.TargetLang, len(req.Text))
	response, err := t.api.newResponse(ctx, params)
	if err != nil {
		err = utils.WrapWithKind(model.ErrTranslationService, err)
		log.Errorf("error: %v", err)
		return "", meta, err
	}
	applyOpenAIResponseMetadata(meta, response)

	translated, err := decodeTranslation(response)
	if err != nil {
		err = utils.WrapWithKind(model.ErrTranslationService, err)
		log.Errorf("error: %v", err)
		return "", meta, err
	}
	return translated, meta, nil
}

func (t *Translator) buildParams(ctx context.Context, modelName string, req model.TranslationRequest) (responses.ResponseNewParams, error) {
	cfg, err := normalizeGeneratorOptionsForModel(modelName, t.cfg, logging.NewLogger(ctx))
	if err != nil {
		return responses.ResponseNewParams{}, utils.WrapIfNotNil(err)
	}

	schema, err := generateSchema[model.TranslationOutput]()
	if err != nil {
		return responses.ResponseNewParams{}, utils.WrapIfNotNil(err)
	}

	params := responses.ResponseNewParams{
		Model:        shared.ResponsesModel(modelName),
		Instructions: openai.String(translatorInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(req.Instruction()),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:   "translation",
					Schema: schema,
					Strict: openai.Bool(true),
				},
			},
		},
	}
	if cfg.Temperature != nil {
		params.Temperature = openai.Float(*cfg.Temperature)
	}
	if cfg.MaxTokens != nil {
		params.MaxOutputTokens = openai.Int(int64(*cfg.MaxTokens))
	}
	return params, nil
}

func decodeTranslation(response *responses.Response) (string, error) {
	if response == nil {
		return "", errors.New("responses API returned nil response")
	}
	output := strings.TrimSpace(response.OutputText())
	if output == "" {
		return "", errors.New("response output is empty")
	}

	var out model.TranslationOutput
	if err := json.Unmarshal([]byte(output), &out); err != nil {
		return "", utils.WrapIfNotNil(err)
	}
	return strings.TrimSpace(out.Translation), nil
}
