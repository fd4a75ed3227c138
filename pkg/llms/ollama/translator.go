package ollama

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
	ollamasdk "github.com/rozoomcool/go-ollama-sdk"
)

const systemPrompt = "You are a professional translator. Answer with the translation only."

// Translator asks a local Ollama model for schema-constrained JSON. Small models
// sometimes ignore the format; their answer gets one reformatting pass.
type Translator struct {
	client *client
	cfg    model.GeneratorConfig
}

func NewTranslator(opts ...model.GeneratorOption) *Translator {
	cfg := model.ResolveGeneratorOpts(opts...)
	return &Translator{client: newClient(cfg), cfg: cfg}
}

func (t *Translator) Translate(ctx context.Context, text string, sourceLang string, targetLang string) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveGenerationModelName(t.cfg)
	meta := initMetadata(modelName)
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

	schema, err := generateJSONSchema[model.TranslationOutput]()
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	log.Infof("translate_request model=%q source=%q target=%q chars=%d", modelName, req.SourceLang, req.TargetLang, len(req.Text))
	response, err := t.client.chat(ctx, ollamaChatRequest{
		Model: modelName,
		Messages: []ollamaChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: req.Instruction()},
		},
		Stream:  false,
		Format:  schema,
		Options: buildOllamaChatOptions(t.cfg),
	})
	if err != nil {
		if utils.ContainsErrorSubstring(err, "not found") {
			log.Warnf("ollama model %q is not available locally; pull it with `ollama pull %s`", modelName, modelName)
		}
		err = utils.WrapWithKind(model.ErrTranslationService, err)
		log.Errorf("error: %v", err)
		return "", meta, err
	}

	apiCalls := 1
	raw := strings.TrimSpace(response.Message.Content)
	translated, decodeErr := decodeTranslation(raw)
	if decodeErr != nil {
		log.Warnf("ollama answer is not valid JSON, reformatting: %v", decodeErr)
		apiCalls++
		translated, err = t.repairStructuredJSON(modelName, schema, raw)
		if err != nil {
			applyOllamaMetadata(meta, response, apiCalls)
			err = utils.WrapWithKind(model.ErrTranslationService, err)
			log.Errorf("error: %v", err)
			return "", meta, err
		}
	}
	applyOllamaMetadata(meta, response, apiCalls)

	return translated, meta, nil
}

func (t *Translator) repairStructuredJSON(modelName string, schema map[string]any, rawOutput string) (string, error) {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}

	messages := []ollamasdk.ChatMessage{
		{
			Role:    "system",
			Content: "You are a strict JSON formatter.",
		},
		{
			Role: "user",
			Content: "Reformat the following output into valid JSON matching this schema. Return only JSON.\n\n" +
				"Schema:\n" + string(schemaBytes) + "\n\n" +
				"Output:\n" + rawOutput,
		},
	}

	text, err := t.client.apiClient.Chat(modelName, messages)
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}
	return decodeTranslation(text)
}

func decodeTranslation(text string) (string, error) {
	var out model.TranslationOutput
	if err := json.Unmarshal([]byte(extractJSONPayload(text)), &out); err != nil {
		return "", utils.WrapIfNotNil(err)
	}
	return strings.TrimSpace(out.Translation), nil
}
