package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const systemPrompt = "You are a professional translator. Answer with the translation only."

// Translator sends a single Converse request and expects a JSON object back.
// AWS credentials are resolved on each call.
type Translator struct {
	cfg    model.GeneratorConfig
	newAPI func(ctx context.Context, cfg model.GeneratorConfig) (converseAPI, error)
}

func NewTranslator(opts ...model.GeneratorOption) *Translator {
	return &Translator{
		cfg:    model.ResolveGeneratorOpts(opts...),
		newAPI: newClient,
	}
}

func (t *Translator) Translate(ctx context.Context, text string, sourceLang string, targetLang string) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveModelName(t.cfg)
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

	schemaJSON, err := generateSchemaJSON[model.TranslationOutput]()
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	api, err := t.newAPI(ctx, t.cfg)
	if err != nil {
		err = utils.WrapWithKind(model.ErrTranslationService, err)
		log.Errorf("error: %v", err)
		return "", meta, err
	}

	log.Infof("translate_request model=%q source=%q target=%q chars=%d", modelName, req.SourceLang, req.TargetLang, len(req.Text))
	output, err := api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(modelName),
		System: []bedrocktypes.SystemContentBlock{
			&bedrocktypes.SystemContentBlockMemberText{Value: systemPrompt},
		},
		Messages: []bedrocktypes.Message{
			{
				Role: bedrocktypes.ConversationRoleUser,
				Content: []bedrocktypes.ContentBlock{
					&bedrocktypes.ContentBlockMemberText{
						Value: req.Instruction() + "\n\nReturn ONLY valid JSON that matches this schema:\n" + schemaJSON,
					},
				},
			},
		},
		InferenceConfig: buildInferenceConfig(t.cfg),
	})
	if err != nil {
		err = utils.WrapWithKind(model.ErrTranslationService, err)
		log.Errorf("error: %v", err)
		return "", meta, err
	}
	applyBedrockMetadata(meta, output)

	translated, err := decodeTranslation(output)
	if err != nil {
		err = utils.WrapWithKind(model.ErrTranslationService, err)
		log.Errorf("error: %v", err)
		return "", meta, err
	}
	return translated, meta, nil
}

func decodeTranslation(output *bedrockruntime.ConverseOutput) (string, error) {
	if output == nil {
		return "", errors.New("converse returned nil output")
	}

	text, err := extractTextFromOutput(output.Output)
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}
	if text == "" {
		return "", errors.New("response output is empty")
	}

	var out model.TranslationOutput
	if err := json.Unmarshal([]byte(extractJSONPayload(text)), &out); err != nil {
		return "", utils.WrapIfNotNil(err)
	}
	return strings.TrimSpace(out.Translation), nil
}
