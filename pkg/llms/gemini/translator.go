package gemini

import (
	"context"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
	"google.golang.org/genai"
)

type Translator struct {
	api contentAPI
	cfg model.GeneratorConfig
}

func NewTranslator(opts ...model.GeneratorOption) *Translator {
	cfg := model.ResolveGeneratorOpts(opts...)
	return &Translator{
		api: liveContentAPI{cfg: cfg},
		cfg: cfg,
	}
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
	contents := []*genai.Content{
		genai.NewContentFromText(req.Instruction(), genai.RoleUser),
	}
	response, err := t.api.generateContent(ctx, modelName, contents, buildGenerateContentConfig(t.cfg, schema))
	if err != nil {
		err = utils.WrapWithKind(model.ErrTranslationService, err)
		log.Errorf("error: %v", err)
		return "", meta, err
	}
	applyGenerateMetadata(meta, response)

	out, err := decodeJSONResponse[model.TranslationOutput](response)
	if err != nil {
		err = utils.WrapWithKind(model.ErrTranslationService, err)
		log.Errorf("error: %v", err)
		return "", meta, err
	}
	return strings.TrimSpace(out.Translation), meta, nil
}
