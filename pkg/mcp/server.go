package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/media"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ServerName = "polyglot-translate"

	ToolTranslateText       = "translate_text"
	ToolTranscribeAudioFile = "transcribe_audio_file"
	ToolRecordAndTranscribe = "record_and_transcribe"
)

// Runner is the set of pipeline entry points exposed as tools.
type Runner interface {
	OnFileUploaded(ctx context.Context, data []byte, mimeHint string) (model.PipelineResult, error)
	OnRecordTriggered(ctx context.Context) (model.PipelineResult, error)
	OnTextSubmitted(ctx context.Context, text string) (model.PipelineResult, error)
}

type toolResult struct {
	Source                string  `json:"source"`
	OriginalText          string  `json:"original_text"`
	EnglishTranscription  string  `json:"english_transcription,omitempty"`
	DetectedLanguage      string  `json:"detected_language"`
	TranslatedText        string  `json:"translated_text"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
}

// NewServer registers one tool per pipeline entry point. Pipeline failures
// are reported as tool errors so the calling model can read the message.
func NewServer(runner Runner, version string) (*server.MCPServer, error) {
	if runner == nil {
		return nil, utils.WrapIfNotNil(errors.New("runner is required"))
	}

	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool(ToolTranslateText,
			mcp.WithDescription("Detect the language of a piece of text and translate it to English."),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("Text to translate"),
			),
		),
		translateTextHandler(runner),
	)

	s.AddTool(
		mcp.NewTool(ToolTranscribeAudioFile,
			mcp.WithDescription("Transcribe a local audio or video file and translate the transcript to English. Supported: "+
				strings.Join(media.SupportedExtensions(), ", ")+"."),
			mcp.WithString("path",
				mcp.Required(),
				mcp.Description("Path of the file to transcribe"),
			),
			mcp.WithString("mime_type",
				mcp.Description("Optional MIME type; the file extension is used when omitted"),
			),
		),
		transcribeAudioFileHandler(runner),
	)

	s.AddTool(
		mcp.NewTool(ToolRecordAndTranscribe,
			mcp.WithDescription("Record a short clip from the default microphone, transcribe it and translate it to English."),
		),
		recordAndTranscribeHandler(runner),
	)

	return s, nil
}

// ServeStdio blocks serving the tools over stdin and stdout.
func ServeStdio(runner Runner, version string) error {
	s, err := NewServer(runner, version)
	if err != nil {
		return utils.WrapIfNotNil(err)
	}
	return utils.WrapIfNotNil(server.ServeStdio(s))
}

func translateTextHandler(runner Runner) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Blank text is left to the pipeline so the warning matches the other surfaces.
		text := request.GetString("text", "")
		result, err := runner.OnTextSubmitted(ctx, text)
		return renderResult(ctx, result, err)
	}
}

func transcribeAudioFileHandler(runner Runner) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			err = utils.WrapWithKind(model.ErrDecode, err)
			logging.NewLogger(ctx).Errorf("error: %v", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		hint := strings.TrimSpace(request.GetString("mime_type", ""))
		if hint == "" {
			hint = filepath.Base(path)
		}
		result, err := runner.OnFileUploaded(ctx, data, hint)
		return renderResult(ctx, result, err)
	}
}

func recordAndTranscribeHandler(runner Runner) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := runner.OnRecordTriggered(ctx)
		return renderResult(ctx, result, err)
	}
}

func renderResult(ctx context.Context, result model.PipelineResult, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			return mcp.NewToolResultError(model.ErrValidation.Error()), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	body, err := json.Marshal(toolResult{
		Source:                string(result.Source),
		OriginalText:          result.OriginalText,
		EnglishTranscription:  result.EnglishTranscription,
		DetectedLanguage:      result.DetectedLanguage,
		TranslatedText:        result.TranslatedText,
		ProcessingTimeSeconds: result.ProcessingTime.Seconds(),
	})
	if err != nil {
		logging.NewLogger(ctx).Errorf("error: %v", err)
		return nil, utils.WrapIfNotNil(err)
	}
	return mcp.NewToolResultText(string(body)), nil
}
