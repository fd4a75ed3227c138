package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/config"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/mcp"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/pipeline"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
)

var version = "dev"

const usage = `usage: polyglot-translate [-settings file] [-keep-audio dir] <command> [args]

commands:
  file <path>    transcribe an audio or video file and translate it to English
  record         record a short clip from the microphone and translate it
  text <words>   detect the language of the text and translate it to English
  mcp            serve the commands as MCP tools over stdio
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout io.Writer, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			log := logging.NewLogger(context.Background())
			log.Errorf("panic: %v", r)
			utils.PrintStack("polyglot-translate", log)
			code = 1
		}
	}()

	flags := flag.NewFlagSet("polyglot-translate", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() { fmt.Fprint(stderr, usage) }
	settingsFile := flags.String("settings", "", "dotenv settings file (default $SETTINGS_FILE or $HOME/.env)")
	keepAudioDir := flags.String("keep-audio", "", "copy each uploaded or recorded clip into this directory")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	command, rest := splitCommand(flags.Args())
	if command == "" {
		flags.Usage()
		return 2
	}

	cfg, err := config.Load(*settingsFile)
	if err != nil {
		fmt.Fprintf(stderr, "polyglot-translate: %v\n", err)
		return 1
	}
	logging.SetLevel(cfg.LogLevel)

	var opts []pipeline.Option
	if *keepAudioDir != "" {
		opts = append(opts, pipeline.WithClipHandler(keepAudio(*keepAudioDir, stderr)))
	}
	p, err := buildPipeline(cfg, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "polyglot-translate: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var result model.PipelineResult
	switch command {
	case "file":
		if len(rest) != 1 {
			flags.Usage()
			return 2
		}
		result, err = runFile(ctx, p, rest[0])
	case "record":
		fmt.Fprintf(stderr, "Recording for %s...\n", cfg.Capture.Duration)
		result, err = p.OnRecordTriggered(ctx)
	case "text":
		result, err = p.OnTextSubmitted(ctx, strings.Join(rest, " "))
	case "mcp":
		if err := mcp.ServeStdio(p, version); err != nil {
			fmt.Fprintf(stderr, "polyglot-translate: %v\n", err)
			return 1
		}
		return 0
	default:
		flags.Usage()
		return 2
	}

	if err != nil {
		if model.IsRecoverable(err) {
			fmt.Fprintf(stderr, "Warning: %s\n", model.ErrValidation.Error())
			return 2
		}
		fmt.Fprintf(stderr, "polyglot-translate: %v\n", err)
		return 1
	}

	render(stdout, result)
	return 0
}

func splitCommand(args []string) (string, []string) {
	if len(args) == 0 {
		return "", nil
	}
	return strings.ToLower(args[0]), args[1:]
}

func runFile(ctx context.Context, p *pipeline.Pipeline, path string) (model.PipelineResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.PipelineResult{}, err
	}
	return p.OnFileUploaded(ctx, data, filepath.Base(path))
}

// keepAudio copies staged clips into dir before the pipeline removes them.
func keepAudio(dir string, w io.Writer) pipeline.ClipHandler {
	return func(ctx context.Context, clip model.AudioClip) error {
		data, err := os.ReadFile(clip.Path)
		if err != nil {
			return utils.WrapIfNotNil(err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return utils.WrapIfNotNil(err)
		}
		target := filepath.Join(dir, filepath.Base(clip.Path))
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return utils.WrapIfNotNil(err)
		}
		fmt.Fprintf(w, "Saved audio: %s\n", target)
		return nil
	}
}

func render(w io.Writer, result model.PipelineResult) {
	for _, section := range result.Sections() {
		fmt.Fprintf(w, "%s:\n%s\n\n", section.Title, section.Body)
	}
	fmt.Fprintf(w, "Done! (Processing Time: %.2fs)\n", result.ProcessingTime.Seconds())
}
