package pipeline

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/media"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
)

// OnFileUploaded stages data in a temp file and runs the audio pipeline on it.
// mimeHint may be a MIME type, a file name or a bare extension. Video
// containers have their audio track extracted first. Every staged file is
// removed before returning, on success and on failure.
func (p *Pipeline) OnFileUploaded(ctx context.Context, data []byte, mimeHint string) (model.PipelineResult, error) {
	ctx = requestContext(ctx, "upload")
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	log := logging.NewLogger(ctx)

	format, err := media.ResolveUploadFormat(mimeHint)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.PipelineResult{}, utils.WrapIfNotNil(err)
	}
	if len(data) == 0 {
		err = utils.WrapWithKind(model.ErrDecode, errors.New("uploaded file is empty"))
		log.Errorf("error: %v", err)
		return model.PipelineResult{}, err
	}

	uploadPath, err := p.writeTemp("upload-*"+format.Extension, data)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.PipelineResult{}, utils.WrapIfNotNil(err)
	}
	defer removeTemp(ctx, uploadPath)

	clip := model.AudioClip{Path: uploadPath, MIMEType: format.MIMEType}
	if format.Video {
		clip, err = p.extractAudio(ctx, uploadPath)
		if err != nil {
			log.Errorf("error: %v", err)
			return model.PipelineResult{}, utils.WrapIfNotNil(err)
		}
		defer removeTemp(ctx, clip.Path)
	}

	p.handleClip(ctx, clip)
	result, err := p.runAudio(ctx, clip)
	if err != nil {
		return model.PipelineResult{}, utils.WrapIfNotNil(err)
	}
	result.ProcessingTime = time.Since(start)
	return result, nil
}

// OnRecordTriggered records a clip with the configured capturer and runs the
// audio pipeline on it. The recording is removed before returning.
func (p *Pipeline) OnRecordTriggered(ctx context.Context) (model.PipelineResult, error) {
	ctx = requestContext(ctx, "record")
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	log := logging.NewLogger(ctx)
	if p.capturer == nil {
		err := utils.WrapWithKind(model.ErrDeviceUnavailable, errors.New("no capture device configured"))
		log.Errorf("error: %v", err)
		return model.PipelineResult{}, err
	}

	recordingPath, err := p.writeTemp("recording-*.wav", nil)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.PipelineResult{}, utils.WrapIfNotNil(err)
	}
	defer removeTemp(ctx, recordingPath)

	clip, err := p.capturer.Record(ctx, recordingPath)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.PipelineResult{}, utils.WrapIfNotNil(err)
	}

	p.handleClip(ctx, clip)
	result, err := p.runAudio(ctx, clip)
	if err != nil {
		return model.PipelineResult{}, utils.WrapIfNotNil(err)
	}
	result.ProcessingTime = time.Since(start)
	return result, nil
}

// OnTextSubmitted runs the text pipeline. A model.ErrValidation result is
// recoverable: the caller should prompt again.
func (p *Pipeline) OnTextSubmitted(ctx context.Context, text string) (model.PipelineResult, error) {
	return p.RunTextPipeline(requestContext(ctx, "text_submitted"), text)
}

func (p *Pipeline) handleClip(ctx context.Context, clip model.AudioClip) {
	if p.clipHandler == nil {
		return
	}
	if err := p.clipHandler(ctx, clip); err != nil {
		logging.NewLogger(ctx).Warnf("clip_handler path=%q error=%v", clip.Path, err)
	}
}

func (p *Pipeline) extractAudio(ctx context.Context, inputPath string) (model.AudioClip, error) {
	if p.extractor == nil {
		return model.AudioClip{}, utils.WrapWithKind(model.ErrDecode, errors.New("video uploads need an audio extractor"))
	}

	outputPath, err := p.writeTemp("extracted-*.wav", nil)
	if err != nil {
		return model.AudioClip{}, utils.WrapIfNotNil(err)
	}

	clip, err := p.extractor.ExtractAudio(ctx, inputPath, outputPath)
	if err != nil {
		removeTemp(ctx, outputPath)
		return model.AudioClip{}, utils.WrapIfNotNil(err)
	}
	return clip, nil
}

// writeTemp creates a closed temp file holding data and returns its path.
func (p *Pipeline) writeTemp(pattern string, data []byte) (string, error) {
	file, err := os.CreateTemp(p.tempDir, pattern)
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}
	path := file.Name()

	_, writeErr := file.Write(data)
	closeErr := file.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(path)
		return "", utils.WrapIfNotNil(err)
	}
	return path, nil
}

func removeTemp(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.NewLogger(ctx).Warnf("temp_file_cleanup path=%q error=%v", path, err)
	}
}
