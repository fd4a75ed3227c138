package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
)

func (s *PipelineSuite) TestUploadStagesFileAndRemovesIt() {
	s.recognizer.result = model.TranscriptionResult{RawText: "hello world", DetectedLanguageCode: "en"}
	p := s.newPipeline()

	result, err := p.OnFileUploaded(context.Background(), []byte("ID3 data"), "hello.mp3")
	s.Require().NoError(err)

	s.Equal("hello world", result.OriginalText)
	s.Equal("EN", result.DetectedLanguage)
	s.Equal("", result.AudioPath)
	s.Require().Len(s.recognizer.clips, 1)
	s.True(s.recognizer.fileExisted[0])
	s.Equal(".mp3", filepath.Ext(s.recognizer.clips[0].Path))
	s.Equal("audio/mpeg", s.recognizer.clips[0].MIMEType)
	s.Equal(s.tempDir, filepath.Dir(s.recognizer.clips[0].Path))
	s.Empty(s.stagedFiles())
}

func (s *PipelineSuite) TestUploadRemovesFileOnFailure() {
	s.recognizer.err = utils.WrapWithKind(model.ErrDecode, errors.New("corrupt"))
	p := s.newPipeline()

	_, err := p.OnFileUploaded(context.Background(), []byte("junk"), "audio/wav")
	s.ErrorIs(err, model.ErrDecode)
	s.Require().Len(s.recognizer.clips, 1)
	s.True(s.recognizer.fileExisted[0])
	s.Empty(s.stagedFiles())
}

func (s *PipelineSuite) TestUploadUnsupportedFormatIsDecodeError() {
	p := s.newPipeline()

	_, err := p.OnFileUploaded(context.Background(), []byte("text"), "notes.txt")
	s.ErrorIs(err, model.ErrDecode)
	s.Empty(s.recognizer.clips)
	s.Empty(s.stagedFiles())
}

func (s *PipelineSuite) TestUploadEmptyDataIsDecodeError() {
	_, err := s.newPipeline().OnFileUploaded(context.Background(), nil, "clip.wav")
	s.ErrorIs(err, model.ErrDecode)
	s.Empty(s.recognizer.clips)
}

func (s *PipelineSuite) TestUploadVideoExtractsAudioTrack() {
	s.recognizer.result = model.TranscriptionResult{RawText: "నమస్కారం", DetectedLanguageCode: "te"}
	extractor := &fakeExtractor{}
	p := s.newPipeline(WithAudioExtractor(extractor))

	result, err := p.OnFileUploaded(context.Background(), []byte("moov"), "video/quicktime")
	s.Require().NoError(err)

	s.Equal("Hello", result.TranslatedText)
	s.Require().Len(extractor.inputs, 1)
	s.True(strings.HasSuffix(extractor.inputs[0], ".mov"))
	s.Require().Len(s.recognizer.clips, 1)
	s.True(strings.HasPrefix(filepath.Base(s.recognizer.clips[0].Path), "extracted-"))
	s.Equal("audio/wav", s.recognizer.clips[0].MIMEType)
	s.Empty(s.stagedFiles())
}

func (s *PipelineSuite) TestUploadVideoWithoutExtractorIsDecodeError() {
	_, err := s.newPipeline().OnFileUploaded(context.Background(), []byte("ftyp"), "clip.mp4")
	s.ErrorIs(err, model.ErrDecode)
	s.Empty(s.recognizer.clips)
	s.Empty(s.stagedFiles())
}

func (s *PipelineSuite) TestUploadVideoExtractionFailureCleansUp() {
	extractor := &fakeExtractor{err: utils.WrapWithKind(model.ErrDecode, errors.New("no audio stream"))}

	_, err := s.newPipeline(WithAudioExtractor(extractor)).OnFileUploaded(context.Background(), []byte("ftyp"), "clip.mp4")
	s.ErrorIs(err, model.ErrDecode)
	s.Empty(s.stagedFiles())
}

func (s *PipelineSuite) TestRecordWithoutCapturerIsDeviceUnavailable() {
	_, err := s.newPipeline().OnRecordTriggered(context.Background())
	s.ErrorIs(err, model.ErrDeviceUnavailable)
	s.Empty(s.recognizer.clips)
}

func (s *PipelineSuite) TestRecordDeviceFailureSkipsRecognition() {
	capturer := &fakeCapturer{err: utils.WrapWithKind(model.ErrDeviceUnavailable, errors.New("no input device"))}

	_, err := s.newPipeline(WithCapturer(capturer)).OnRecordTriggered(context.Background())
	s.ErrorIs(err, model.ErrDeviceUnavailable)
	s.Empty(s.recognizer.clips)
	s.Empty(s.stagedFiles())
}

func (s *PipelineSuite) TestRecordSilenceCompletesAndRemovesRecording() {
	s.recognizer.result = model.TranscriptionResult{}
	capturer := &fakeCapturer{}

	result, err := s.newPipeline(WithCapturer(capturer)).OnRecordTriggered(context.Background())
	s.Require().NoError(err)

	s.Equal("", result.OriginalText)
	s.Equal("", result.TranslatedText)
	s.Require().Len(capturer.paths, 1)
	s.True(s.recognizer.fileExisted[0])
	s.NoFileExists(capturer.paths[0])
	s.Len(result.Sections(), 4)
}

func (s *PipelineSuite) TestClipHandlerSeesStagedUpload() {
	s.recognizer.result = model.TranscriptionResult{RawText: "hello", DetectedLanguageCode: "en"}
	var kept []byte
	var seen []model.AudioClip
	handler := func(ctx context.Context, clip model.AudioClip) error {
		seen = append(seen, clip)
		data, err := os.ReadFile(clip.Path)
		kept = data
		return err
	}

	_, err := s.newPipeline(WithClipHandler(handler)).OnFileUploaded(context.Background(), []byte("RIFF upload"), "clip.wav")
	s.Require().NoError(err)

	s.Require().Len(seen, 1)
	s.Equal(s.recognizer.clips[0], seen[0])
	s.Equal("RIFF upload", string(kept))
	s.Empty(s.stagedFiles())
}

func (s *PipelineSuite) TestClipHandlerSeesRecordingAndErrorsAreIgnored() {
	s.recognizer.result = model.TranscriptionResult{RawText: "hello", DetectedLanguageCode: "en"}
	capturer := &fakeCapturer{}
	var existed bool
	handler := func(ctx context.Context, clip model.AudioClip) error {
		_, err := os.Stat(clip.Path)
		existed = err == nil
		return errors.New("playback device busy")
	}

	result, err := s.newPipeline(WithCapturer(capturer), WithClipHandler(handler)).OnRecordTriggered(context.Background())
	s.Require().NoError(err)

	s.True(existed)
	s.Equal("hello", result.OriginalText)
	s.NoFileExists(capturer.paths[0])
}

func (s *PipelineSuite) TestClipHandlerIsNotCalledForCallerClips() {
	s.recognizer.result = model.TranscriptionResult{RawText: "hello", DetectedLanguageCode: "en"}
	calls := 0
	handler := func(ctx context.Context, clip model.AudioClip) error {
		calls++
		return nil
	}

	_, err := s.newPipeline(WithClipHandler(handler)).RunAudioPipeline(context.Background(), s.clip())
	s.Require().NoError(err)
	s.Zero(calls)
}
