//go:build portaudio

package capture

import (
	"sync"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
	"github.com/gordonklaus/portaudio"
)

type portAudioDevice struct{}

// DefaultDevice returns the system default input device via PortAudio.
func DefaultDevice() Device {
	return portAudioDevice{}
}

func (portAudioDevice) Open(cfg model.CaptureConfig) (Stream, error) {
	err := portaudio.Initialize()
	if err != nil {
		return nil, utils.WrapWithKind(model.ErrDeviceUnavailable, err)
	}

	buffer := make([]int16, cfg.ChunkFrames)
	stream, err := portaudio.OpenDefaultStream(cfg.Channels, 0, float64(cfg.SampleRate), len(buffer), buffer)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, utils.WrapWithKind(model.ErrDeviceUnavailable, err)
	}

	err = stream.Start()
	if err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, utils.WrapWithKind(model.ErrDeviceUnavailable, err)
	}

	return &portAudioStream{stream: stream, buffer: buffer}, nil
}

type portAudioStream struct {
	stream    *portaudio.Stream
	buffer    []int16
	closeOnce sync.Once
}

func (s *portAudioStream) Read() ([]int16, error) {
	err := s.stream.Read()
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	chunk := make([]int16, len(s.buffer))
	copy(chunk, s.buffer)
	return chunk, nil
}

func (s *portAudioStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		stopErr := s.stream.Stop()
		closeErr := s.stream.Close()
		termErr := portaudio.Terminate()
		switch {
		case stopErr != nil:
			err = utils.WrapIfNotNil(stopErr)
		case closeErr != nil:
			err = utils.WrapIfNotNil(closeErr)
		case termErr != nil:
			err = utils.WrapIfNotNil(termErr)
		}
	})
	return err
}
