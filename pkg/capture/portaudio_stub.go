//go:build !portaudio

package capture

import (
	"errors"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
)

type unavailableDevice struct{}

// DefaultDevice reports the device as unavailable; build with -tags portaudio
// to record from the system microphone.
func DefaultDevice() Device {
	return unavailableDevice{}
}

func (unavailableDevice) Open(model.CaptureConfig) (Stream, error) {
	return nil, utils.WrapWithKind(
		model.ErrDeviceUnavailable,
		errors.New("built without portaudio support"),
	)
}
