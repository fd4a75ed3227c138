//go:build !portaudio

package capture

import (
	"testing"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/stretchr/testify/require"
)

func TestDefaultDeviceWithoutPortAudioIsUnavailable(t *testing.T) {
	stream, err := DefaultDevice().Open(model.DefaultCaptureConfig())
	require.Nil(t, stream)
	require.ErrorIs(t, err, model.ErrDeviceUnavailable)
}
