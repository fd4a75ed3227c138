package model

import "errors"

var (
	// ErrDeviceUnavailable means the capture device is absent or access was denied.
	ErrDeviceUnavailable = errors.New("audio input device unavailable")
	// ErrDecode means the recognizer could not read the supplied audio.
	ErrDecode = errors.New("audio could not be decoded")
	// ErrDetection means the text was empty, too short, or ambiguous.
	ErrDetection = errors.New("language could not be detected")
	// ErrTranslationService covers network failures, rate limits and unsupported pairs.
	ErrTranslationService = errors.New("translation service error")
	// ErrValidation is the only recoverable kind: the caller should re-prompt.
	ErrValidation = errors.New("please enter text to translate")
)

// IsRecoverable reports whether err leaves the surface ready for another attempt
// without discarding the current input mode.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrValidation)
}
