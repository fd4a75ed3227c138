package capture

import (
	"os"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV persists 16-bit PCM samples with the given frame rate and channel count.
func WriteWAV(path string, samples []int16, sampleRate int, channels int) error {
	file, err := os.Create(path)
	if err != nil {
		return utils.WrapIfNotNil(err)
	}

	encoder := wav.NewEncoder(file, sampleRate, model.DefaultBitDepth, channels, 1)
	data := make([]int, len(samples))
	for i, sample := range samples {
		data[i] = int(sample)
	}

	buffer := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: model.DefaultBitDepth,
	}

	writeErr := encoder.Write(buffer)
	closeErr := encoder.Close()
	fileErr := file.Close()
	switch {
	case writeErr != nil:
		return utils.WrapIfNotNil(writeErr)
	case closeErr != nil:
		return utils.WrapIfNotNil(closeErr)
	case fileErr != nil:
		return utils.WrapIfNotNil(fileErr)
	}
	return nil
}
