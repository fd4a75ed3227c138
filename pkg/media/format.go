package media

import (
	"errors"
	"mime"
	"path/filepath"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-translate/pkg/utils"
)

// Format describes an accepted upload container.
type Format struct {
	Extension string
	MIMEType  string
	// Video containers carry an audio track that is extracted before recognition.
	Video bool
}

var uploadFormats = map[string]Format{
	".mp3":  {Extension: ".mp3", MIMEType: "audio/mpeg"},
	".wav":  {Extension: ".wav", MIMEType: "audio/wav"},
	".m4a":  {Extension: ".m4a", MIMEType: "audio/mp4"},
	".ogg":  {Extension: ".ogg", MIMEType: "audio/ogg"},
	".webm": {Extension: ".webm", MIMEType: "audio/webm"},
	".flac": {Extension: ".flac", MIMEType: "audio/flac"},
	".mp4":  {Extension: ".mp4", MIMEType: "video/mp4", Video: true},
	".mov":  {Extension: ".mov", MIMEType: "video/quicktime", Video: true},
}

var mimeAliases = map[string]string{
	"audio/mpeg":      ".mp3",
	"audio/mp3":       ".mp3",
	"audio/wav":       ".wav",
	"audio/wave":      ".wav",
	"audio/x-wav":     ".wav",
	"audio/vnd.wave":  ".wav",
	"audio/mp4":       ".m4a",
	"audio/x-m4a":     ".m4a",
	"audio/ogg":       ".ogg",
	"audio/webm":      ".webm",
	"audio/flac":      ".flac",
	"audio/x-flac":    ".flac",
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
}

// ResolveUploadFormat accepts a MIME type ("audio/mpeg"), a file name
// ("clip.MOV") or a bare extension ("mp3") and returns the matching format.
// Anything else is reported as a decode error.
func ResolveUploadFormat(hint string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(hint))
	if normalized == "" {
		return Format{}, utils.WrapWithKind(model.ErrDecode, errors.New("upload format hint is required"))
	}

	if strings.Contains(normalized, "/") && !strings.Contains(filepath.Base(normalized), ".") {
		mediaType, _, err := mime.ParseMediaType(normalized)
		if err == nil {
			if ext, ok := mimeAliases[mediaType]; ok {
				return uploadFormats[ext], nil
			}
		}
		return Format{}, utils.WrapWithKind(model.ErrDecode, errors.New("unsupported upload type: "+normalized))
	}

	ext := filepath.Ext(normalized)
	if ext == "" {
		ext = "." + normalized
	}
	format, ok := uploadFormats[ext]
	if !ok {
		return Format{}, utils.WrapWithKind(model.ErrDecode, errors.New("unsupported upload extension: "+ext))
	}
	return format, nil
}

func SupportedExtensions() []string {
	return []string{"mp3", "wav", "mp4", "mov", "m4a", "ogg", "webm", "flac"}
}
