package transcription

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// ErrUnsupportedAudio is returned for uploads that are not a known audio format.
var ErrUnsupportedAudio = errors.New("unsupported audio file type")

var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".webm": true,
	".ogg":  true,
}

// audioContentTypes maps accepted content types to the extension the file is stored under.
var audioContentTypes = map[string]string{
	"audio/mpeg":      ".mp3",
	"audio/mp3":       ".mp3",
	"audio/wav":       ".wav",
	"audio/x-wav":     ".wav",
	"audio/wave":      ".wav",
	"audio/m4a":       ".m4a",
	"audio/x-m4a":     ".m4a",
	"audio/mp4":       ".m4a",
	"audio/webm":      ".webm",
	"video/webm":      ".webm",
	"audio/ogg":       ".ogg",
	"application/ogg": ".ogg",
}

// ValidateAudio accepts a file when either its content type or its extension
// names a supported audio format. It returns the extension to store it under.
func ValidateAudio(filename, contentType string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if audioExtensions[ext] {
		return ext, nil
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if typed, ok := audioContentTypes[mt]; ok {
			return typed, nil
		}
	}
	return "", fmt.Errorf("%w: %q (%s); allowed: mp3, wav, m4a, webm, ogg", ErrUnsupportedAudio, filename, contentType)
}
