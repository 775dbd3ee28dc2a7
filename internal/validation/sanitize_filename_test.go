package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	validator := NewAPIValidator(nil)

	tests := []struct {
		input    string
		expected string
		name     string
	}{
		{"sample.mp3", "sample.mp3", "normal filename"},
		{"../../../etc/passwd", "etc_passwd", "path traversal attack"},
		{"take:with:colons.wav", "take_with_colons.wav", "colons"},
		{"take|with|pipes.wav", "take_with_pipes.wav", "pipes"},
		{"take?with?questions.ogg", "take_with_questions.ogg", "question marks"},
		{"take<with>brackets.ogg", "take_with_brackets.ogg", "angle brackets"},
		{"take\"with\"quotes.m4a", "take_with_quotes.m4a", "quotes"},
		{"take\\with\\backslashes.m4a", "take_with_backslashes.m4a", "backslashes"},
		{"take/with/slashes.flac", "take_with_slashes.flac", "forward slashes"},
		{"take*with*wildcards.webm", "take_with_wildcards.webm", "wildcards"},
		{"///..\\\\..//voice.mp3", "voice.mp3", "multiple dangerous chars in sequence"},
		{"....mp3", "sample.mp3", "dots only keep the extension"},
		{"______voice.mp3", "voice.mp3", "leading underscores should be trimmed"},
		{"voice.mp3______", "voice.mp3", "trailing underscores should be trimmed"},
		{"Recording.MP3", "Recording.mp3", "extension is lowercased"},
		{"../../../", "sample", "only dangerous chars falls back to sample"},
		{"", "sample", "empty filename falls back"},
		{"take.one.two.mp3", "take_one_two.mp3", "inner dots are replaced"},
		{"clip.mp3\x00.sh", "clip_mp3.sh", "null byte is replaced"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validator.SanitizeFilename(tt.input)
			assert.Equal(t, tt.expected, result, "Input: %s", tt.input)
		})
	}
}

func TestSanitizeFilenameLongName(t *testing.T) {
	validator := NewAPIValidator(nil)

	result := validator.SanitizeFilename(strings.Repeat("a", 250) + ".mp3")

	assert.LessOrEqual(t, len(result), 200)
	assert.Equal(t, strings.Repeat("a", 200-4)+".mp3", result)
}

func TestSanitizeFilenamePreservesValidChars(t *testing.T) {
	validator := NewAPIValidator(nil)

	filename := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_()[].wav"
	assert.Equal(t, filename, validator.SanitizeFilename(filename))
}

func TestSanitizeFilenameEdgeCases(t *testing.T) {
	validator := NewAPIValidator(nil)

	tests := []struct {
		input    string
		expected string
		name     string
	}{
		{".hidden", "sample.hidden", "dot file gets a base name"},
		{"take.", "take", "file ending with dot"},
		{"my voice sample.mp3", "my voice sample.mp3", "spaces should be preserved"},
		{"take-with-dashes_and_underscores.mp3", "take-with-dashes_and_underscores.mp3", "dashes and underscores should be preserved"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, validator.SanitizeFilename(tt.input), "Input: %s", tt.input)
		})
	}
}
