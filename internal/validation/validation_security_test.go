// internal/validation/validation_security_test.go - Tests de sécurité pour la validation

package validation

import (
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"admix-studio/internal/apperrors"

	"github.com/stretchr/testify/assert"
)

func hasCode(result *ValidationResult, code string) bool {
	for _, err := range result.Errors {
		if err.Code == code {
			return true
		}
	}
	return false
}

func TestFilenameValidationSecurity(t *testing.T) {
	validator := NewValidationService(DefaultValidationConfig())

	testCases := []struct {
		name     string
		filename string
		valid    bool
		code     string
	}{
		{"path traversal double dot", "../../../etc/passwd", false, "FORBIDDEN_CHAR"},
		{"hidden path traversal", "take.mp3/../../../etc/shadow", false, "FORBIDDEN_CHAR"},

		{"colon character", "take:one.mp3", false, "FORBIDDEN_CHAR"},
		{"asterisk character", "take*one.mp3", false, "FORBIDDEN_CHAR"},
		{"pipe character", "take|one.wav", false, "FORBIDDEN_CHAR"},
		{"null byte", "take\x00one.wav", false, "FORBIDDEN_CHAR"},
		{"control characters", "take\x01one.wav", false, "FORBIDDEN_CHAR"},

		{"starts with space", " take.mp3", false, "INVALID_FORMAT"},
		{"ends with space", "take.mp3 ", false, "INVALID_FORMAT"},
		{"starts with dot", ".take.mp3", false, "INVALID_FORMAT"},
		{"ends with dot", "take.", false, "INVALID_FORMAT"},

		{"too long", strings.Repeat("a", 300) + ".mp3", false, "TOO_LONG"},
		{"no extension", "take", false, "NO_EXTENSION"},

		{"exe extension", "malware.exe", false, "FORBIDDEN_EXTENSION"},
		{"script extension", "script.sh", false, "FORBIDDEN_EXTENSION"},
		{"markdown extension", "notes.md", false, "FORBIDDEN_EXTENSION"},

		{"valid mp3", "take-1.mp3", true, ""},
		{"valid wav uppercase", "TAKE.WAV", true, ""},
		{"valid m4a", "memo.m4a", true, ""},
		{"valid webm", "browser-recording.webm", true, ""},
		{"valid flac", "studio.flac", true, ""},
		{"valid ogg", "voice.ogg", true, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := validator.ValidateFilename(tc.filename)

			if tc.valid {
				assert.True(t, result.Valid, "Expected filename to be valid: %s", tc.filename)
				assert.Empty(t, result.Errors)
				return
			}
			assert.False(t, result.Valid, "Expected filename to be invalid: %s", tc.filename)
			assert.True(t, hasCode(result, tc.code), "Expected error code %s for filename %s", tc.code, tc.filename)
		})
	}
}

func TestAudioSignatureValidation(t *testing.T) {
	validator := NewAPIValidator(DefaultValidationConfig())

	testCases := []struct {
		name     string
		head     []byte
		filename string
		valid    bool
	}{
		{"mp3 with id3", []byte("ID3\x04\x00\x00"), "a.mp3", true},
		{"mp3 frame sync", []byte{0xFF, 0xFB, 0x90, 0x64}, "a.mp3", true},
		{"wav", []byte("RIFF\x24\x08\x00\x00WAVEfmt "), "a.wav", true},
		{"m4a", []byte("\x00\x00\x00\x20ftypM4A "), "a.m4a", true},
		{"ogg", []byte("OggS\x00\x02"), "a.ogg", true},
		{"webm", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x9F}, "a.webm", true},
		{"flac", []byte("fLaC\x00\x00"), "a.flac", true},

		{"text renamed as mp3", []byte("hello world"), "a.mp3", false},
		{"wav extension with ogg data", []byte("OggS\x00\x02\x00\x00\x00\x00\x00\x00"), "a.wav", false},
		{"truncated wav", []byte("RIFF"), "a.wav", false},
		{"unknown extension", []byte("ID3"), "a.aac", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := validator.ValidateAudioSignature(tc.head, tc.filename)
			assert.Equal(t, tc.valid, result.Valid)
			if !tc.valid {
				assert.True(t, hasCode(result, "INVALID_AUDIO_SIGNATURE"))
			}
		})
	}
}

func TestFileUploadValidation(t *testing.T) {
	validator := NewValidationService(DefaultValidationConfig())

	t.Run("Multiple file validation", func(t *testing.T) {
		files := []*multipart.FileHeader{
			createTestFileHeader("take1.mp3", "audio/mpeg", 1000),
			createTestFileHeader("take2.wav", "audio/wav", 2000),
			createTestFileHeader("take3.webm", "audio/webm;codecs=opus", 3000),
		}

		result := validator.ValidateFiles(files)
		assert.True(t, result.Valid, "Valid files should pass validation")
	})

	t.Run("No files", func(t *testing.T) {
		result := validator.ValidateFiles(nil)
		assert.False(t, result.Valid)
		assert.True(t, hasCode(result, "NO_FILES"))
	})

	t.Run("Twenty five files accepted", func(t *testing.T) {
		files := make([]*multipart.FileHeader, MaxVoiceSamples)
		for i := range files {
			files[i] = createTestFileHeader(strings.Repeat("a", i+1)+".mp3", "audio/mpeg", 100)
		}
		assert.True(t, validator.ValidateFiles(files).Valid)
	})

	t.Run("Too many files", func(t *testing.T) {
		files := make([]*multipart.FileHeader, MaxVoiceSamples+1)
		for i := range files {
			files[i] = createTestFileHeader(strings.Repeat("b", i+1)+".mp3", "audio/mpeg", 100)
		}

		result := validator.ValidateFiles(files)
		assert.False(t, result.Valid, "Too many files should fail")
		assert.True(t, hasCode(result, "TOO_MANY_FILES"))
	})

	t.Run("Total size too large", func(t *testing.T) {
		config := DefaultValidationConfig()
		config.MaxTotalSize = 5000
		validator := NewValidationService(config)

		files := []*multipart.FileHeader{
			createTestFileHeader("large1.mp3", "audio/mpeg", 3000),
			createTestFileHeader("large2.mp3", "audio/mpeg", 3000),
		}

		result := validator.ValidateFiles(files)
		assert.True(t, hasCode(result, "TOTAL_SIZE_TOO_LARGE"))
	})

	t.Run("Duplicate filenames", func(t *testing.T) {
		files := []*multipart.FileHeader{
			createTestFileHeader("duplicate.mp3", "audio/mpeg", 1000),
			createTestFileHeader("duplicate.mp3", "audio/mpeg", 1000),
		}

		result := validator.ValidateFiles(files)
		assert.True(t, hasCode(result, "DUPLICATE_FILENAME"))
	})

	t.Run("Forbidden mime type", func(t *testing.T) {
		files := []*multipart.FileHeader{
			createTestFileHeader("take.mp3", "text/html", 1000),
		}

		result := validator.ValidateFiles(files)
		assert.True(t, hasCode(result, "FORBIDDEN_MIME_TYPE"))
		assert.Equal(t, "audioFiles[0].content_type", result.Errors[0].Field)
	})

	t.Run("Empty files", func(t *testing.T) {
		files := []*multipart.FileHeader{
			createTestFileHeader("empty.mp3", "audio/mpeg", 0),
		}

		result := validator.ValidateFiles(files)
		assert.True(t, hasCode(result, "EMPTY_FILE"))
	})
}

func TestPaginationParams(t *testing.T) {
	validator := NewAPIValidator(nil)

	p, result := validator.ValidatePaginationParams("", "")
	assert.True(t, result.Valid)
	assert.Equal(t, PaginationParams{Page: 1, Limit: 0}, *p)

	p, result = validator.ValidatePaginationParams("3", "20")
	assert.True(t, result.Valid)
	assert.Equal(t, PaginationParams{Page: 3, Limit: 20}, *p)

	_, result = validator.ValidatePaginationParams("0", "")
	assert.True(t, hasCode(result, "INVALID_PAGE"))

	_, result = validator.ValidatePaginationParams("x", "")
	assert.True(t, hasCode(result, "INVALID_PAGE"))

	_, result = validator.ValidatePaginationParams("1", "201")
	assert.True(t, hasCode(result, "LIMIT_TOO_LARGE"))

	_, result = validator.ValidatePaginationParams("1", "-5")
	assert.True(t, hasCode(result, "INVALID_LIMIT"))
}

func TestIDParamAndErr(t *testing.T) {
	validator := NewAPIValidator(nil)

	_, result := validator.ValidateIDParam("id", "not-a-uuid")
	assert.True(t, hasCode(result, "INVALID_UUID"))
	assert.ErrorIs(t, result.Err(), apperrors.ErrValidation)
	assert.Contains(t, result.Err().Error(), "id must be a valid UUID")

	_, result = validator.ValidateIDParam("id", "")
	assert.True(t, hasCode(result, "REQUIRED"))

	id, result := validator.ValidateIDParam("id", "6f1c1f4e-2b4a-4c38-9a51-0d7cbd1f0c11")
	assert.True(t, result.Valid)
	assert.NoError(t, result.Err())
	assert.Equal(t, "6f1c1f4e-2b4a-4c38-9a51-0d7cbd1f0c11", id.String())
}

func createTestFileHeader(filename, contentType string, size int64) *multipart.FileHeader {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="audioFiles"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)

	return &multipart.FileHeader{
		Filename: filename,
		Header:   header,
		Size:     size,
	}
}

func BenchmarkFilenameValidation(b *testing.B) {
	validator := NewValidationService(DefaultValidationConfig())
	testFiles := []string{
		"take.mp3",
		"../../../etc/passwd",
		"take:with:colons.wav",
		"browser-recording.webm",
		strings.Repeat("a", 200) + ".flac",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		validator.ValidateFilename(testFiles[i%len(testFiles)])
	}
}
