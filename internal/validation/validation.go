// Package validation contrôle les entrées HTTP : identifiants, pagination et
// échantillons audio des clonages de voix.
package validation

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"admix-studio/internal/apperrors"

	"github.com/google/uuid"
)

// MaxVoiceSamples borne le nombre d'échantillons d'un clonage de voix
const MaxVoiceSamples = 25

// ValidationConfig bornes appliquées aux échantillons audio uploadés
type ValidationConfig struct {
	MaxFileSize       int64
	MaxTotalSize      int64
	MaxFiles          int
	MaxFilenameLength int
	AllowedExtensions map[string]bool
	AllowedMimeTypes  map[string]bool
}

func setOf(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// DefaultValidationConfig limites d'un clonage de voix : 20MB par
// échantillon, 200MB au total.
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MaxFileSize:       20 << 20,
		MaxTotalSize:      200 << 20,
		MaxFiles:          MaxVoiceSamples,
		MaxFilenameLength: 255,
		AllowedExtensions: setOf(".mp3", ".wav", ".m4a", ".ogg", ".webm", ".flac"),
		AllowedMimeTypes: setOf(
			"audio/mpeg", "audio/mp3",
			"audio/wav", "audio/x-wav", "audio/wave",
			"audio/mp4", "audio/x-m4a",
			"audio/ogg", "audio/webm", "audio/flac", "audio/x-flac",
			"video/webm", // MediaRecorder
			"application/octet-stream",
		),
	}
}

type ValidationService struct {
	config *ValidationConfig
}

func NewValidationService(config *ValidationConfig) *ValidationService {
	if config == nil {
		config = DefaultValidationConfig()
	}
	return &ValidationService{config: config}
}

// ValidationError représente une erreur de validation avec détails
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// ValidationResult contient le résultat de validation
type ValidationResult struct {
	Valid  bool               `json:"valid"`
	Errors []*ValidationError `json:"errors,omitempty"`
}

func (vr *ValidationResult) AddError(field, value, message, code string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		Code:    code,
	})
}

func (vr *ValidationResult) merge(other *ValidationResult) {
	if other.Valid {
		return
	}
	vr.Valid = false
	vr.Errors = append(vr.Errors, other.Errors...)
}

// Err convertit le résultat en erreur de domaine (nil si valide)
func (vr *ValidationResult) Err() error {
	if vr.Valid {
		return nil
	}
	messages := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		messages = append(messages, e.Field+": "+e.Message)
	}
	return apperrors.Validation("%s", strings.Join(messages, "; "))
}

// ValidateUUID valide un identifiant obligatoire
func (vs *ValidationService) ValidateUUID(field, value string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if value == "" {
		result.AddError(field, "", field+" is required", "REQUIRED")
		return result
	}

	if _, err := uuid.Parse(value); err != nil {
		result.AddError(field, value, field+" must be a valid UUID", "INVALID_UUID")
	}

	return result
}

// caractères réservés des systèmes de fichiers, en plus des caractères de contrôle
const reservedChars = `/\:*?"<>|`

// ValidateFilename valide le nom d'un échantillon audio
func (vs *ValidationService) ValidateFilename(filename string) *ValidationResult {
	result := &ValidationResult{Valid: true}
	fail := func(message, code string) {
		result.AddError("filename", filename, message, code)
	}

	if filename == "" {
		fail("filename is required", "REQUIRED")
		return result
	}
	if len(filename) > vs.config.MaxFilenameLength {
		fail(fmt.Sprintf("filename too long (max %d characters)", vs.config.MaxFilenameLength), "TOO_LONG")
	}
	if !utf8.ValidString(filename) {
		fail("filename must be valid UTF-8", "INVALID_ENCODING")
	}

	if strings.Contains(filename, "..") {
		fail(`filename contains forbidden sequence ".."`, "FORBIDDEN_CHAR")
	}
	seen := map[rune]bool{}
	for _, r := range filename {
		if seen[r] || !(unicode.IsControl(r) || strings.ContainsRune(reservedChars, r)) {
			continue
		}
		seen[r] = true
		fail(fmt.Sprintf("filename contains forbidden character: %q", r), "FORBIDDEN_CHAR")
	}

	if strings.Trim(filename, " .") != filename {
		fail("filename cannot start or end with space or dot", "INVALID_FORMAT")
	}

	switch ext := strings.ToLower(filepath.Ext(filename)); {
	case ext == "":
		fail("filename must have an extension", "NO_EXTENSION")
	case !vs.config.AllowedExtensions[ext]:
		fail(fmt.Sprintf("file extension %s not allowed", ext), "FORBIDDEN_EXTENSION")
	}

	return result
}

// ValidateFileHeader valide un échantillon multipart : nom, taille et type déclaré
func (vs *ValidationService) ValidateFileHeader(header *multipart.FileHeader) *ValidationResult {
	result := vs.ValidateFilename(header.Filename)
	size := strconv.FormatInt(header.Size, 10)

	switch {
	case header.Size == 0:
		result.AddError("file_size", size, "file is empty", "EMPTY_FILE")
	case header.Size > vs.config.MaxFileSize:
		result.AddError("file_size", size,
			fmt.Sprintf("file too large (max %d bytes)", vs.config.MaxFileSize), "FILE_TOO_LARGE")
	}

	if contentType := header.Header.Get("Content-Type"); contentType != "" {
		mediaType, _, _ := strings.Cut(contentType, ";")
		mediaType = strings.ToLower(strings.TrimSpace(mediaType))
		if !vs.config.AllowedMimeTypes[mediaType] {
			result.AddError("content_type", contentType,
				fmt.Sprintf("content type %s not allowed", mediaType), "FORBIDDEN_MIME_TYPE")
		}
	}

	return result
}

// ValidateFiles valide le lot d'échantillons d'un clonage. Les erreurs par
// fichier sont préfixées par audioFiles[i].
func (vs *ValidationService) ValidateFiles(files []*multipart.FileHeader) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(files) == 0 {
		result.AddError("audioFiles", "", "no audio files provided", "NO_FILES")
		return result
	}
	if len(files) > vs.config.MaxFiles {
		result.AddError("audioFiles", strconv.Itoa(len(files)),
			fmt.Sprintf("too many files (max %d)", vs.config.MaxFiles), "TOO_MANY_FILES")
	}

	var total int64
	names := make(map[string]int, len(files))
	for i, file := range files {
		prefix := fmt.Sprintf("audioFiles[%d].", i)

		fileResult := vs.ValidateFileHeader(file)
		for _, e := range fileResult.Errors {
			e.Field = prefix + e.Field
		}
		result.merge(fileResult)

		if first, dup := names[file.Filename]; dup {
			result.AddError(prefix+"filename", file.Filename,
				fmt.Sprintf("duplicate filename (same as audioFiles[%d])", first), "DUPLICATE_FILENAME")
		} else {
			names[file.Filename] = i
		}
		total += file.Size
	}

	if total > vs.config.MaxTotalSize {
		result.AddError("total_size", strconv.FormatInt(total, 10),
			fmt.Sprintf("total size too large (max %d bytes)", vs.config.MaxTotalSize), "TOTAL_SIZE_TOO_LARGE")
	}

	return result
}
