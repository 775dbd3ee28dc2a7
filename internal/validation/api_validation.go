package validation

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxPageLimit borne la taille d'une page d'historique
const MaxPageLimit = 200

// APIValidator gère la validation des requêtes API
type APIValidator struct {
	validationService *ValidationService
}

// PaginationParams contient les paramètres de pagination validés.
// Limit vaut 0 quand le client ne l'a pas fourni.
type PaginationParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func NewAPIValidator(config *ValidationConfig) *APIValidator {
	return &APIValidator{
		validationService: NewValidationService(config),
	}
}

// ValidateIDParam valide un identifiant de chemin
func (av *APIValidator) ValidateIDParam(field, value string) (uuid.UUID, *ValidationResult) {
	result := av.validationService.ValidateUUID(field, value)
	if !result.Valid {
		return uuid.Nil, result
	}
	id, _ := uuid.Parse(value)
	return id, result
}

// ValidateAudioUpload valide les échantillons d'un clonage de voix
func (av *APIValidator) ValidateAudioUpload(files []*multipart.FileHeader) *ValidationResult {
	return av.validationService.ValidateFiles(files)
}

// ValidatePaginationParams valide page et limit avec valeurs par défaut
func (av *APIValidator) ValidatePaginationParams(pageStr, limitStr string) (*PaginationParams, *ValidationResult) {
	result := &ValidationResult{Valid: true}
	pagination := &PaginationParams{Page: 1}

	if pageStr != "" {
		if parsed, err := strconv.Atoi(pageStr); err != nil {
			result.AddError("page", pageStr, "page must be a valid integer", "INVALID_PAGE")
		} else if parsed < 1 {
			result.AddError("page", pageStr, "page must be at least 1", "INVALID_PAGE")
		} else {
			pagination.Page = parsed
		}
	}

	if limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err != nil {
			result.AddError("limit", limitStr, "limit must be a valid integer", "INVALID_LIMIT")
		} else if parsed < 1 {
			result.AddError("limit", limitStr, "limit must be positive", "INVALID_LIMIT")
		} else if parsed > MaxPageLimit {
			result.AddError("limit", limitStr,
				fmt.Sprintf("limit too large (max %d)", MaxPageLimit), "LIMIT_TOO_LARGE")
		} else {
			pagination.Limit = parsed
		}
	}

	return pagination, result
}

const maxSanitizedLength = 200

var safeExtension = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

// SanitizeFilename réduit un nom client à un nom de fichier local sûr. Les
// points, séparateurs et caractères réservés du nom deviennent "_", seule
// l'extension (en minuscules) garde son point.
func (av *APIValidator) SanitizeFilename(filename string) string {
	filename = strings.Trim(filename, " _")

	ext := strings.ToLower(filepath.Ext(filename))
	if !safeExtension.MatchString(ext) {
		ext = ""
	}
	base := filename[:len(filename)-len(ext)]

	var b strings.Builder
	lastUnderscore := false
	for _, r := range base {
		if r == '.' || unicode.IsControl(r) || strings.ContainsRune(reservedChars, r) {
			r = '_'
		}
		if r == '_' && lastUnderscore {
			continue
		}
		lastUnderscore = r == '_'
		b.WriteRune(r)
	}

	base = strings.Trim(b.String(), " _")
	if base == "" {
		base = "sample"
	}
	for len(base)+len(ext) > maxSanitizedLength {
		_, size := utf8.DecodeLastRuneInString(base)
		base = base[:len(base)-size]
	}
	return base + ext
}

// ValidateAudioSignature vérifie les premiers octets d'un échantillon
// contre la signature attendue pour son extension.
func (av *APIValidator) ValidateAudioSignature(head []byte, filename string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	ext := strings.ToLower(filepath.Ext(filename))
	ok := false
	switch ext {
	case ".mp3":
		ok = bytes.HasPrefix(head, []byte("ID3")) ||
			(len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0)
	case ".wav":
		ok = len(head) >= 12 && bytes.Equal(head[0:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE"))
	case ".m4a":
		ok = len(head) >= 8 && bytes.Equal(head[4:8], []byte("ftyp"))
	case ".ogg":
		ok = bytes.HasPrefix(head, []byte("OggS"))
	case ".webm":
		ok = bytes.HasPrefix(head, []byte{0x1A, 0x45, 0xDF, 0xA3})
	case ".flac":
		ok = bytes.HasPrefix(head, []byte("fLaC"))
	}

	if !ok {
		result.AddError("content", filename,
			fmt.Sprintf("content does not look like a %s file", strings.TrimPrefix(ext, ".")),
			"INVALID_AUDIO_SIGNATURE")
	}

	return result
}
