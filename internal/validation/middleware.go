// internal/validation/middleware.go
package validation

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	validatorKey       = "validator"
	validatedIDKey     = "validated_id"
	validatedPageKey   = "validated_pagination"
	validatedFilesKey  = "validated_files"
	maxMultipartMemory = 32 << 20
)

// RequestValidator définit une fonction de validation pour une requête
type RequestValidator func(*gin.Context, *APIValidator) *ValidationResult

// Middleware injecte l'APIValidator dans le contexte
func Middleware(validator *APIValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(validatorKey, validator)
		c.Next()
	}
}

// ValidateRequest exécute les validators dans l'ordre et s'arrête au premier échec
func ValidateRequest(validators ...RequestValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		validator := GetValidator(c)
		if validator == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Validation service unavailable"})
			return
		}

		for _, validate := range validators {
			if result := validate(c, validator); !result.Valid {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error":             "Validation failed",
					"validation_errors": result.Errors,
				})
				return
			}
		}

		c.Next()
	}
}

func GetValidator(c *gin.Context) *APIValidator {
	if validator, exists := c.Get(validatorKey); exists {
		if apiValidator, ok := validator.(*APIValidator); ok {
			return apiValidator
		}
	}
	return nil
}

// ValidateIDParam valide un paramètre de chemin UUID et le stocke pour le handler
func ValidateIDParam(paramName string) RequestValidator {
	return func(c *gin.Context, v *APIValidator) *ValidationResult {
		id, result := v.ValidateIDParam(paramName, c.Param(paramName))
		if result.Valid {
			c.Set(validatedIDKey, id)
		}
		return result
	}
}

// ValidatedID retourne l'identifiant posé par ValidateIDParam
func ValidatedID(c *gin.Context) uuid.UUID {
	if id, ok := c.Get(validatedIDKey); ok {
		return id.(uuid.UUID)
	}
	return uuid.Nil
}

// ValidatePaginationParams valide page et limit depuis la query
func ValidatePaginationParams(c *gin.Context, v *APIValidator) *ValidationResult {
	pagination, result := v.ValidatePaginationParams(c.Query("page"), c.Query("limit"))
	if result.Valid {
		c.Set(validatedPageKey, *pagination)
	}
	return result
}

func ValidatedPagination(c *gin.Context) PaginationParams {
	if p, ok := c.Get(validatedPageKey); ok {
		return p.(PaginationParams)
	}
	return PaginationParams{Page: 1}
}

// ValidateAudioUpload valide le champ multipart field
func ValidateAudioUpload(field string) RequestValidator {
	return func(c *gin.Context, v *APIValidator) *ValidationResult {
		if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
			result := &ValidationResult{Valid: true}
			result.AddError(field, "", "failed to parse multipart form: "+err.Error(), "MULTIPART_PARSE_ERROR")
			return result
		}

		files := c.Request.MultipartForm.File[field]
		result := v.ValidateAudioUpload(files)
		if result.Valid {
			c.Set(validatedFilesKey, files)
		}
		return result
	}
}

func ValidatedFiles(c *gin.Context) []*multipart.FileHeader {
	if files, ok := c.Get(validatedFilesKey); ok {
		return files.([]*multipart.FileHeader)
	}
	return nil
}
