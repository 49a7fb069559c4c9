package handlers

import (
	"encoding/json"
	stderrors "errors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/yukikurage/task-tracker-api/internal/dto"
	apperrors "github.com/yukikurage/task-tracker-api/internal/errors"
)

type sanitizer interface {
	Sanitize()
}

// respondError writes the response for a service error.
func respondError(c *gin.Context, err error) {
	apperrors.Respond(c, err)
}

// respondInvalid reports field validation failures as 400 with details and
// anything else through respondError.
func respondInvalid(c *gin.Context, err error) {
	var ve *dto.ValidationError
	if stderrors.As(err, &ve) {
		apperrors.BadRequestWithDetails(c, "Validation failed", ve.Fields)
		return
	}
	respondError(c, err)
}

// bindJSON decodes the body into obj, sanitizes it and then validates the
// binding tags. It writes the 400 response itself and reports whether the
// handler may continue.
func bindJSON(c *gin.Context, obj interface{}) bool {
	body, err := c.GetRawData()
	if err != nil {
		apperrors.BadRequest(c, "Unable to read request body")
		return false
	}
	if err := json.Unmarshal(body, obj); err != nil {
		apperrors.BadRequestWithDetails(c, "Invalid request body", dto.FieldErrors(err))
		return false
	}
	return sanitizeAndValidate(c, obj)
}

// bindQuery is bindJSON for the query string. Form defaults apply to absent keys.
func bindQuery(c *gin.Context, obj interface{}) bool {
	if err := binding.MapFormWithTag(obj, c.Request.URL.Query(), "form"); err != nil {
		apperrors.BadRequestWithDetails(c, "Invalid query parameters", dto.FieldErrors(err))
		return false
	}
	return sanitizeAndValidate(c, obj)
}

func sanitizeAndValidate(c *gin.Context, obj interface{}) bool {
	if s, ok := obj.(sanitizer); ok {
		s.Sanitize()
	}
	if err := binding.Validator.ValidateStruct(obj); err != nil {
		apperrors.BadRequestWithDetails(c, "Validation failed", dto.FieldErrors(err))
		return false
	}
	return true
}
