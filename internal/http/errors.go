package http

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Murdock022X/BankingWebsite/internal/ledger"
	"github.com/Murdock022X/BankingWebsite/internal/logger"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func statusFor(code ledger.Code) int {
	switch code {
	case ledger.CodeNotFound, ledger.CodeSourceNotFound, ledger.CodeDestinationNotFound:
		return 404
	case ledger.CodeOwnerMismatch:
		return 403
	case ledger.CodeDestinationClosed, ledger.CodeAccountClosed, ledger.CodeNonZeroBalance, ledger.CodeTermChanged:
		return 409
	case ledger.CodeBelowMinimumBalance:
		return 422
	default:
		return 400
	}
}

// fail writes the response for err. Ledger rejections carry their code to
// the caller; everything else is logged and hidden behind a 500.
func fail(c *gin.Context, err error) {
	var le *ledger.Error
	if errors.As(err, &le) {
		c.JSON(statusFor(le.Code), gin.H{"error": string(le.Code), "message": le.Message})
		return
	}
	log := logger.FromContext(c.Request.Context())
	log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	c.JSON(500, gin.H{"error": "internal_error"})
}

// bindJSON decodes a gin-bound payload and shapes validator failures.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(400, gin.H{"error": "invalid_request", "message": err.Error()})
		return false
	}
	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
			Type:    fe.Tag(),
		})
	}
	c.JSON(400, gin.H{"error": "invalid_request", "details": details})
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "oneof":
		return "Value must be one of " + fe.Param()
	case "alphanum":
		return "Value may only contain letters and digits"
	default:
		return "Invalid value"
	}
}
