package handlers

import (
	"errors"
	"net/http"

	"github.com/creditosbo/creditos-api/internal/services"
	"github.com/gin-gonic/gin"
)

// handleServiceError maps service errors to HTTP responses: field validation
// errors to 400, not-found to 404, business rule violations to 422.
func handleServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message, "field": validationErr.Field})
		return
	}

	var ruleErr *services.RuleError
	if errors.As(err, &ruleErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": ruleErr.Message})
		return
	}

	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": services.ErrNotFound.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
