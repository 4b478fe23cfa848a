package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xaenox/feature-scout/internal/scoring"
	"github.com/xaenox/feature-scout/internal/storage"
	"go.uber.org/zap"
)

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorEnvelope{Error: apiError{Message: message, Code: code}})
}

// respondStorageError maps the error taxonomy onto status codes: not-found
// and validation conditions are client-visible, everything else is a
// generic 500 without internal detail.
func (s *Server) respondStorageError(c *gin.Context, err error, entity string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(c, http.StatusNotFound, "not_found", entity+" not found")
	case errors.Is(err, storage.ErrDuplicate):
		respondError(c, http.StatusBadRequest, "duplicate", entity+" already exists")
	case errors.Is(err, scoring.ErrInvalidRating):
		respondError(c, http.StatusBadRequest, "invalid_rating", scoring.ErrInvalidRating.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal", "An unexpected error occurred. Please try again later.")
	}
}
