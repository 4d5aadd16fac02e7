package apihandlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tmrelay/internal/services"
)

const genericErrorMessage = "Internal server error"

// errorResponse is the only error shape clients see.
// Example: { "error": "not found" } or { "error": { ...upstream body... } }
type errorResponse struct {
	Error any `json:"error"`
}

// JSONError sends an error response; payload is a message string or a raw upstream body.
func JSONError(ctx *gin.Context, status int, payload any) {
	ctx.AbortWithStatusJSON(status, errorResponse{Error: payload})
}

func Internal(ctx *gin.Context, msg string) {
	if msg == "" {
		msg = genericErrorMessage
	}
	JSONError(ctx, http.StatusInternalServerError, msg)
}

// RelayFailure renders err, honoring the status of a *services.RelayError.
func RelayFailure(ctx *gin.Context, err error) {
	var relayErr *services.RelayError
	if errors.As(err, &relayErr) {
		JSONError(ctx, relayErr.Status, relayErr.Payload())
		return
	}
	Internal(ctx, err.Error())
}
