package apihandlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"tmrelay/internal/app"
	"tmrelay/internal/logging"
	"tmrelay/internal/models"
)

// Relayer runs one relay for a keyword.
type Relayer interface {
	Relay(ctx context.Context, keyword string) (*models.RelayResponse, error)
}

type APIHandler struct {
	Relay Relayer
}

func NewAPIHandler(a *app.App) *APIHandler {
	return &APIHandler{Relay: a.RelayService}
}

// TestHandler is a fixed diagnostic route.
func (h *APIHandler) TestHandler(c *gin.Context) {
	logging.FromContext(c.Request.Context()).Info("Test route hit")
	c.String(http.StatusOK, "Test successful!")
}

// SearchHandler handles GET /api/search?keyword=.
func (h *APIHandler) SearchHandler(c *gin.Context) {
	var query models.SearchQuery
	// keyword is free text; a missing value is relayed as an empty string.
	_ = c.ShouldBindQuery(&query)

	ctx := c.Request.Context()
	logger := logging.FromContext(ctx).WithField("keyword", query.Keyword)
	logger.Info("API route hit")

	resp, err := h.Relay.Relay(ctx, query.Keyword)
	if err != nil {
		RelayFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
	logger.WithFields(map[string]any{
		"results":    len(resp.Results),
		"suggestion": resp.Suggestion,
	}).Info("Response sent")
}

// HealthHandler reports liveness.
func (h *APIHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
