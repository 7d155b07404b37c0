package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ilmarsk/notehub/internal/response"
	renderservice "github.com/ilmarsk/notehub/internal/service/render"
)

// RenderHandler handles markdown preview endpoints.
type RenderHandler struct {
	render renderservice.RenderService
}

// NewRenderHandler creates the render handler.
func NewRenderHandler(render renderservice.RenderService) *RenderHandler {
	return &RenderHandler{render: render}
}

// PreviewRequest carries a markdown body to render.
type PreviewRequest struct {
	Body *string `json:"body"`
}

// Preview renders a markdown body into display markup. Broken markdown
// degrades to empty markup; the endpoint never fails on content.
// POST /api/v1/render/preview
func (h *RenderHandler) Preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	html := h.render.Render(req.Body)
	response.Success(c, gin.H{"html": string(html)})
}
