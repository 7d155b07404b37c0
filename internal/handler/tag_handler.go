package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ilmarsk/notehub/internal/response"
	tagservice "github.com/ilmarsk/notehub/internal/service/tag"
)

// TagHandler handles tag endpoints.
type TagHandler struct {
	tags tagservice.TagService
}

// NewTagHandler creates the tag handler.
func NewTagHandler(tags tagservice.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

// List returns all tags of a user ordered by name.
// GET /api/v1/tags?user_id=1
func (h *TagHandler) List(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "user_id must be a positive integer")
		return
	}

	tags, err := h.tags.ListTags(uint(userID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tags)
}

// Get returns one tag by name.
// GET /api/v1/tags/:name?user_id=1
func (h *TagHandler) Get(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "user_id must be a positive integer")
		return
	}

	tag, err := h.tags.GetTagByName(uint(userID), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tag)
}

// Search returns a page of the user's tags matching a name query.
// GET /api/v1/tags/search?user_id=1&q=work&page=1&page_size=20
func (h *TagHandler) Search(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "user_id must be a positive integer")
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	tags, total, err := h.tags.SearchTags(uint(userID), c.Query("q"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"tags":      tags,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// Popular returns the user's most-used tags.
// GET /api/v1/tags/popular?user_id=1&limit=10
func (h *TagHandler) Popular(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "user_id must be a positive integer")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	tags, err := h.tags.GetPopularTags(uint(userID), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tags)
}

// UsageStats returns usage statistics for one tag.
// GET /api/v1/tags/:name/stats?user_id=1
func (h *TagHandler) UsageStats(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "user_id must be a positive integer")
		return
	}

	stats, err := h.tags.GetTagUsageStats(uint(userID), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}
