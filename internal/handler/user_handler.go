package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ilmarsk/notehub/internal/response"
	userservice "github.com/ilmarsk/notehub/internal/service/user"
)

// UserHandler handles tenant endpoints.
type UserHandler struct {
	users userservice.UserService
}

// NewUserHandler creates the user handler.
func NewUserHandler(users userservice.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// EnsureUserRequest carries an external identity to register.
type EnsureUserRequest struct {
	ExternalID int64  `json:"external_id" binding:"required"`
	Profile    string `json:"profile"`
}

// Ensure registers or refreshes the local user for an external identity.
// POST /api/v1/users
func (h *UserHandler) Ensure(c *gin.Context) {
	var req EnsureUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.users.EnsureUser(req.ExternalID, req.Profile)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// Get returns a user by local id.
// GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "id must be a positive integer")
		return
	}

	user, err := h.users.GetByID(uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}
