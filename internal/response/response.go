// Package response provides the unified JSON envelope for API responses.
package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ilmarsk/notehub/internal/errors"
)

// Response is the unified API response format.
type Response struct {
	Code      int         `json:"code"` // 0 on success, error code otherwise
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Success returns a 200 response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:      0,
		Message:   "success",
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// Created returns a 201 response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:      0,
		Message:   "success",
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// BadRequest returns a 400 response.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:      int(apperrors.ErrInvalidParams),
		Message:   message,
		Timestamp: time.Now().Unix(),
	})
}

// NotFound returns a 404 response.
func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, Response{
		Code:      int(apperrors.ErrNotFound),
		Message:   message,
		Timestamp: time.Now().Unix(),
	})
}

// InternalServerError returns a 500 response.
func InternalServerError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, Response{
		Code:      int(apperrors.ErrInternalServer),
		Message:   message,
		Timestamp: time.Now().Unix(),
	})
}

// Error maps an application error onto the right HTTP status and envelope.
// Validation errors carry their field list in the data payload.
func Error(c *gin.Context, err error) {
	if verr, ok := apperrors.AsValidation(err); ok {
		c.JSON(http.StatusUnprocessableEntity, Response{
			Code:      int(apperrors.ErrValidation),
			Message:   verr.Error(),
			Data:      verr.Fields,
			Timestamp: time.Now().Unix(),
		})
		return
	}
	if apperrors.IsNotFound(err) {
		NotFound(c, err.Error())
		return
	}
	InternalServerError(c, err.Error())
}
