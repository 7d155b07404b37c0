// Package handler exposes the service layer over HTTP.
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ilmarsk/notehub/internal/response"
	ingestservice "github.com/ilmarsk/notehub/internal/service/ingest"
	noteservice "github.com/ilmarsk/notehub/internal/service/note"
)

// NoteHandler handles note endpoints.
type NoteHandler struct {
	notes  noteservice.NoteService
	ingest ingestservice.IngestService
}

// NewNoteHandler creates the note handler.
func NewNoteHandler(notes noteservice.NoteService, ingest ingestservice.IngestService) *NoteHandler {
	return &NoteHandler{notes: notes, ingest: ingest}
}

// IngestRequest is a raw free-text submission.
type IngestRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Text   string `json:"text"`
}

// Ingest accepts free text and creates a structured note from it.
// POST /api/v1/notes/ingest
func (h *NoteHandler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	note, err := h.ingest.Ingest(req.UserID, req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, note)
}

// Get returns a note with its tags and files.
// GET /api/v1/notes/:id
func (h *NoteHandler) Get(c *gin.Context) {
	note, err := h.notes.GetByID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, note)
}

// List returns all notes of a user.
// GET /api/v1/notes?user_id=1
func (h *NoteHandler) List(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "user_id must be a positive integer")
		return
	}

	notes, err := h.notes.List(uint(userID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, notes)
}

// Update applies partial changes to a note.
// PATCH /api/v1/notes/:id
func (h *NoteHandler) Update(c *gin.Context) {
	var req noteservice.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	note, err := h.notes.Update(c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, note)
}

// Delete removes a note with its attachments and tag links.
// DELETE /api/v1/notes/:id
func (h *NoteHandler) Delete(c *gin.Context) {
	if err := h.notes.Delete(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
