package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ilmarsk/notehub/internal/response"
	fileservice "github.com/ilmarsk/notehub/internal/service/file"
	noteservice "github.com/ilmarsk/notehub/internal/service/note"
)

// FileHandler handles attachment endpoints.
type FileHandler struct {
	files fileservice.FileService
	notes noteservice.NoteService
}

// NewFileHandler creates the attachment handler.
func NewFileHandler(files fileservice.FileService, notes noteservice.NoteService) *FileHandler {
	return &FileHandler{files: files, notes: notes}
}

// Upload attaches a multipart file to a note.
// POST /api/v1/notes/:id/files
func (h *FileHandler) Upload(c *gin.Context) {
	note, err := h.notes.GetByID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file field: "+err.Error())
		return
	}

	src, err := header.Open()
	if err != nil {
		response.BadRequest(c, "failed to open uploaded file: "+err.Error())
		return
	}
	defer src.Close()

	record, err := h.files.SaveFile(note.ID, header.Filename, header.Header.Get("Content-Type"), src)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, record)
}

// Download streams an attachment's content.
// GET /api/v1/files/:id
func (h *FileHandler) Download(c *gin.Context) {
	record, err := h.files.GetFileByID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.FileAttachment(record.StoragePath, record.FileName)
}

// Delete removes a single attachment.
// DELETE /api/v1/files/:id
func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.files.DeleteFile(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
