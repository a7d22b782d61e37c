package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/algobucks/platform/internal/response"
	"github.com/algobucks/platform/internal/service"
)

// MediaHandler handles media upload endpoints.
type MediaHandler struct {
	mediaService *service.MediaService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// UploadMedia godoc
// POST /api/v1/admin/media/upload
// Uploads an image for a problem statement or contest banner and
// returns its URL. The rejection reasons (detected type, size cap)
// ride in the error fields so the admin UI can show them.
func (h *MediaHandler) UploadMedia(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	url, err := h.mediaService.SaveUpload(file, header)
	if err != nil {
		fields := map[string]string{"file": err.Error()}
		switch {
		case errors.Is(err, service.ErrUnsupportedFileType):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrUnsupportedFile, fields)
		case errors.Is(err, service.ErrFileTooLarge):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrFileTooLarge, fields)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"url": url})
}
