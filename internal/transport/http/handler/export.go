package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resumeguru/internal/app"
	"resumeguru/internal/renderer"
	"resumeguru/internal/transport/http/response"
)

type ExportHandler struct {
	exports *app.ExportService
}

type ExportRequest struct {
	ResumeHTML string `json:"resume_html" binding:"required"`
}

func NewExportHandler(exports *app.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Export streams the rendered document back with the remaining quota in a
// response header. The body is the document itself, not the JSON envelope,
// so the browser can save it directly.
func (h *ExportHandler) Export(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.exports.RequestExport(c.Request.Context(), app.ExportInput{
		UserID:     userID,
		ResumeHTML: req.ResumeHTML,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrNoResume):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrDownloadLimit):
			response.Error(c, http.StatusForbidden, response.CodeDownloadLimit, err.Error())
		case errors.Is(err, renderer.ErrUnavailable), errors.Is(err, renderer.ErrBadDocument):
			response.Error(c, http.StatusServiceUnavailable, response.CodeRendererUnavailable, "resume export is temporarily unavailable")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "export failed")
		}
		return
	}

	c.Header("X-Remaining-Downloads", strconv.Itoa(result.Remaining))
	if result.ContentType == renderer.ContentTypePDF {
		c.Header("Content-Disposition", `attachment; filename="resume.pdf"`)
	}
	c.Data(http.StatusOK, result.ContentType, result.Document)
}

func (h *ExportHandler) Remaining(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	remaining, err := h.exports.RemainingDownloads(userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch download quota failed")
		return
	}

	response.OK(c, gin.H{"remaining_downloads": remaining})
}
