package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
	"github.com/sekundarstufe/stundenplan-core/internal/service"
	appErrors "github.com/sekundarstufe/stundenplan-core/pkg/errors"
	"github.com/sekundarstufe/stundenplan-core/pkg/response"
)

// ExportHandler renders solutions and serves the signed downloads.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

type exportRequest struct {
	Data     *domain.SchoolData `json:"data"`
	Solution *domain.Solution   `json:"solution"`
	Format   string             `json:"format"`
}

// Render godoc
// @Summary Render a solution as PDF or CSV and receive a signed download link
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body exportRequest true "Solution plus format"
// @Success 200 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Render(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload"))
		return
	}
	data := req.Data
	if data == nil && req.Solution != nil {
		data = req.Solution.Snapshot
	}
	if data == nil || req.Solution == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "solution (with snapshot) is required"))
		return
	}
	if err := data.Finalize(); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInputInvalid.Code, appErrors.ErrInputInvalid.Status, "school data is invalid"))
		return
	}

	result, err := h.service.Render(data, req.Solution, service.ExportFormat(req.Format))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Download godoc
// @Summary Download a rendered export via its signed token
// @Tags Exports
// @Param token path string true "Signed download token"
// @Success 200
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	file, err := h.service.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", "attachment")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
