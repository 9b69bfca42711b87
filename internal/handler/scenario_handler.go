package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sekundarstufe/stundenplan-core/internal/dto"
	"github.com/sekundarstufe/stundenplan-core/internal/service"
	appErrors "github.com/sekundarstufe/stundenplan-core/pkg/errors"
	"github.com/sekundarstufe/stundenplan-core/pkg/response"
)

// ScenarioHandler exposes named scenario snapshots.
type ScenarioHandler struct {
	service *service.ScenarioService
}

// NewScenarioHandler constructs the handler.
func NewScenarioHandler(svc *service.ScenarioService) *ScenarioHandler {
	return &ScenarioHandler{service: svc}
}

// Save godoc
// @Summary Save a new version of a named scenario
// @Tags Scenarios
// @Accept json
// @Produce json
// @Param payload body dto.SaveScenarioRequest true "Scenario payload"
// @Success 201 {object} response.Envelope
// @Router /scenarios [post]
func (h *ScenarioHandler) Save(c *gin.Context) {
	var req dto.SaveScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scenario payload"))
		return
	}
	if req.Data != nil {
		if err := req.Data.Finalize(); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInputInvalid.Code, appErrors.ErrInputInvalid.Status, "scenario data is invalid"))
			return
		}
	}
	scenario, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ScenarioResponse{Scenario: scenario})
}

// Load godoc
// @Summary Load the latest version of a named scenario
// @Tags Scenarios
// @Produce json
// @Param name path string true "Scenario name"
// @Success 200 {object} response.Envelope
// @Router /scenarios/{name} [get]
func (h *ScenarioHandler) Load(c *gin.Context) {
	scenario, err := h.service.Load(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ScenarioResponse{Scenario: scenario}, nil)
}

// List godoc
// @Summary List stored scenario names
// @Tags Scenarios
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /scenarios [get]
func (h *ScenarioHandler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ScenarioListResponse{Scenarios: list}, nil)
}

// Delete godoc
// @Summary Delete every version of a named scenario
// @Tags Scenarios
// @Param name path string true "Scenario name"
// @Success 204
// @Router /scenarios/{name} [delete]
func (h *ScenarioHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("name")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
