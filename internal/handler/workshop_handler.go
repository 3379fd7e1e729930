package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/taller-adm-api/internal/models"
	"github.com/noah-isme/taller-adm-api/internal/service"
	appErrors "github.com/noah-isme/taller-adm-api/pkg/errors"
	"github.com/noah-isme/taller-adm-api/pkg/response"
)

// WorkshopHandler exposes workshop offerings and their lifecycle transitions.
type WorkshopHandler struct {
	service *service.WorkshopService
}

// NewWorkshopHandler constructs WorkshopHandler.
func NewWorkshopHandler(svc *service.WorkshopService) *WorkshopHandler {
	return &WorkshopHandler{service: svc}
}

// List godoc
// @Summary List workshops
// @Tags Workshops
// @Produce json
// @Param typeId query string false "Filter by workshop type"
// @Param year query int false "Filter by year"
// @Param state query string false "Filter by state (ACTIVE, INACTIVE, FINISHED)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /workshops [get]
func (h *WorkshopHandler) List(c *gin.Context) {
	filter := models.WorkshopFilter{
		WorkshopTypeID: c.Query("typeId"),
		State:          models.WorkshopState(c.Query("state")),
		SortBy:         c.Query("sort"),
		SortOrder:      c.Query("order"),
	}
	filter.Year, _ = strconv.Atoi(c.DefaultQuery("year", "0"))
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	workshops, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workshops, pagination)
}

// Find godoc
// @Summary Get a workshop with its type
// @Tags Workshops
// @Produce json
// @Param id path string true "Workshop ID"
// @Success 200 {object} response.Envelope
// @Router /workshops/{id} [get]
func (h *WorkshopHandler) Find(c *gin.Context) {
	workshop, err := h.service.Find(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workshop, nil)
}

// Create godoc
// @Summary Create a workshop offering
// @Tags Workshops
// @Accept json
// @Produce json
// @Param payload body service.CreateWorkshopRequest true "Workshop payload"
// @Success 201 {object} response.Envelope
// @Router /workshops [post]
func (h *WorkshopHandler) Create(c *gin.Context) {
	var req service.CreateWorkshopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	workshop, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, workshop)
}

type transitionPayload struct {
	State models.WorkshopState `json:"state"`
}

// Transition godoc
// @Summary Change a workshop's lifecycle state
// @Tags Workshops
// @Accept json
// @Produce json
// @Param id path string true "Workshop ID"
// @Param payload body transitionPayload true "Target state"
// @Success 200 {object} response.Envelope
// @Router /workshops/{id}/state [patch]
func (h *WorkshopHandler) Transition(c *gin.Context) {
	var req transitionPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	workshop, err := h.service.Transition(c.Request.Context(), c.Param("id"), req.State)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workshop, nil)
}

// ListTypes godoc
// @Summary List workshop types
// @Tags Workshops
// @Produce json
// @Param active query bool false "Only active types"
// @Success 200 {object} response.Envelope
// @Router /workshop-types [get]
func (h *WorkshopHandler) ListTypes(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))
	types, err := h.service.ListTypes(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}
