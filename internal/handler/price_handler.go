package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/taller-adm-api/internal/service"
	appErrors "github.com/noah-isme/taller-adm-api/pkg/errors"
	"github.com/noah-isme/taller-adm-api/pkg/response"
)

// PriceHandler exposes the versioned price catalog for workshop types.
type PriceHandler struct {
	service *service.PricingService
}

// NewPriceHandler constructs PriceHandler.
func NewPriceHandler(svc *service.PricingService) *PriceHandler {
	return &PriceHandler{service: svc}
}

// Register godoc
// @Summary Register a new price version for a workshop type
// @Tags Prices
// @Accept json
// @Produce json
// @Param id path string true "Workshop type ID"
// @Param payload body service.RegisterPriceRequest true "Price payload"
// @Success 201 {object} response.Envelope
// @Router /workshop-types/{id}/prices [post]
func (h *PriceHandler) Register(c *gin.Context) {
	var req service.RegisterPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	version, err := h.service.Register(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, version)
}

// History godoc
// @Summary Price version history for a workshop type
// @Tags Prices
// @Produce json
// @Param id path string true "Workshop type ID"
// @Success 200 {object} response.Envelope
// @Router /workshop-types/{id}/prices [get]
func (h *PriceHandler) History(c *gin.Context) {
	versions, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, versions, nil)
}

// Current godoc
// @Summary Current price version for a workshop type
// @Tags Prices
// @Produce json
// @Param id path string true "Workshop type ID"
// @Success 200 {object} response.Envelope
// @Router /workshop-types/{id}/prices/current [get]
func (h *PriceHandler) Current(c *gin.Context) {
	version, err := h.service.Current(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, version, nil)
}
