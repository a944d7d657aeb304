package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"stocksync-backend/internal/domains/inventory/model"
	"stocksync-backend/internal/domains/inventory/service"
	skumodel "stocksync-backend/internal/domains/sku/model"
	"stocksync-backend/internal/shared/response"
	"stocksync-backend/internal/shared/utils"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

type createEventRequest struct {
	StoreID   string                 `json:"storeId"`
	EventType string                 `json:"eventType"`
	Quantity  int                    `json:"quantity"`
	ExtraData map[string]interface{} `json:"extraData"`
}

func (r createEventRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.EventType, validation.Required, validation.In(
			string(model.EventStockIn), string(model.EventAdjustment), string(model.EventInitReset),
		)),
	)
}

// CreateEvent records a manual stock movement for the SKU in the path.
func (h *InventoryHandler) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", err)
		return
	}

	snap, err := h.inventoryService.CreateEvent(c.Request.Context(), &model.Event{
		SkuID:     utils.NormalizeSKU(c.Param("skuId")),
		StoreID:   req.StoreID,
		EventType: model.EventType(req.EventType),
		Quantity:  req.Quantity,
		Source:    model.SourceManual,
		Operator:  c.GetString("operator"),
		ExtraData: req.ExtraData,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, snap)
}

func (h *InventoryHandler) GetSnapshot(c *gin.Context) {
	skuID := utils.NormalizeSKU(c.Param("skuId"))

	snap, err := h.inventoryService.GetSnapshot(c.Request.Context(), skuID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, snap)
}

func (h *InventoryHandler) GetEvents(c *gin.Context) {
	skuID := utils.NormalizeSKU(c.Param("skuId"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	events, err := h.inventoryService.GetEvents(c.Request.Context(), skuID, limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, events, &response.Meta{Limit: limit, Total: len(events)})
}

type resetRequest struct {
	Quantity int `json:"quantity"`
}

func (r resetRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Quantity, validation.Min(0)),
	)
}

// Reset sets a SKU to an absolute quantity via an INIT_RESET event.
func (h *InventoryHandler) Reset(c *gin.Context) {
	skuID := utils.NormalizeSKU(c.Param("skuId"))

	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", err)
		return
	}

	snap, err := h.inventoryService.ResetSKU(c.Request.Context(), skuID, req.Quantity, model.SourceManual, c.GetString("operator"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, snap)
}

// Rebuild recomputes the snapshot from the event log.
func (h *InventoryHandler) Rebuild(c *gin.Context) {
	skuID := utils.NormalizeSKU(c.Param("skuId"))

	snap, err := h.inventoryService.RebuildSnapshot(c.Request.Context(), skuID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, snap)
}

func (h *InventoryHandler) writeError(c *gin.Context, err error) {
	var oversell *model.OversellError
	switch {
	case errors.As(err, &oversell):
		response.ErrorWithDetails(c, http.StatusConflict, "OVERSELL_REJECTED", oversell.Error(), gin.H{
			"skuId":     oversell.SkuID,
			"current":   oversell.Current,
			"requested": oversell.Requested,
		})
	case errors.Is(err, model.ErrDuplicateToken):
		response.Conflict(c, "duplicate event")
	case errors.Is(err, skumodel.ErrSKUNotFound):
		response.NotFound(c, "sku not found")
	case errors.Is(err, model.ErrSnapshotNotFound):
		response.NotFound(c, "snapshot not found")
	case errors.Is(err, model.ErrInvalidEventType):
		response.BadRequest(c, err.Error())
	default:
		response.InternalServerError(c, "internal error")
	}
}
