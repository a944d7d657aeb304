package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	invservice "stocksync-backend/internal/domains/inventory/service"
	"stocksync-backend/internal/domains/sku/model"
	"stocksync-backend/internal/domains/sku/repository"
	"stocksync-backend/internal/shared/response"
	"stocksync-backend/internal/shared/utils"
)

type SKUHandler struct {
	skuRepo          repository.SKURepository
	inventoryService invservice.InventoryService
}

func NewSKUHandler(skuRepo repository.SKURepository, inventoryService invservice.InventoryService) *SKUHandler {
	return &SKUHandler{skuRepo: skuRepo, inventoryService: inventoryService}
}

func (h *SKUHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	skus, err := h.skuRepo.List(c.Request.Context(), limit, offset)
	if err != nil {
		response.InternalServerError(c, "internal error")
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, skus, &response.Meta{Limit: limit, Total: len(skus)})
}

func (h *SKUHandler) Get(c *gin.Context) {
	sku, err := h.skuRepo.GetByID(c.Request.Context(), utils.NormalizeSKU(c.Param("skuId")))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, sku)
}

type createSKURequest struct {
	SkuID         string `json:"skuId"`
	OriginalSku   string `json:"originalSku"`
	SkuName       string `json:"skuName"`
	AllowOversell bool   `json:"allowOversell"`
	Environment   string `json:"environment"`
}

func (r createSKURequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SkuID, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.Environment, validation.Required, validation.In("dev", "test", "prod")),
	)
}

func (h *SKUHandler) Create(c *gin.Context) {
	var req createSKURequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", err)
		return
	}

	sku := &model.SKU{
		SkuID:         utils.NormalizeSKU(req.SkuID),
		OriginalSku:   req.OriginalSku,
		SkuName:       req.SkuName,
		AllowOversell: req.AllowOversell,
		Environment:   req.Environment,
		Status:        model.StatusActive,
	}
	if sku.OriginalSku == "" {
		sku.OriginalSku = req.SkuID
	}
	if err := h.skuRepo.Create(c.Request.Context(), sku); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, sku)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (r statusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required, validation.In(model.StatusActive, model.StatusInactive)),
	)
}

func (h *SKUHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", err)
		return
	}

	skuID := utils.NormalizeSKU(c.Param("skuId"))

	// deactivation is a logical delete: it also wipes aliases and the
	// SKU's dependent inventory rows
	var err error
	if req.Status == model.StatusInactive {
		err = h.inventoryService.DeactivateSKU(c.Request.Context(), skuID)
	} else {
		err = h.skuRepo.UpdateStatus(c.Request.Context(), skuID, req.Status)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"skuId": skuID, "status": req.Status})
}

type aliasesRequest struct {
	Aliases map[string]string `json:"aliases"`
	Note    string            `json:"note"`
}

// UpdateAliases replaces the SKU's platform alias map.
func (h *SKUHandler) UpdateAliases(c *gin.Context) {
	var req aliasesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	skuID := utils.NormalizeSKU(c.Param("skuId"))
	extra := model.ExtraData{Aliases: req.Aliases, Note: req.Note}
	if err := h.skuRepo.UpdateExtraData(c.Request.Context(), skuID, extra); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"skuId": skuID, "extraData": extra})
}

func (h *SKUHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrSKUNotFound):
		response.NotFound(c, "sku not found")
	case errors.Is(err, model.ErrSKUExists):
		response.Conflict(c, "sku already exists")
	default:
		response.InternalServerError(c, "internal error")
	}
}
