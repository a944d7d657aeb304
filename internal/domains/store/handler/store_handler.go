package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"stocksync-backend/internal/domains/store/model"
	"stocksync-backend/internal/domains/store/repository"
	syncservice "stocksync-backend/internal/domains/sync/service"
	"stocksync-backend/internal/infrastructure/queue"
	"stocksync-backend/internal/platform"
	"stocksync-backend/internal/shared/response"
)

type StoreHandler struct {
	storeRepo   repository.StoreRepository
	syncService syncservice.SyncService
	queue       *queue.Client
}

func NewStoreHandler(storeRepo repository.StoreRepository, syncService syncservice.SyncService, queueClient *queue.Client) *StoreHandler {
	return &StoreHandler{storeRepo: storeRepo, syncService: syncService, queue: queueClient}
}

type storeRequest struct {
	StoreID     string          `json:"storeId"`
	StoreName   string          `json:"storeName"`
	Platform    string          `json:"platform"`
	APIConfig   model.APIConfig `json:"apiConfig"`
	Environment string          `json:"environment"`
	Status      string          `json:"status"`
}

func (r storeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.StoreID, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.StoreName, validation.Required),
		validation.Field(&r.Platform, validation.Required),
		validation.Field(&r.Environment, validation.Required, validation.In("dev", "test", "prod")),
		validation.Field(&r.Status, validation.In(model.StatusActive, model.StatusInactive)),
	)
}

func (h *StoreHandler) Create(c *gin.Context) {
	var req storeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", err)
		return
	}
	if req.Status == "" {
		req.Status = model.StatusActive
	}

	store := &model.Store{
		StoreID:     req.StoreID,
		StoreName:   req.StoreName,
		Platform:    req.Platform,
		APIConfig:   req.APIConfig,
		Environment: req.Environment,
		Status:      req.Status,
	}
	if err := h.storeRepo.Create(c.Request.Context(), store); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, store)
}

func (h *StoreHandler) Get(c *gin.Context) {
	store, err := h.storeRepo.GetByID(c.Request.Context(), c.Param("storeId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, store)
}

func (h *StoreHandler) Update(c *gin.Context) {
	var req storeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	req.StoreID = c.Param("storeId")
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", err)
		return
	}

	store := &model.Store{
		StoreID:     req.StoreID,
		StoreName:   req.StoreName,
		Platform:    req.Platform,
		APIConfig:   req.APIConfig,
		Environment: req.Environment,
		Status:      req.Status,
	}
	if err := h.storeRepo.Update(c.Request.Context(), store); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, store)
}

func (h *StoreHandler) ListSKUs(c *gin.Context) {
	links, err := h.storeRepo.ListStoreSKUs(c.Request.Context(), c.Param("storeId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, links, &response.Meta{Total: len(links)})
}

// TestAuth probes the store credentials against the platform.
func (h *StoreHandler) TestAuth(c *gin.Context) {
	err := h.syncService.TestStoreAuth(c.Request.Context(), c.Param("storeId"))
	if err != nil {
		switch {
		case errors.Is(err, model.ErrStoreNotFound):
			response.NotFound(c, "store not found")
		case errors.Is(err, platform.ErrCredentialExpired), errors.Is(err, platform.ErrCredentialsMissing):
			response.Unauthorized(c, err.Error())
		default:
			response.ErrorResponse(c, http.StatusBadGateway, "PLATFORM_ERROR", err.Error())
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ok": true})
}

// Poll queues an on-demand polling cycle for the store.
func (h *StoreHandler) Poll(c *gin.Context) {
	storeID := c.Param("storeId")
	if _, err := h.storeRepo.GetByID(c.Request.Context(), storeID); err != nil {
		h.writeError(c, err)
		return
	}

	var req struct {
		StartTime string `json:"startTime"`
		EndTime   string `json:"endTime"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := h.queue.EnqueuePollStore(storeID, req.StartTime, req.EndTime); err != nil {
		response.InternalServerError(c, "failed to queue poll")
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"queued": true})
}

// Push queues an on-demand inventory push for the store.
func (h *StoreHandler) Push(c *gin.Context) {
	storeID := c.Param("storeId")
	if _, err := h.storeRepo.GetByID(c.Request.Context(), storeID); err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.queue.EnqueuePushInventory(storeID); err != nil {
		response.InternalServerError(c, "failed to queue push")
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"queued": true})
}

// SyncSKUs queues SKU discovery for the store.
func (h *StoreHandler) SyncSKUs(c *gin.Context) {
	storeID := c.Param("storeId")
	if _, err := h.storeRepo.GetByID(c.Request.Context(), storeID); err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.queue.EnqueueSyncStoreSKUs(storeID); err != nil {
		response.InternalServerError(c, "failed to queue sku sync")
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"queued": true})
}

func (h *StoreHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrStoreNotFound):
		response.NotFound(c, "store not found")
	case errors.Is(err, model.ErrStoreExists):
		response.Conflict(c, "store already exists")
	default:
		response.InternalServerError(c, "internal error")
	}
}
