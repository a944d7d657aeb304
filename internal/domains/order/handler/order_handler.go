package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stocksync-backend/internal/domains/order/model"
	"stocksync-backend/internal/domains/order/service"
	"stocksync-backend/internal/infrastructure/queue"
	"stocksync-backend/internal/shared/response"
)

type OrderHandler struct {
	orderService service.OrderService
	queue        *queue.Client
}

func NewOrderHandler(orderService service.OrderService, queueClient *queue.Client) *OrderHandler {
	return &OrderHandler{orderService: orderService, queue: queueClient}
}

// PollAll queues a polling cycle over every active store.
func (h *OrderHandler) PollAll(c *gin.Context) {
	if err := h.queue.EnqueuePollAllStores(); err != nil {
		response.InternalServerError(c, "failed to queue poll")
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"queued": true})
}

// ListRetries exposes the confirmation retry queue for operators.
func (h *OrderHandler) ListRetries(c *gin.Context) {
	status := c.DefaultQuery("status", model.RetryStatusPending)
	if status != model.RetryStatusPending && status != model.RetryStatusFailed {
		response.BadRequest(c, "status must be pending or failed")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.orderService.ListRetries(c.Request.Context(), status, limit, offset)
	if err != nil {
		response.InternalServerError(c, "internal error")
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, entries, &response.Meta{Limit: limit, Total: len(entries)})
}

// ProcessRetries queues an immediate drain of the retry queue.
func (h *OrderHandler) ProcessRetries(c *gin.Context) {
	if err := h.queue.EnqueueProcessRetryQueue(); err != nil {
		response.InternalServerError(c, "failed to queue retry drain")
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"queued": true})
}
