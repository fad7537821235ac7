package handler

import (
	"fmt"

	"offline-pay/internal/adapter/http/dto"
	"offline-pay/internal/core/ports"
	"offline-pay/pkg/apperror"
	"offline-pay/pkg/response"

	"github.com/gin-gonic/gin"
)

// SyncHandler handles batch reconciliation submissions from devices.
type SyncHandler struct {
	syncSvc      ports.SyncService
	maxSyncBatch int
}

// NewSyncHandler creates a new SyncHandler. maxBatch caps tuples per request.
func NewSyncHandler(syncSvc ports.SyncService, maxBatch int) *SyncHandler {
	if maxBatch <= 0 {
		maxBatch = 100
	}
	return &SyncHandler{syncSvc: syncSvc, maxSyncBatch: maxBatch}
}

// Sync handles POST /api/v1/sync.
func (h *SyncHandler) Sync(c *gin.Context) {
	deviceID, ok := deviceFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	if len(req.Batch) > h.maxSyncBatch {
		response.Error(c, apperror.Validation(
			fmt.Sprintf("batch exceeds %d tuples", h.maxSyncBatch)).WithField("batch"))
		return
	}

	results, err := h.syncSvc.Reconcile(c.Request.Context(), deviceID, req.Batch)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.SyncResponse{Results: results})
}
