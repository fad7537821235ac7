package handler

import (
	"offline-pay/internal/adapter/http/dto"
	"offline-pay/internal/core/ports"
	"offline-pay/pkg/apperror"
	"offline-pay/pkg/response"

	"github.com/gin-gonic/gin"
)

// ReceiptHandler handles offline receipt verification.
type ReceiptHandler struct {
	receiptSvc ports.ReceiptService
	registry   ports.KeyRegistry
}

// NewReceiptHandler creates a new ReceiptHandler.
func NewReceiptHandler(receiptSvc ports.ReceiptService, registry ports.KeyRegistry) *ReceiptHandler {
	return &ReceiptHandler{receiptSvc: receiptSvc, registry: registry}
}

// Verify handles POST /api/v1/receipts/verify. The check is pure: no state
// is read or written beyond the optional registry key lookup.
func (h *ReceiptHandler) Verify(c *gin.Context) {
	var req dto.VerifyReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	publicKey := req.PayerPublicKeyPEM
	if publicKey == "" {
		key, err := h.registry.PublicKeyFor(c.Request.Context(), req.Receipt.Payload.PayerID)
		if err != nil {
			response.Error(c, apperror.InternalError(err))
			return
		}
		if key == "" {
			response.Error(c, apperror.ErrUnknownPublicKey())
			return
		}
		publicKey = key
	}

	verification := h.receiptSvc.Verify(req.Receipt, publicKey)
	response.OK(c, dto.VerifyReceiptResponse{
		SignatureValid: verification.SignatureValid,
		HashValid:      verification.HashValid,
		Valid:          verification.Valid(),
	})
}
