package handler

import (
	"strconv"

	"offline-pay/internal/adapter/http/dto"
	"offline-pay/internal/adapter/http/middleware"
	"offline-pay/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ownerFromContext extracts the authenticated owner ID set by JWTAuth.
func ownerFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(middleware.CtxOwnerID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// deviceFromContext extracts the authenticated device ID set by JWTAuth.
func deviceFromContext(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.CtxDeviceID)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// queryInt parses an integer query param, falling back to def.
func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// toWalletResponse converts domain.Wallet to DTO.
func toWalletResponse(w *domain.Wallet) dto.WalletResponse {
	return dto.WalletResponse{
		ID:           w.ID.String(),
		OwnerID:      w.OwnerID.String(),
		Kind:         string(w.Kind),
		Balance:      w.Balance,
		Currency:     w.Currency,
		SpendCeiling: w.SpendCeiling,
		PublicKeyPEM: w.PublicKeyPEM,
		Active:       w.Active,
		CreatedAt:    w.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// toLedgerRecordResponse converts domain.LedgerRecord to DTO.
func toLedgerRecordResponse(rec domain.LedgerRecord) dto.LedgerRecordResponse {
	return dto.LedgerRecordResponse{
		TxID:          rec.TxID,
		Nonce:         rec.Nonce,
		PayerWalletID: rec.PayerWalletID.String(),
		PayeeWalletID: rec.PayeeWalletID.String(),
		Amount:        rec.Amount,
		Currency:      rec.Currency,
		Outcome:       string(rec.Outcome),
		Reason:        rec.Reason,
		DeviceID:      rec.DeviceID,
		SyncedAt:      rec.SyncedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
