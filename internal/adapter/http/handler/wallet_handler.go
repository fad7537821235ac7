package handler

import (
	"offline-pay/internal/adapter/http/dto"
	"offline-pay/internal/core/domain"
	"offline-pay/internal/core/ports"
	"offline-pay/pkg/apperror"
	"offline-pay/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet lifecycle endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// Provision handles POST /api/v1/wallets.
func (h *WalletHandler) Provision(c *gin.Context) {
	ownerID, ok := ownerFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.ProvisionWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.walletSvc.Provision(c.Request.Context(), ports.ProvisionRequest{
		OwnerID:      ownerID,
		Kind:         domain.WalletKind(req.Kind),
		Currency:     req.Currency,
		SpendCeiling: req.SpendCeiling,
		Passphrase:   req.Passphrase,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ProvisionWalletResponse{
		Wallet:           toWalletResponse(result.Wallet),
		SealedPrivateKey: result.SealedPrivateKey,
	})
}

// Preload handles POST /api/v1/wallets/preload.
func (h *WalletHandler) Preload(c *gin.Context) {
	ownerID, ok := ownerFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.PreloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	transfer, err := h.walletSvc.Preload(c.Request.Context(), ports.PreloadRequest{
		OwnerID:      ownerID,
		FromWalletID: uuid.MustParse(req.FromWalletID),
		ToWalletID:   uuid.MustParse(req.ToWalletID),
		Amount:       req.Amount,
		Reference:    req.Reference,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.TransferResponse{
		ID:           transfer.ID.String(),
		FromWalletID: transfer.FromWalletID.String(),
		ToWalletID:   transfer.ToWalletID.String(),
		Amount:       transfer.Amount,
		Currency:     transfer.Currency,
		Reference:    transfer.Reference,
		CreatedAt:    transfer.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// Balance handles GET /api/v1/wallets/:id.
func (h *WalletHandler) Balance(c *gin.Context) {
	ownerID, ok := ownerFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallet, err := h.ownedWallet(c, ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toWalletResponse(wallet))
}

// Ledger handles GET /api/v1/wallets/:id/ledger.
func (h *WalletHandler) Ledger(c *gin.Context) {
	ownerID, ok := ownerFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallet, err := h.ownedWallet(c, ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	limit := queryInt(c, "limit", 50)
	records, err := h.walletSvc.Ledger(c.Request.Context(), wallet.ID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.LedgerRecordResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, toLedgerRecordResponse(rec))
	}
	response.OK(c, dto.LedgerListResponse{Items: items})
}

// Deactivate handles DELETE /api/v1/wallets/:id.
func (h *WalletHandler) Deactivate(c *gin.Context) {
	ownerID, ok := ownerFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallet, err := h.ownedWallet(c, ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.walletSvc.Deactivate(c.Request.Context(), wallet.ID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"deactivated": true})
}

// ownedWallet resolves the :id path param and verifies the caller owns the
// wallet. Foreign wallets read as not found so IDs cannot be enumerated.
func (h *WalletHandler) ownedWallet(c *gin.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, apperror.Validation("invalid wallet id").WithField("id")
	}

	wallet, err := h.walletSvc.Balance(c.Request.Context(), walletID)
	if err != nil {
		return nil, err
	}
	if wallet.OwnerID != ownerID {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}
