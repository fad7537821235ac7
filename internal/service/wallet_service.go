package service

import (
	"context"
	"fmt"
	"time"

	"offline-pay/internal/core/domain"
	"offline-pay/internal/core/ports"
	"offline-pay/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WalletServiceImpl implements ports.WalletService. Provisioning an OFFLINE
// wallet generates its keypair: the public key lands on the wallet row (the
// key registry), the private key is returned sealed and never stored.
type WalletServiceImpl struct {
	walletRepo   ports.WalletRepository
	transferRepo ports.TransferRepository
	ledgerRepo   ports.LedgerRepository
	vault        ports.KeyVault
	transactor   ports.DBTransactor
	log          zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	transferRepo ports.TransferRepository,
	ledgerRepo ports.LedgerRepository,
	vault ports.KeyVault,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo:   walletRepo,
		transferRepo: transferRepo,
		ledgerRepo:   ledgerRepo,
		vault:        vault,
		transactor:   transactor,
		log:          log,
	}
}

// Provision creates a wallet. One wallet per kind per owner.
func (s *WalletServiceImpl) Provision(ctx context.Context, req ports.ProvisionRequest) (*ports.ProvisionResult, error) {
	if req.Kind != domain.WalletKindPrimary && req.Kind != domain.WalletKindOffline {
		return nil, apperror.Validation("unknown wallet kind")
	}
	if req.Kind == domain.WalletKindOffline {
		if req.SpendCeiling <= 0 {
			return nil, apperror.Validation("offline wallet requires a positive spend ceiling")
		}
		if req.Passphrase == "" {
			return nil, apperror.Validation("offline wallet requires a key passphrase")
		}
	}

	existing, err := s.walletRepo.GetByOwner(ctx, req.OwnerID, req.Kind)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check existing wallet: %w", err))
	}
	if existing != nil {
		return nil, apperror.Validation("owner already has a wallet of this kind")
	}

	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:        uuid.New(),
		OwnerID:   req.OwnerID,
		Kind:      req.Kind,
		Balance:   0,
		Currency:  req.Currency,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	result := &ports.ProvisionResult{Wallet: wallet}

	if req.Kind == domain.WalletKindOffline {
		wallet.SpendCeiling = req.SpendCeiling

		signer, err := GenerateRSASigner()
		if err != nil {
			return nil, apperror.ErrKeyVaultFailure(fmt.Errorf("generate keypair: %w", err))
		}
		wallet.PublicKeyPEM = signer.PublicKeyPEM()

		privatePEM, err := signer.PrivateKeyPEM()
		if err != nil {
			return nil, apperror.ErrKeyVaultFailure(fmt.Errorf("export private key: %w", err))
		}
		sealed, err := s.vault.Seal(privatePEM, req.Passphrase)
		if err != nil {
			return nil, apperror.ErrKeyVaultFailure(fmt.Errorf("seal private key: %w", err))
		}
		result.SealedPrivateKey = sealed
	}

	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("owner_id", req.OwnerID.String()).
		Str("kind", string(req.Kind)).
		Msg("wallet provisioned")

	return result, nil
}

// Preload moves funds between a user's own wallets, typically PRIMARY ->
// OFFLINE to load spendable offline funds. Ceiling-checked, atomic.
func (s *WalletServiceImpl) Preload(ctx context.Context, req ports.PreloadRequest) (*domain.Transfer, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.FromWalletID == req.ToWalletID {
		return nil, apperror.Validation("cannot transfer to the same wallet")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock both wallets in deterministic order to avoid deadlocks.
	firstID, secondID := req.FromWalletID, req.ToWalletID
	if secondID.String() < firstID.String() {
		firstID, secondID = secondID, firstID
	}
	first, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, firstID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	second, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, secondID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}

	from, to := first, second
	if from != nil && from.ID != req.FromWalletID {
		from, to = second, first
	}
	if from == nil || to == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	if from.OwnerID != req.OwnerID || to.OwnerID != req.OwnerID {
		return nil, apperror.ErrNotFound("wallet")
	}
	if !from.Active || !to.Active {
		return nil, apperror.ErrWalletInactive()
	}
	if from.Currency != to.Currency {
		return nil, apperror.Validation("currency mismatch between wallets")
	}
	if !from.CanDebit(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}
	if !to.CanCredit(req.Amount) {
		return nil, apperror.ErrLimitExceeded()
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, from.ID, from.Balance-req.Amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit wallet: %w", err))
	}
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, to.ID, to.Balance+req.Amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit wallet: %w", err))
	}

	transfer := &domain.Transfer{
		ID:           uuid.New(),
		OwnerID:      req.OwnerID,
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		Amount:       req.Amount,
		Currency:     from.Currency,
		Reference:    req.Reference,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.transferRepo.Create(ctx, dbTx, transfer); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transfer: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("transfer_id", transfer.ID.String()).
		Str("from", from.ID.String()).
		Str("to", to.ID.String()).
		Int64("amount", req.Amount).
		Msg("preload transfer applied")

	return transfer, nil
}

// Balance returns the wallet with its current authoritative balance.
func (s *WalletServiceImpl) Balance(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}

// Ledger lists authoritative records touching the wallet, newest first.
func (s *WalletServiceImpl) Ledger(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.LedgerRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	records, err := s.ledgerRepo.ListByWallet(ctx, walletID, limit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list ledger: %w", err))
	}
	return records, nil
}

// Deactivate marks a wallet inactive. Rows are never removed while ledger
// records reference them.
func (s *WalletServiceImpl) Deactivate(ctx context.Context, walletID uuid.UUID) error {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return apperror.ErrNotFound("wallet")
	}
	if err := s.walletRepo.Deactivate(ctx, walletID); err != nil {
		return apperror.InternalError(fmt.Errorf("deactivate wallet: %w", err))
	}
	s.log.Info().Str("wallet_id", walletID.String()).Msg("wallet deactivated")
	return nil
}
