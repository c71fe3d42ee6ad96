package service

import (
	"context"
	"encoding/json"
	"time"

	"vaultmarket/internal/core/domain"
	"vaultmarket/internal/core/ports"
	"vaultmarket/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WalletService covers wallet operations outside the settlement pipeline:
// top-ups, balance reads and ledger statements.
type WalletService struct {
	db      ports.DBTransactor
	wallets ports.WalletRepository
	txns    ports.TransactionRepository
	audit   ports.AuditService
	log     zerolog.Logger
}

// NewWalletService creates a new WalletService.
func NewWalletService(
	db ports.DBTransactor,
	wallets ports.WalletRepository,
	txns ports.TransactionRepository,
	audit ports.AuditService,
	log zerolog.Logger,
) *WalletService {
	return &WalletService{
		db:      db,
		wallets: wallets,
		txns:    txns,
		audit:   audit,
		log:     log,
	}
}

// Topup credits a wallet and records the matching ledger line in one
// transaction, using the same lock discipline as settlement.
func (s *WalletService) Topup(ctx context.Context, ownerID uuid.UUID, amount decimal.Decimal) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.wallets.GetByOwnerForUpdate(ctx, dbTx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound("owner")
	}

	txn := &domain.Transaction{
		ID:          uuid.New(),
		WalletID:    wallet.ID,
		Type:        domain.TransactionTypeTopup,
		Amount:      amount.Round(2),
		Fee:         decimal.Zero,
		Description: "Wallet top-up",
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.wallets.UpdateBalance(ctx, dbTx, wallet.ID, wallet.Balance.Add(txn.Amount)); err != nil {
		return nil, apperror.InternalError(err)
	}
	if err := s.txns.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(err)
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("amount", txn.Amount.StringFixed(2)).
		Msg("wallet topped up")

	if s.audit != nil {
		details, _ := json.Marshal(map[string]string{
			"amount":   txn.Amount.StringFixed(2),
			"currency": string(wallet.Currency),
		})
		s.audit.Log(ctx, &domain.AuditLog{
			ID:           uuid.New(),
			ActorID:      &ownerID,
			Action:       domain.AuditActionTopup,
			ResourceType: "wallet",
			ResourceID:   wallet.ID.String(),
			Details:      string(details),
			CreatedAt:    time.Now().UTC(),
		})
	}

	return txn, nil
}

// GetBalance returns the owner's wallet.
func (s *WalletService) GetBalance(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.wallets.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound("owner")
	}
	return wallet, nil
}

// GetStatement returns the wallet's ledger view plus the reconciliation of
// the signed ledger sum against the stored balance.
func (s *WalletService) GetStatement(ctx context.Context, ownerID uuid.UUID, limit, offset int) (*ports.WalletStatement, error) {
	wallet, err := s.wallets.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound("owner")
	}

	txns, err := s.txns.ListByWallet(ctx, wallet.ID, limit, offset)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	sum, err := s.txns.SumByWallet(ctx, wallet.ID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	reconciled := sum.Equal(wallet.Balance)
	if !reconciled {
		s.log.Error().
			Str("wallet_id", wallet.ID.String()).
			Str("balance", wallet.Balance.StringFixed(2)).
			Str("ledger_sum", sum.StringFixed(2)).
			Msg("ledger does not reconcile with balance")
	}

	return &ports.WalletStatement{
		Wallet:       wallet,
		Transactions: txns,
		LedgerSum:    sum,
		Reconciled:   reconciled,
	}, nil
}
