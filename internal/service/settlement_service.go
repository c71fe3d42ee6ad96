package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vaultmarket/internal/core/domain"
	"vaultmarket/internal/core/ports"
	"vaultmarket/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// SettlementService is the core settlement pipeline. A purchase either
// commits completely (order, listing transition, both wallet mutations and
// both ledger lines) or leaves no trace: all six writes share one database
// transaction.
type SettlementService struct {
	db       ports.DBTransactor
	listings ports.ListingRepository
	wallets  ports.WalletRepository
	orders   ports.OrderRepository
	txns     ports.TransactionRepository
	rates    ports.RateService
	fees     ports.FeeService
	effects  ports.EffectsDispatcher
	audit    ports.AuditService
	log      zerolog.Logger
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(
	db ports.DBTransactor,
	listings ports.ListingRepository,
	wallets ports.WalletRepository,
	orders ports.OrderRepository,
	txns ports.TransactionRepository,
	rates ports.RateService,
	fees ports.FeeService,
	effects ports.EffectsDispatcher,
	audit ports.AuditService,
	log zerolog.Logger,
) *SettlementService {
	return &SettlementService{
		db:       db,
		listings: listings,
		wallets:  wallets,
		orders:   orders,
		txns:     txns,
		rates:    rates,
		fees:     fees,
		effects:  effects,
		audit:    audit,
		log:      log,
	}
}

// Checkout settles a purchase. Validation order inside the transaction is
// listing status first, then balance, so a buyer racing a sold-out listing
// sees "unavailable" rather than a misleading funds error.
func (s *SettlementService) Checkout(ctx context.Context, req ports.CheckoutRequest) (*domain.Order, error) {
	// The HTTP binding enforces this too, but the order record must never
	// hold an unknown option regardless of the caller.
	if !req.DeliveryOption.Valid() {
		return nil, apperror.Validation("Invalid delivery option")
	}

	listing, err := s.listings.GetByID(ctx, req.ListingID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if listing == nil {
		return nil, apperror.ErrListingNotFound()
	}
	if listing.SellerID == req.BuyerID {
		return nil, apperror.ErrSelfPurchase()
	}
	if !listing.Purchasable() {
		return nil, apperror.ErrListingUnavailable()
	}

	// Rates are fetched fresh per attempt; the snapshot is immutable for the
	// rest of the settlement and recorded on the order.
	rates := s.rates.Snapshot(ctx)

	fees, err := s.fees.ComputeFees(ctx, listing.Price, req.BuyerID, listing.SellerID)
	if err != nil {
		return nil, err
	}

	dbTx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Re-read the listing under lock. The pre-transaction check above is
	// only an early exit; this one is authoritative.
	locked, err := s.listings.GetByIDForUpdate(ctx, dbTx, req.ListingID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if locked == nil {
		return nil, apperror.ErrListingNotFound()
	}
	if !locked.Purchasable() {
		return nil, apperror.ErrListingUnavailable()
	}

	buyerWallet, sellerWallet, err := s.lockWallets(ctx, dbTx, req.BuyerID, locked.SellerID)
	if err != nil {
		return nil, err
	}

	buyerTotal := rates.Convert(fees.TotalBuyerPays, locked.Currency, buyerWallet.Currency).Round(2)
	sellerPayout := rates.Convert(fees.SellerReceives, locked.Currency, sellerWallet.Currency).Round(2)

	if !buyerWallet.CanCover(buyerTotal) {
		return nil, apperror.ErrInsufficientFunds(buyerTotal, buyerWallet.Balance, string(buyerWallet.Currency))
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:              uuid.New(),
		ListingID:       locked.ID,
		BuyerID:         req.BuyerID,
		SellerID:        locked.SellerID,
		BasePrice:       fees.BasePrice,
		BuyerFee:        fees.BuyerFee,
		SellerFee:       fees.SellerFee,
		ListingCurrency: locked.Currency,
		BuyerCurrency:   buyerWallet.Currency,
		SellerCurrency:  sellerWallet.Currency,
		BuyerTotal:      buyerTotal,
		SellerPayout:    sellerPayout,
		Rates:           rates,
		DeliveryOption:  req.DeliveryOption,
		Status:          domain.OrderStatusPaid,
		CreatedAt:       now,
	}

	if err := s.orders.Create(ctx, dbTx, order); err != nil {
		return nil, s.ledgerFailure(order.ID, "create order", err)
	}

	sold, err := s.listings.MarkSold(ctx, dbTx, locked.ID)
	if err != nil {
		return nil, s.ledgerFailure(order.ID, "mark listing sold", err)
	}
	if !sold {
		return nil, apperror.ErrListingUnavailable()
	}

	buyerTxn := &domain.Transaction{
		ID:          uuid.New(),
		WalletID:    buyerWallet.ID,
		OrderID:     &order.ID,
		Type:        domain.TransactionTypePurchase,
		Amount:      buyerTotal.Neg(),
		Fee:         rates.Convert(fees.BuyerFee, locked.Currency, buyerWallet.Currency).Round(2),
		Description: fmt.Sprintf("Purchase: %s", locked.Title),
		CreatedAt:   now,
	}
	if err := s.applyLedgerLine(ctx, dbTx, buyerWallet, buyerTxn); err != nil {
		return nil, s.ledgerFailure(order.ID, "debit buyer", err)
	}

	sellerTxn := &domain.Transaction{
		ID:          uuid.New(),
		WalletID:    sellerWallet.ID,
		OrderID:     &order.ID,
		Type:        domain.TransactionTypeSale,
		Amount:      sellerPayout,
		Fee:         rates.Convert(fees.SellerFee, locked.Currency, sellerWallet.Currency).Round(2),
		Description: fmt.Sprintf("Sale: %s", locked.Title),
		CreatedAt:   now,
	}
	if err := s.applyLedgerLine(ctx, dbTx, sellerWallet, sellerTxn); err != nil {
		return nil, s.ledgerFailure(order.ID, "credit seller", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, s.ledgerFailure(order.ID, "commit", err)
	}

	s.log.Info().
		Str("order_id", order.ID.String()).
		Str("listing_id", locked.ID.String()).
		Str("buyer_total", buyerTotal.StringFixed(2)).
		Str("seller_payout", sellerPayout.StringFixed(2)).
		Str("rate_source", string(rates.Source)).
		Msg("settlement committed")

	s.recordAudit(ctx, order)
	s.effects.Dispatch(order, locked)

	return order, nil
}

// lockWallets locks both party wallets in deterministic UUID order so that
// two settlements touching the same pair cannot deadlock.
func (s *SettlementService) lockWallets(ctx context.Context, dbTx pgx.Tx, buyerID, sellerID uuid.UUID) (*domain.Wallet, *domain.Wallet, error) {
	firstID, secondID := buyerID, sellerID
	if bytes.Compare(sellerID[:], buyerID[:]) < 0 {
		firstID, secondID = sellerID, buyerID
	}

	first, err := s.wallets.GetByOwnerForUpdate(ctx, dbTx, firstID)
	if err != nil {
		return nil, nil, apperror.InternalError(err)
	}
	second, err := s.wallets.GetByOwnerForUpdate(ctx, dbTx, secondID)
	if err != nil {
		return nil, nil, apperror.InternalError(err)
	}

	buyerWallet, sellerWallet := first, second
	if firstID == sellerID {
		buyerWallet, sellerWallet = second, first
	}
	if buyerWallet == nil {
		return nil, nil, apperror.ErrWalletNotFound("buyer")
	}
	if sellerWallet == nil {
		return nil, nil, apperror.ErrWalletNotFound("seller")
	}
	return buyerWallet, sellerWallet, nil
}

// applyLedgerLine mutates the wallet balance and records the matching
// ledger line, keeping the two writes inseparable.
func (s *SettlementService) applyLedgerLine(ctx context.Context, dbTx pgx.Tx, wallet *domain.Wallet, txn *domain.Transaction) error {
	if err := s.wallets.UpdateBalance(ctx, dbTx, wallet.ID, wallet.Balance.Add(txn.Amount)); err != nil {
		return err
	}
	return s.txns.Create(ctx, dbTx, txn)
}

func (s *SettlementService) ledgerFailure(orderID uuid.UUID, step string, err error) error {
	s.log.Error().
		Err(err).
		Str("order_id", orderID.String()).
		Str("step", step).
		Msg("settlement aborted, transaction rolled back")
	return apperror.ErrLedgerWriteFailure(fmt.Errorf("%s: %w", step, err))
}

func (s *SettlementService) recordAudit(ctx context.Context, order *domain.Order) {
	if s.audit == nil {
		return
	}
	details, _ := json.Marshal(map[string]string{
		"listing_id":    order.ListingID.String(),
		"buyer_total":   order.BuyerTotal.StringFixed(2),
		"seller_payout": order.SellerPayout.StringFixed(2),
		"rate_source":   string(order.Rates.Source),
	})
	s.audit.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		ActorID:      &order.BuyerID,
		Action:       domain.AuditActionSettlement,
		ResourceType: "order",
		ResourceID:   order.ID.String(),
		Details:      string(details),
		CreatedAt:    time.Now().UTC(),
	})
}
