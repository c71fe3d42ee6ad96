package integration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"vaultmarket/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet // keyed by owner
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.wallets[w.OwnerID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[ownerID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetByOwnerForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error) {
	return r.GetByOwner(ctx, ownerID)
}

func (r *inMemoryWalletRepo) snapshot() func() {
	r.mu.RLock()
	saved := make(map[uuid.UUID]*domain.Wallet, len(r.wallets))
	for k, v := range r.wallets {
		cp := *v
		saved[k] = &cp
	}
	r.mu.RUnlock()
	return func() {
		r.mu.Lock()
		r.wallets = saved
		r.mu.Unlock()
	}
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wallets {
		if w.ID == walletID {
			w.Balance = balance
			return nil
		}
	}
	return fmt.Errorf("wallet not found")
}

// --- In-Memory Listing Repo ---

type inMemoryListingRepo struct {
	mu       sync.RWMutex
	listings map[uuid.UUID]*domain.Listing
}

func newInMemoryListingRepo() *inMemoryListingRepo {
	return &inMemoryListingRepo{listings: make(map[uuid.UUID]*domain.Listing)}
}

func (r *inMemoryListingRepo) add(l *domain.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	r.listings[l.ID] = &cp
}

func (r *inMemoryListingRepo) snapshot() func() {
	r.mu.RLock()
	saved := make(map[uuid.UUID]*domain.Listing, len(r.listings))
	for k, v := range r.listings {
		cp := *v
		saved[k] = &cp
	}
	r.mu.RUnlock()
	return func() {
		r.mu.Lock()
		r.listings = saved
		r.mu.Unlock()
	}
}

func (r *inMemoryListingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *inMemoryListingRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Listing, error) {
	return r.GetByID(ctx, id)
}

// MarkSold is the atomic compare-and-set the conditional UPDATE provides in
// PostgreSQL: exactly one caller observes the active->sold transition.
func (r *inMemoryListingRepo) MarkSold(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return false, nil
	}
	if l.Status != domain.ListingStatusActive {
		return false, nil
	}
	l.Status = domain.ListingStatusSold
	return true, nil
}

// --- In-Memory Order Repo ---

type inMemoryOrderRepo struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*domain.Order
}

func newInMemoryOrderRepo() *inMemoryOrderRepo {
	return &inMemoryOrderRepo{orders: make(map[uuid.UUID]*domain.Order)}
}

func (r *inMemoryOrderRepo) snapshot() func() {
	r.mu.RLock()
	saved := make(map[uuid.UUID]*domain.Order, len(r.orders))
	for k, v := range r.orders {
		cp := *v
		saved[k] = &cp
	}
	r.mu.RUnlock()
	return func() {
		r.mu.Lock()
		r.orders = saved
		r.mu.Unlock()
	}
}

func (r *inMemoryOrderRepo) Create(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *inMemoryOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *inMemoryOrderRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Order
	for _, o := range r.orders {
		if o.BuyerID == buyerID {
			result = append(result, *o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if offset >= len(result) {
		return nil, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (r *inMemoryOrderRepo) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu     sync.RWMutex
	txns   []domain.Transaction
	failOn domain.TransactionType
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{}
}

// failOnType makes Create fail for the given transaction type, simulating a
// write error in the middle of the ledger sequence.
func (r *inMemoryTransactionRepo) failOnType(t domain.TransactionType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failOn = t
}

func (r *inMemoryTransactionRepo) snapshot() func() {
	r.mu.RLock()
	saved := make([]domain.Transaction, len(r.txns))
	copy(saved, r.txns)
	r.mu.RUnlock()
	return func() {
		r.mu.Lock()
		r.txns = saved
		r.mu.Unlock()
	}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn != "" && t.Type == r.failOn {
		return errors.New("ledger write failed")
	}
	r.txns = append(r.txns, *t)
	return nil
}

func (r *inMemoryTransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.txns {
		if t.WalletID == walletID {
			result = append(result, t)
		}
	}
	if offset >= len(result) {
		return nil, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (r *inMemoryTransactionRepo) SumByWallet(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := decimal.Zero
	for _, t := range r.txns {
		if t.WalletID == walletID {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

// --- In-Memory Subscription Repo ---

type inMemorySubscriptionRepo struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*domain.Subscription
}

func newInMemorySubscriptionRepo() *inMemorySubscriptionRepo {
	return &inMemorySubscriptionRepo{subs: make(map[uuid.UUID]*domain.Subscription)}
}

func (r *inMemorySubscriptionRepo) add(s *domain.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.subs[s.UserID] = &cp
}

func (r *inMemorySubscriptionRepo) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subs[userID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

// --- In-Memory Rate Repo ---

type inMemoryRateRepo struct {
	mu          sync.RWMutex
	rates       map[string]decimal.Decimal
	unreachable bool
}

func newInMemoryRateRepo() *inMemoryRateRepo {
	return &inMemoryRateRepo{rates: map[string]decimal.Decimal{
		"USD/TRY": decimal.RequireFromString("41.50"),
		"USD/EUR": decimal.RequireFromString("0.92"),
	}}
}

func (r *inMemoryRateRepo) setUnreachable(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unreachable = v
}

func (r *inMemoryRateRepo) GetRate(ctx context.Context, from, to domain.Currency) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.unreachable {
		return decimal.Zero, errors.New("rate store unreachable")
	}
	rate, ok := r.rates[string(from)+"/"+string(to)]
	if !ok {
		return decimal.Zero, errors.New("rate not found")
	}
	return rate, nil
}

// --- In-Memory Portfolio / Vault Repos ---

type inMemoryPortfolioRepo struct {
	mu      sync.RWMutex
	entries []domain.PortfolioEntry
}

func newInMemoryPortfolioRepo() *inMemoryPortfolioRepo {
	return &inMemoryPortfolioRepo{}
}

func (r *inMemoryPortfolioRepo) Create(ctx context.Context, e *domain.PortfolioEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *inMemoryPortfolioRepo) DeleteByOwnerAndTitle(ctx context.Context, ownerID uuid.UUID, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.OwnerID != ownerID || e.Title != title {
			kept = append(kept, e)
		}
	}
	r.entries = kept
	return nil
}

func (r *inMemoryPortfolioRepo) byOwner(ownerID uuid.UUID) []domain.PortfolioEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.PortfolioEntry
	for _, e := range r.entries {
		if e.OwnerID == ownerID {
			result = append(result, e)
		}
	}
	return result
}

type inMemoryVaultRepo struct {
	mu    sync.RWMutex
	items []domain.VaultItem
}

func newInMemoryVaultRepo() *inMemoryVaultRepo {
	return &inMemoryVaultRepo{}
}

func (r *inMemoryVaultRepo) Create(ctx context.Context, item *domain.VaultItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *item)
	return nil
}

func (r *inMemoryVaultRepo) byOwner(ownerID uuid.UUID) []domain.VaultItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.VaultItem
	for _, i := range r.items {
		if i.OwnerID == ownerID {
			result = append(result, i)
		}
	}
	return result
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu   sync.RWMutex
	logs []domain.AuditLog
}

func newInMemoryAuditRepo() *inMemoryAuditRepo {
	return &inMemoryAuditRepo{}
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, l *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *l)
	return nil
}

// --- Serializing Transactor ---

// txStore is a store the serial transactor can snapshot at Begin and roll
// back to on Rollback.
type txStore interface {
	snapshot() func()
}

// serialTransactor serializes whole transactions the way row locks do in
// PostgreSQL: one settlement runs at a time, so the in-memory repos behave
// like locked rows. Each Begin snapshots the participating stores, so a
// Rollback really undoes every write made inside the transaction.
type serialTransactor struct {
	mu     sync.Mutex
	stores []txStore
}

func newSerialTransactor(stores ...txStore) *serialTransactor {
	return &serialTransactor{stores: stores}
}

func (t *serialTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	restores := make([]func(), 0, len(t.stores))
	for _, s := range t.stores {
		restores = append(restores, s.snapshot())
	}
	return &serialTx{restores: restores, release: t.mu.Unlock}, nil
}

// serialTx is a pgx.Tx that settles exactly once: Commit discards the
// snapshots, Rollback applies them, and either way the transactor lock is
// released.
type serialTx struct {
	once     sync.Once
	restores []func()
	release  func()
}

func (t *serialTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }

func (t *serialTx) Commit(ctx context.Context) error {
	t.once.Do(func() {
		t.restores = nil
		t.release()
	})
	return nil
}

func (t *serialTx) Rollback(ctx context.Context) error {
	t.once.Do(func() {
		for _, restore := range t.restores {
			restore()
		}
		t.release()
	})
	return nil
}
func (t *serialTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *serialTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *serialTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *serialTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *serialTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *serialTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *serialTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *serialTx) Conn() *pgx.Conn { return nil }
