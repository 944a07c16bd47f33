package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/gigledger/internal/db"
	"github.com/sudo-init-do/gigledger/internal/logger"
	"github.com/sudo-init-do/gigledger/internal/marketplace"
	"github.com/sudo-init-do/gigledger/internal/wallet"
)

var errMissingDSN = errors.New("missing TEST_POSTGRES_DSN")

var (
	poolOnce sync.Once
	pool     *pgxpool.Pool
	poolErr  error
)

// testStore returns a store on an emptied schema, or skips without TEST_POSTGRES_DSN.
func testStore(tb testing.TB) *Store {
	tb.Helper()
	log := logger.Nop()

	poolOnce.Do(func() {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			poolErr = errMissingDSN
			return
		}
		if poolErr = db.Migrate(dsn, log); poolErr != nil {
			return
		}
		pool, poolErr = db.Connect(context.Background(), dsn, log)
	})
	if errors.Is(poolErr, errMissingDSN) {
		tb.Skip("set TEST_POSTGRES_DSN to run store integration tests")
	}
	if poolErr != nil {
		tb.Fatalf("failed to init test db: %v", poolErr)
	}

	_, err := pool.Exec(context.Background(), `
		TRUNCATE bids, escrows, disputes, jobs, ratings, wallets, transactions,
		         ledger_settings, profiles, notifications, accounts;
		UPDATE ledger_counters SET value = 0;`)
	if err != nil {
		tb.Fatalf("reset schema: %v", err)
	}
	return New(pool, log)
}

func TestLedgerLifecycle(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	svc := marketplace.NewService(store, marketplace.NewManualClock(10), nil, logger.Nop())

	if err := svc.Initialize(ctx, "owner"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := svc.Initialize(ctx, "other"); !marketplace.IsCode(err, marketplace.CodeAlreadyInitialized) {
		t.Fatalf("second Initialize: want already-initialized, got %v", err)
	}
	if _, err := store.Apply(ctx, wallet.NewEntry("client", 1_000_000, wallet.KindTopup, "")); err != nil {
		t.Fatalf("topup: %v", err)
	}

	id, err := svc.PostJob(ctx, "client", marketplace.NewJob{
		Title: "Logo", Description: "Vector logo", Budget: 1_000_000, Deadline: 100,
	})
	if err != nil {
		t.Fatalf("PostJob: %v", err)
	}
	if id != 1 {
		t.Fatalf("want first job id=1 got=%d", id)
	}
	if err := svc.SubmitBid(ctx, id, "freelancer", 900_000, "I can do it"); err != nil {
		t.Fatalf("SubmitBid: %v", err)
	}
	if err := svc.AcceptBid(ctx, id, "freelancer", "client"); err != nil {
		t.Fatalf("AcceptBid: %v", err)
	}
	if held, _ := svc.EscrowBalance(ctx, id); held != 900_000 {
		t.Fatalf("escrow want=900000 got=%d", held)
	}
	if err := svc.CompleteJob(ctx, id, "client"); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}

	if bal, _ := store.Balance(ctx, "freelancer"); bal != 900_000 {
		t.Fatalf("freelancer balance want=900000 got=%d", bal)
	}
	if bal, _ := store.Balance(ctx, "client"); bal != 100_000 {
		t.Fatalf("client balance want=100000 got=%d", bal)
	}
	job, found, err := svc.GetJob(ctx, id)
	if err != nil || !found {
		t.Fatalf("GetJob: found=%v err=%v", found, err)
	}
	if job.Status != marketplace.StatusCompleted || job.Freelancer != "freelancer" {
		t.Fatalf("unexpected job: %+v", job)
	}

	entries, err := store.Transactions(ctx, "client", 10)
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2 client entries got=%d", len(entries))
	}
}

func TestRollbackLeavesNoTrace(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.InTx(ctx, func(tx marketplace.Tx) error {
		if _, err := tx.NextID(ctx, marketplace.SeqJob); err != nil {
			return err
		}
		if err := tx.PostEntry(ctx, wallet.NewEntry("u1", 500, wallet.KindTopup, "")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom got=%v", err)
	}
	if bal, _ := store.Balance(ctx, "u1"); bal != 0 {
		t.Fatalf("balance leaked through rollback: %d", bal)
	}

	var next uint64
	err = store.InTx(ctx, func(tx marketplace.Tx) error {
		next, err = tx.NextID(ctx, marketplace.SeqJob)
		return err
	})
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}
	if next != 1 {
		t.Fatalf("sequence not rolled back: want=1 got=%d", next)
	}
}

func TestOverdraftMapsToInsufficientBalance(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if _, err := store.Apply(ctx, wallet.NewEntry("u1", 100, wallet.KindTopup, "")); err != nil {
		t.Fatalf("topup: %v", err)
	}
	_, err := store.Apply(ctx, wallet.NewEntry("u1", -101, wallet.KindWithdrawal, ""))
	if !errors.Is(err, wallet.ErrInsufficientBalance) {
		t.Fatalf("want ErrInsufficientBalance got=%v", err)
	}
	if bal, _ := store.Balance(ctx, "u1"); bal != 100 {
		t.Fatalf("balance want=100 got=%d", bal)
	}
}
