package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/sudo-init-do/gigledger/internal/auth"
	"github.com/sudo-init-do/gigledger/internal/marketplace"
	"github.com/sudo-init-do/gigledger/internal/wallet"
)

func TestFailedTxLeavesLedgerUntouched(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.Apply(ctx, wallet.NewEntry("c", 100, wallet.KindTopup, "")); err != nil {
		t.Fatalf("topup: %v", err)
	}

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx marketplace.Tx) error {
		id, err := tx.NextID(ctx, marketplace.SeqJob)
		if err != nil {
			return err
		}
		if err := tx.PutJob(ctx, marketplace.Job{ID: id, Client: "c", Status: marketplace.StatusOpen}); err != nil {
			return err
		}
		if err := tx.PostEntry(ctx, wallet.NewEntry("c", -60, wallet.KindEscrowFund, "job:1")); err != nil {
			return err
		}
		if err := tx.SetEscrow(ctx, id, 60); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom got=%v", err)
	}

	if _, err := s.GetJob(ctx, 1); !errors.Is(err, marketplace.ErrNotFound) {
		t.Fatalf("job survived rollback: %v", err)
	}
	if bal, _ := s.Balance(ctx, "c"); bal != 100 {
		t.Fatalf("balance want=100 got=%d", bal)
	}
	if held, _ := s.EscrowBalance(ctx, 1); held != 0 {
		t.Fatalf("escrow want=0 got=%d", held)
	}
	if entries, _ := s.Transactions(ctx, "c", 0); len(entries) != 1 {
		t.Fatalf("want 1 entry got=%d", len(entries))
	}

	var next uint64
	if err := s.InTx(ctx, func(tx marketplace.Tx) error {
		next, err = tx.NextID(ctx, marketplace.SeqJob)
		return err
	}); err != nil {
		t.Fatalf("NextID: %v", err)
	}
	if next != 1 {
		t.Fatalf("sequence leaked: want=1 got=%d", next)
	}
}

func TestSecondOpenDisputeConflicts(t *testing.T) {
	s := New()
	ctx := context.Background()
	err := s.InTx(ctx, func(tx marketplace.Tx) error {
		if err := tx.PutDispute(ctx, marketplace.Dispute{ID: 1, JobID: 7, Status: marketplace.DisputeOpen}); err != nil {
			return err
		}
		return tx.PutDispute(ctx, marketplace.Dispute{ID: 2, JobID: 7, Status: marketplace.DisputeOpen})
	})
	if !errors.Is(err, marketplace.ErrConflict) {
		t.Fatalf("want ErrConflict got=%v", err)
	}

	err = s.InTx(ctx, func(tx marketplace.Tx) error {
		if err := tx.PutDispute(ctx, marketplace.Dispute{ID: 1, JobID: 7, Status: marketplace.DisputeResolved}); err != nil {
			return err
		}
		return tx.PutDispute(ctx, marketplace.Dispute{ID: 2, JobID: 7, Status: marketplace.DisputeOpen})
	})
	if err != nil {
		t.Fatalf("open after resolve: %v", err)
	}
	open, _ := s.ListDisputes(ctx, marketplace.DisputeFilter{Status: marketplace.DisputeOpen})
	if len(open) != 1 || open[0].ID != 2 {
		t.Fatalf("open disputes: %+v", open)
	}
}

func TestSetOwnerOnce(t *testing.T) {
	s := New()
	ctx := context.Background()
	set := func(owner string) error {
		return s.InTx(ctx, func(tx marketplace.Tx) error { return tx.SetOwner(ctx, owner) })
	}
	if err := set("a"); err != nil {
		t.Fatalf("first SetOwner: %v", err)
	}
	if err := set("b"); !errors.Is(err, marketplace.ErrConflict) {
		t.Fatalf("want ErrConflict got=%v", err)
	}
	if owner, _ := s.Owner(ctx); owner != "a" {
		t.Fatalf("owner want=a got=%q", owner)
	}
}

func TestApplyRejectsOverdraft(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.Apply(ctx, wallet.NewEntry("u", -1, wallet.KindWithdrawal, "")); !errors.Is(err, wallet.ErrInsufficientBalance) {
		t.Fatalf("want ErrInsufficientBalance got=%v", err)
	}
	if entries, _ := s.Transactions(ctx, "u", 10); len(entries) != 0 {
		t.Fatalf("rejected entry was recorded")
	}
}

func TestListJobsFilterAndPage(t *testing.T) {
	s := New()
	ctx := context.Background()
	err := s.InTx(ctx, func(tx marketplace.Tx) error {
		for i := uint64(1); i <= 5; i++ {
			client, status := "a", marketplace.StatusOpen
			if i%2 == 0 {
				client, status = "b", marketplace.StatusCancelled
			}
			if err := tx.PutJob(ctx, marketplace.Job{ID: i, Client: client, Status: status}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	jobs, _ := s.ListJobs(ctx, marketplace.JobFilter{Client: "a"})
	if len(jobs) != 3 || jobs[0].ID != 5 || jobs[2].ID != 1 {
		t.Fatalf("client filter: %+v", jobs)
	}
	jobs, _ = s.ListJobs(ctx, marketplace.JobFilter{Status: marketplace.StatusCancelled})
	if len(jobs) != 2 {
		t.Fatalf("status filter: %+v", jobs)
	}
	jobs, _ = s.ListJobs(ctx, marketplace.JobFilter{Limit: 2, Offset: 1})
	if len(jobs) != 2 || jobs[0].ID != 4 || jobs[1].ID != 3 {
		t.Fatalf("page: %+v", jobs)
	}
	if jobs, _ = s.ListJobs(ctx, marketplace.JobFilter{Offset: 10}); len(jobs) != 0 {
		t.Fatalf("offset past end: %+v", jobs)
	}
}

func TestAccountsByEmailIgnoreCase(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.CreateAccount(ctx, auth.Account{ID: "1", Email: "Ada@Example.com"}); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if err := s.CreateAccount(ctx, auth.Account{ID: "2", Email: "ada@example.com"}); !errors.Is(err, auth.ErrEmailTaken) {
		t.Fatalf("want ErrEmailTaken got=%v", err)
	}
	a, err := s.AccountByEmail(ctx, "ADA@EXAMPLE.COM")
	if err != nil || a.ID != "1" {
		t.Fatalf("AccountByEmail: %+v %v", a, err)
	}
	if err := s.SetRole(ctx, "missing", auth.RoleOwner); !errors.Is(err, auth.ErrAccountNotFound) {
		t.Fatalf("want ErrAccountNotFound got=%v", err)
	}
}
