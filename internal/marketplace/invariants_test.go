package marketplace_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/sudo-init-do/gigledger/internal/marketplace"
)

// assignedStatuses are the statuses in which a job carries a freelancer.
var assignedStatuses = map[marketplace.JobStatus]bool{
	marketplace.StatusInProgress: true,
	marketplace.StatusDisputed:   true,
	marketplace.StatusCompleted:  true,
}

// checkLedger asserts the job, escrow and money invariants over the whole store.
func checkLedger(t *testing.T, f *fixture, step int, funded, deposited int64, users []string) {
	t.Helper()
	ctx := context.Background()
	jobs, err := f.svc.ListJobs(ctx, marketplace.JobFilter{Limit: 100})
	if err != nil {
		t.Fatalf("step %d: ListJobs: %v", step, err)
	}

	var held int64
	for _, j := range jobs {
		if j.HasFreelancer() != assignedStatuses[j.Status] {
			t.Fatalf("step %d: job %d is %s with freelancer %q", step, j.ID, j.Status, j.Freelancer)
		}
		bal, err := f.svc.EscrowBalance(ctx, j.ID)
		if err != nil {
			t.Fatalf("step %d: EscrowBalance(%d): %v", step, j.ID, err)
		}
		if bal < 0 {
			t.Fatalf("step %d: job %d escrow negative: %d", step, j.ID, bal)
		}
		active := j.Status == marketplace.StatusInProgress || j.Status == marketplace.StatusDisputed
		if bal > 0 && !active {
			t.Fatalf("step %d: job %d is %s but holds %d", step, j.ID, j.Status, bal)
		}
		held += bal
	}
	if held > funded {
		t.Fatalf("step %d: escrow %d exceeds funded %d", step, held, funded)
	}

	var wallets int64
	for _, u := range users {
		wallets += f.balance(t, u)
	}
	if wallets+held != deposited {
		t.Fatalf("step %d: wallets %d + escrow %d != deposited %d", step, wallets, held, deposited)
	}
}

func TestRandomOperationSequenceKeepsInvariants(t *testing.T) {
	f := newFixture(t)
	f.fund(t, other, 500_000)
	const deposited = 1_500_000
	ctx := context.Background()

	users := []string{owner, client, freelancer, other}
	rng := rand.New(rand.NewSource(7))
	actor := func() string { return users[rng.Intn(len(users))] }

	var (
		jobs     []uint64
		disputes []uint64
		funded   int64
		commits  = map[string]int{}
	)
	pick := func(ids []uint64) uint64 {
		if len(ids) == 0 {
			return 1
		}
		return ids[rng.Intn(len(ids))]
	}

	for step := 0; step < 500; step++ {
		var (
			op  string
			err error
		)
		switch rng.Intn(8) {
		case 0:
			op = "post-job"
			if len(jobs) >= 15 {
				continue
			}
			var id uint64
			id, err = f.svc.PostJob(ctx, actor(), marketplace.NewJob{Title: "task", Budget: 1 + rng.Int63n(300_000), Deadline: 100})
			if err == nil {
				jobs = append(jobs, id)
			}
		case 1, 2:
			op = "submit-bid"
			err = f.svc.SubmitBid(ctx, pick(jobs), actor(), rng.Int63n(300_000), "")
		case 3:
			op = "accept-bid"
			id, who := pick(jobs), actor()
			bid, found, _ := f.svc.GetBid(ctx, id, who)
			err = f.svc.AcceptBid(ctx, id, who, actor())
			if err == nil {
				if !found {
					t.Fatalf("step %d: accepted a bid that did not exist", step)
				}
				funded += bid.Amount
			}
		case 4:
			op = "complete-job"
			err = f.svc.CompleteJob(ctx, pick(jobs), actor())
		case 5:
			op = "cancel-job"
			err = f.svc.CancelJob(ctx, pick(jobs), actor())
		case 6:
			op = "open-dispute"
			var id uint64
			id, err = f.svc.OpenDispute(ctx, pick(jobs), actor(), "late")
			if err == nil {
				disputes = append(disputes, id)
			}
		case 7:
			if rng.Intn(2) == 0 {
				op = "rate-job"
				err = f.svc.RateJob(ctx, pick(jobs), actor(), rng.Intn(7))
				break
			}
			op = "resolve-dispute"
			id := pick(disputes)
			var held int64
			if d, found, _ := f.svc.GetDispute(ctx, id); found {
				held, _ = f.svc.EscrowBalance(ctx, d.JobID)
			}
			caller := owner
			if rng.Intn(4) == 0 {
				caller = actor()
			}
			err = f.svc.ResolveDispute(ctx, id, rng.Int63n(held+100_000)-10_000, caller)
		}

		if err != nil && marketplace.CodeOf(err) == 0 {
			t.Fatalf("step %d: %s failed without a code: %v", step, op, err)
		}
		if err == nil {
			commits[op]++
		}
		checkLedger(t, f, step, funded, deposited, users)
	}
	t.Logf("committed operations: %v", commits)
}
