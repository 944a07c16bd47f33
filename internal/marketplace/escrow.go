package marketplace

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sudo-init-do/gigledger/internal/wallet"
)

// escrowLedger holds per-job custody. It only ever runs inside the caller's Tx, so a
// failed movement aborts the enclosing operation as a whole.
type escrowLedger struct{}

func jobReference(jobID uint64) string {
	return "job:" + strconv.FormatUint(jobID, 10)
}

// fund debits payer and credits the job's escrow.
func (escrowLedger) fund(ctx context.Context, tx Tx, jobID uint64, amount int64, payer string) error {
	const op = "escrow.fund"
	if amount <= 0 {
		return reject(CodeInvalidAmount, op, "amount must be positive")
	}
	available, err := tx.Balance(ctx, payer)
	if err != nil {
		return fmt.Errorf("%s: payer balance: %w", op, err)
	}
	if available < amount {
		return reject(CodeInsufficientFunds, op, "balance %d below %d", available, amount)
	}
	held, err := tx.EscrowBalance(ctx, jobID)
	if err != nil {
		return fmt.Errorf("%s: escrow balance: %w", op, err)
	}
	if err := tx.PostEntry(ctx, wallet.NewEntry(payer, -amount, wallet.KindEscrowFund, jobReference(jobID))); err != nil {
		return fmt.Errorf("%s: debit payer: %w", op, err)
	}
	if err := tx.SetEscrow(ctx, jobID, held+amount); err != nil {
		return fmt.Errorf("%s: credit escrow: %w", op, err)
	}
	return nil
}

// release pays the whole balance to recipient and returns the amount paid.
func (escrowLedger) release(ctx context.Context, tx Tx, jobID uint64, recipient string) (int64, error) {
	const op = "escrow.release"
	held, err := tx.EscrowBalance(ctx, jobID)
	if err != nil {
		return 0, fmt.Errorf("%s: escrow balance: %w", op, err)
	}
	if held <= 0 {
		return 0, fmt.Errorf("%s: job %d: %w", op, jobID, ErrEscrowEmpty)
	}
	if err := tx.PostEntry(ctx, wallet.NewEntry(recipient, held, wallet.KindEscrowRelease, jobReference(jobID))); err != nil {
		return 0, fmt.Errorf("%s: credit recipient: %w", op, err)
	}
	if err := tx.SetEscrow(ctx, jobID, 0); err != nil {
		return 0, fmt.Errorf("%s: zero escrow: %w", op, err)
	}
	return held, nil
}

// split pays freelancerAmount to the freelancer and refunds the rest to the client.
// It returns the refunded remainder.
func (escrowLedger) split(ctx context.Context, tx Tx, jobID uint64, freelancerAmount int64, freelancerID, clientID string) (int64, error) {
	const op = "escrow.split"
	if freelancerAmount < 0 {
		return 0, reject(CodeInvalidAmount, op, "amount must not be negative")
	}
	held, err := tx.EscrowBalance(ctx, jobID)
	if err != nil {
		return 0, fmt.Errorf("%s: escrow balance: %w", op, err)
	}
	if freelancerAmount > held {
		return 0, reject(CodeInvalidAmount, op, "amount %d exceeds escrow %d", freelancerAmount, held)
	}
	ref := jobReference(jobID)
	if freelancerAmount > 0 {
		if err := tx.PostEntry(ctx, wallet.NewEntry(freelancerID, freelancerAmount, wallet.KindEscrowRelease, ref)); err != nil {
			return 0, fmt.Errorf("%s: credit freelancer: %w", op, err)
		}
	}
	remainder := held - freelancerAmount
	if remainder > 0 {
		if err := tx.PostEntry(ctx, wallet.NewEntry(clientID, remainder, wallet.KindEscrowRefund, ref)); err != nil {
			return 0, fmt.Errorf("%s: refund client: %w", op, err)
		}
	}
	if err := tx.SetEscrow(ctx, jobID, 0); err != nil {
		return 0, fmt.Errorf("%s: zero escrow: %w", op, err)
	}
	return remainder, nil
}
