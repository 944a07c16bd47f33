package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/sudo-init-do/gigledger/internal/marketplace"
	"github.com/sudo-init-do/gigledger/internal/wallet"
)

// reader serves lookups from the pool, or from a transaction with row locks when lock is set.
type reader struct {
	q    querier
	lock bool
}

func (r reader) forUpdate() string {
	if r.lock {
		return " FOR UPDATE"
	}
	return ""
}

func (r reader) Owner(ctx context.Context) (string, error) {
	var owner string
	err := r.q.QueryRow(ctx, `SELECT owner FROM ledger_settings WHERE id = 1`).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("select owner: %w", err)
	}
	return owner, nil
}

const jobColumns = `id, client, title, description, budget, deadline, status, freelancer, created_height, created_at, updated_at`

func scanJob(row pgx.Row) (marketplace.Job, error) {
	var (
		j                    marketplace.Job
		id, deadline, height int64
		status               int16
		freelancer           *string
	)
	err := row.Scan(&id, &j.Client, &j.Title, &j.Description, &j.Budget, &deadline, &status,
		&freelancer, &height, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return marketplace.Job{}, err
	}
	j.ID = uint64(id)
	j.Deadline = uint64(deadline)
	j.CreatedHeight = uint64(height)
	j.Status = marketplace.JobStatus(status)
	j.Freelancer = deref(freelancer)
	return j, nil
}

func (r reader) GetJob(ctx context.Context, id uint64) (marketplace.Job, error) {
	row := r.q.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`+r.forUpdate(), int64(id))
	j, err := scanJob(row)
	if err != nil {
		return marketplace.Job{}, mapError(err)
	}
	return j, nil
}

func (r reader) GetBid(ctx context.Context, jobID uint64, freelancer string) (marketplace.Bid, error) {
	b := marketplace.Bid{JobID: jobID, Freelancer: freelancer}
	err := r.q.QueryRow(ctx,
		`SELECT amount, proposal, updated_at FROM bids WHERE job_id = $1 AND freelancer = $2`+r.forUpdate(),
		int64(jobID), freelancer,
	).Scan(&b.Amount, &b.Proposal, &b.UpdatedAt)
	if err != nil {
		return marketplace.Bid{}, mapError(err)
	}
	return b, nil
}

func (r reader) EscrowBalance(ctx context.Context, jobID uint64) (int64, error) {
	var balance int64
	err := r.q.QueryRow(ctx, `SELECT balance FROM escrows WHERE job_id = $1`+r.forUpdate(), int64(jobID)).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select escrow: %w", err)
	}
	return balance, nil
}

const disputeColumns = `id, job_id, opener, reason, status, freelancer_amount, resolved_by, created_at, resolved_at`

func scanDispute(row pgx.Row) (marketplace.Dispute, error) {
	var (
		d          marketplace.Dispute
		id, jobID  int64
		status     string
		resolvedBy *string
	)
	err := row.Scan(&id, &jobID, &d.Opener, &d.Reason, &status, &d.FreelancerAmount, &resolvedBy,
		&d.CreatedAt, &d.ResolvedAt)
	if err != nil {
		return marketplace.Dispute{}, err
	}
	d.ID = uint64(id)
	d.JobID = uint64(jobID)
	d.Status = marketplace.DisputeStatus(status)
	d.ResolvedBy = deref(resolvedBy)
	return d, nil
}

func (r reader) GetDispute(ctx context.Context, id uint64) (marketplace.Dispute, error) {
	row := r.q.QueryRow(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1`+r.forUpdate(), int64(id))
	d, err := scanDispute(row)
	if err != nil {
		return marketplace.Dispute{}, mapError(err)
	}
	return d, nil
}

func (r reader) GetRating(ctx context.Context, principal string) (marketplace.Rating, error) {
	if r.lock {
		// Materialize the row so FOR UPDATE has something to lock on a first rating.
		if _, err := r.q.Exec(ctx,
			`INSERT INTO ratings (principal) VALUES ($1) ON CONFLICT (principal) DO NOTHING`, principal,
		); err != nil {
			return marketplace.Rating{}, fmt.Errorf("ensure rating row: %w", err)
		}
	}
	var (
		average int16
		count   int64
	)
	err := r.q.QueryRow(ctx,
		`SELECT average, count FROM ratings WHERE principal = $1`+r.forUpdate(), principal,
	).Scan(&average, &count)
	if errors.Is(err, pgx.ErrNoRows) {
		return marketplace.Rating{User: principal}, nil
	}
	if err != nil {
		return marketplace.Rating{}, fmt.Errorf("select rating: %w", err)
	}
	return marketplace.Rating{User: principal, Average: uint8(average), Count: uint64(count)}, nil
}

func (r reader) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := r.q.QueryRow(ctx, `SELECT balance FROM wallets WHERE user_id = $1`+r.forUpdate(), userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select wallet: %w", err)
	}
	return balance, nil
}

func (s *Store) ListJobs(ctx context.Context, f marketplace.JobFilter) ([]marketplace.Job, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != 0 {
		args = append(args, int16(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Client != "" {
		args = append(args, f.Client)
		where = append(where, fmt.Sprintf("client = $%d", len(args)))
	}
	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]marketplace.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *Store) ListBids(ctx context.Context, jobID uint64) ([]marketplace.Bid, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT freelancer, amount, proposal, updated_at FROM bids WHERE job_id = $1 ORDER BY freelancer`,
		int64(jobID),
	)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	defer rows.Close()

	bids := make([]marketplace.Bid, 0)
	for rows.Next() {
		b := marketplace.Bid{JobID: jobID}
		if err := rows.Scan(&b.Freelancer, &b.Amount, &b.Proposal, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

func (s *Store) ListDisputes(ctx context.Context, f marketplace.DisputeFilter) ([]marketplace.Dispute, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.JobID != 0 {
		args = append(args, int64(f.JobID))
		where = append(where, fmt.Sprintf("job_id = $%d", len(args)))
	}
	query := `SELECT ` + disputeColumns + ` FROM disputes`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list disputes: %w", err)
	}
	defer rows.Close()

	out := make([]marketplace.Dispute, 0)
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dispute: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) Stats(ctx context.Context) (marketplace.Stats, error) {
	stats := marketplace.Stats{JobsByStatus: make(map[string]int64)}

	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return stats, fmt.Errorf("count jobs: %w", err)
	}
	for rows.Next() {
		var (
			status int16
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return stats, fmt.Errorf("scan job count: %w", err)
		}
		stats.JobsByStatus[marketplace.JobStatus(status).String()] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return stats, err
	}

	err = s.pool.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0) FROM escrows`).Scan(&stats.EscrowHeld)
	if err != nil {
		return stats, fmt.Errorf("sum escrow: %w", err)
	}
	err = s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE status = 'open'), COUNT(*) FROM disputes`,
	).Scan(&stats.OpenDisputes, &stats.TotalDisputes)
	if err != nil {
		return stats, fmt.Errorf("count disputes: %w", err)
	}
	return stats, nil
}

// ledgerTx adds the write side to a locking reader.
type ledgerTx struct {
	reader
}

func (t *ledgerTx) SetOwner(ctx context.Context, owner string) error {
	tag, err := t.q.Exec(ctx,
		`INSERT INTO ledger_settings (id, owner) VALUES (1, $1) ON CONFLICT (id) DO NOTHING`, owner)
	if err != nil {
		return fmt.Errorf("insert owner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return marketplace.ErrConflict
	}
	return nil
}

func (t *ledgerTx) NextID(ctx context.Context, seq string) (uint64, error) {
	var next int64
	err := t.q.QueryRow(ctx,
		`UPDATE ledger_counters SET value = value + 1 WHERE name = $1 RETURNING value`, seq,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("advance %s sequence: %w", seq, err)
	}
	return uint64(next), nil
}

func (t *ledgerTx) PutJob(ctx context.Context, j marketplace.Job) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    freelancer = EXCLUDED.freelancer,
		    updated_at = EXCLUDED.updated_at`,
		int64(j.ID), j.Client, j.Title, j.Description, j.Budget, int64(j.Deadline), int16(j.Status),
		nullString(j.Freelancer), int64(j.CreatedHeight), j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert job: %w", mapError(err))
	}
	return nil
}

func (t *ledgerTx) PutBid(ctx context.Context, b marketplace.Bid) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO bids (job_id, freelancer, amount, proposal, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (job_id, freelancer) DO UPDATE
		SET amount = EXCLUDED.amount,
		    proposal = EXCLUDED.proposal,
		    updated_at = EXCLUDED.updated_at`,
		int64(b.JobID), b.Freelancer, b.Amount, b.Proposal, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert bid: %w", mapError(err))
	}
	return nil
}

func (t *ledgerTx) SetEscrow(ctx context.Context, jobID uint64, balance int64) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO escrows (job_id, balance) VALUES ($1, $2)
		ON CONFLICT (job_id) DO UPDATE SET balance = EXCLUDED.balance, updated_at = NOW()`,
		int64(jobID), balance,
	)
	if err != nil {
		return fmt.Errorf("upsert escrow: %w", err)
	}
	return nil
}

func (t *ledgerTx) PutDispute(ctx context.Context, d marketplace.Dispute) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO disputes (`+disputeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    freelancer_amount = EXCLUDED.freelancer_amount,
		    resolved_by = EXCLUDED.resolved_by,
		    resolved_at = EXCLUDED.resolved_at`,
		int64(d.ID), int64(d.JobID), d.Opener, d.Reason, string(d.Status), d.FreelancerAmount,
		nullString(d.ResolvedBy), d.CreatedAt, d.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert dispute: %w", mapError(err))
	}
	return nil
}

func (t *ledgerTx) PutRating(ctx context.Context, r marketplace.Rating) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO ratings (principal, average, count) VALUES ($1, $2, $3)
		ON CONFLICT (principal) DO UPDATE SET average = EXCLUDED.average, count = EXCLUDED.count`,
		r.User, int16(r.Average), int64(r.Count),
	)
	if err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

func (t *ledgerTx) PostEntry(ctx context.Context, e wallet.Entry) error {
	_, err := postEntry(ctx, t.q, e)
	return err
}

// postEntry moves the wallet balance and appends the movement in the caller's transaction.
func postEntry(ctx context.Context, q querier, e wallet.Entry) (int64, error) {
	var balance int64
	err := q.QueryRow(ctx, `
		INSERT INTO wallets (user_id, balance) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET balance = wallets.balance + EXCLUDED.balance, updated_at = NOW()
		RETURNING balance`,
		e.UserID, e.Amount,
	).Scan(&balance)
	if pgCode(err) == codeCheckViolation {
		return 0, wallet.ErrInsufficientBalance
	}
	if err != nil {
		return 0, fmt.Errorf("move wallet balance: %w", err)
	}
	_, err = q.Exec(ctx, `
		INSERT INTO transactions (id, user_id, amount, type, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.UserID, e.Amount, string(e.Kind), e.Reference, e.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("record transaction: %w", err)
	}
	return balance, nil
}
