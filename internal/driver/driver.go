// Package driver implements the Disbursement Driver (C6): the per-refresh
// pass that turns the Contributor Registry into wallet transfers.
package driver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fossable/turbine/internal/currency"
	"github.com/fossable/turbine/internal/metrics"
	"github.com/fossable/turbine/internal/payout"
	"github.com/fossable/turbine/internal/registry"
	"github.com/fossable/turbine/internal/sigverify"
	"github.com/fossable/turbine/internal/walletrpc"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Mirror is the subset of *mirror.Mirror the driver depends on, kept as an
// interface so tests can substitute a fake clone.
type Mirror interface {
	Dir() string
	Refresh(ctx context.Context) error
	WalkFrom(watermark *plumbing.Hash) ([]*object.Commit, error)
	Tip() plumbing.Hash
}

// DisburserSelector resolves the payment capability for a declared
// currency, per spec.md's dependency order (C6 depends on C5).
type DisburserSelector func(sym currency.Symbol) walletrpc.Disburser

// Config bounds payout computation per spec.md §6.
type Config struct {
	BasePayout currency.Piconero
	MaxPayout  currency.Piconero // 0 means uncapped
}

// Driver wires C1, C2, C3, and a Disbursers capability into one end-to-end
// refresh tick (spec.md §4.6).
type Driver struct {
	mu sync.Mutex // serializes Tick

	mirror     Mirror
	verifier   sigverify.Verifier
	registry   *registry.Registry
	disbursers DisburserSelector
	cfg        Config

	watermark *plumbing.Hash
}

// New constructs a Driver. registry may be pre-populated (e.g. restored in
// tests); a fresh engine starts with registry.New().
func New(m Mirror, v sigverify.Verifier, r *registry.Registry, d DisburserSelector, cfg Config) *Driver {
	return &Driver{mirror: m, verifier: v, registry: r, disbursers: d, cfg: cfg}
}

// TickResult summarizes one refresh for logging/metrics.
type TickResult struct {
	CommitsWalked    int
	TransfersIssued  int
	TransfersSkipped int
}

// Tick runs one end-to-end refresh: fetch, walk, verify, register,
// disburse. Per-commit failures are logged and do not abort the tick; only
// a fetch/walk failure aborts early, per spec.md §4.6 and §7. Concurrent
// calls are serialized.
func (d *Driver) Tick(ctx context.Context) (TickResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	defer func() { metrics.RefreshDuration.Observe(time.Since(start).Seconds()) }()

	var result TickResult

	if err := d.mirror.Refresh(ctx); err != nil {
		return result, fmt.Errorf("driver: refresh failed: %w", err)
	}

	commits, err := d.mirror.WalkFrom(d.watermark)
	if err != nil {
		return result, fmt.Errorf("driver: walk failed: %w", err)
	}
	result.CommitsWalked = len(commits)

	verified := d.verifyChronological(ctx, commits)
	d.registry.Update(verified)

	tip := d.mirror.Tip()
	d.watermark = &tip

	for _, contributor := range d.registry.Contributors() {
		for _, commitID := range contributor.Commits {
			skip, issued := d.disburseOne(ctx, contributor, commitID)
			if skip {
				result.TransfersSkipped++
			}
			if issued {
				result.TransfersIssued++
			}
		}
	}

	return result, nil
}

// verifyChronological runs C2 over commits (reverse-chronological from the
// mirror) and returns the verified subset in chronological order, as C3's
// Update requires (spec.md §4.3).
func (d *Driver) verifyChronological(ctx context.Context, commits []*object.Commit) []registry.VerifiedCommit {
	verified := make([]registry.VerifiedCommit, 0, len(commits))
	for _, c := range commits {
		fingerprint, ok, err := d.verifier.Verify(ctx, d.mirror.Dir(), c)
		if err != nil {
			log.Warnf("verifying commit %s: %v", c.Hash, err)
			continue
		}
		if !ok {
			continue
		}
		verified = append(verified, registry.VerifiedCommit{Commit: c, Fingerprint: fingerprint})
	}

	// commits is reverse-chronological (newest first); reverse it.
	for i, j := 0, len(verified)-1; i < j; i, j = i+1, j-1 {
		verified[i], verified[j] = verified[j], verified[i]
	}
	return verified
}

// disburseOne drives spec.md §4.6 step 2 for a single (contributor, commit)
// pair. skip reports a per-commit error or a deliberate no-op (already
// paid, unsupported currency); issued reports a successful transfer call.
func (d *Driver) disburseOne(ctx context.Context, contributor *registry.Contributor, commitID plumbing.Hash) (skip, issued bool) {
	disb := d.disbursers(contributor.Address.Symbol)

	paid, err := disb.IsPaid(ctx, commitID)
	if err != nil {
		reason := metrics.ReasonPaymentCheckFailed
		if err == walletrpc.ErrUnsupportedCurrency {
			reason = metrics.ReasonUnsupportedCurrency
		}
		log.Warnf("checking payment status for commit %s: %v", commitID, err)
		metrics.TransfersSkipped.WithLabelValues(reason).Inc()
		return true, false
	}
	if paid {
		metrics.TransfersSkipped.WithLabelValues(metrics.ReasonAlreadyPaid).Inc()
		return true, false
	}

	amount := payout.Compute(contributor.Commits, commitID, d.cfg.BasePayout, d.cfg.MaxPayout)
	if err := disb.Transfer(ctx, contributor.Address.Value, amount, commitID); err != nil {
		log.Warnf("transferring %s to %s for commit %s: %v", amount, contributor.Address.Value, commitID, err)
		metrics.TransfersSkipped.WithLabelValues(metrics.ReasonTransferFailed).Inc()
		return true, false
	}

	log.Infof("paid %s piconero to %s for commit %s", amount, contributor.Address.Value, commitID)
	metrics.TransfersIssued.Inc()
	return false, true
}
