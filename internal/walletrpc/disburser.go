package walletrpc

import (
	"context"
	"errors"

	"github.com/fossable/turbine/internal/currency"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrUnsupportedCurrency is returned by every Disburser method for a
// currency the engine does not yet pay out (spec.md Non-goals: BTC is
// parsed but never disbursed).
var ErrUnsupportedCurrency = errors.New("walletrpc: currency not disbursed")

// Disburser is the runtime-selected capability the Disbursement Driver
// dispatches through, replacing the source's compile-time currency feature
// gating (Design Notes).
type Disburser interface {
	IsPaid(ctx context.Context, commitID plumbing.Hash) (bool, error)
	Transfer(ctx context.Context, dest string, amount currency.Piconero, commitID plumbing.Hash) error
}

type xmrDisburser struct {
	gateway *Gateway
}

// NewXMRDisburser wraps gateway as the XMR Disburser.
func NewXMRDisburser(gateway *Gateway) Disburser {
	return &xmrDisburser{gateway: gateway}
}

func (d *xmrDisburser) IsPaid(ctx context.Context, commitID plumbing.Hash) (bool, error) {
	return d.gateway.IsCommitPaid(ctx, commitID)
}

func (d *xmrDisburser) Transfer(ctx context.Context, dest string, amount currency.Piconero, commitID plumbing.Hash) error {
	return d.gateway.TransferTo(ctx, dest, amount, commitID)
}

// btcDisburser is a declared stub (spec.md Non-goals, Design Notes' "TODO"
// BTC variant): BTC addresses parse but nothing pays them yet.
type btcDisburser struct{}

// NewBTCDisburser returns the stub BTC Disburser.
func NewBTCDisburser() Disburser {
	return btcDisburser{}
}

func (btcDisburser) IsPaid(context.Context, plumbing.Hash) (bool, error) {
	return false, ErrUnsupportedCurrency
}

func (btcDisburser) Transfer(context.Context, string, currency.Piconero, plumbing.Hash) error {
	return ErrUnsupportedCurrency
}

// DisburserFor returns the Disburser capability for sym, using gateway for
// XMR.
func DisburserFor(sym currency.Symbol, gateway *Gateway) Disburser {
	switch sym {
	case currency.XMR:
		return NewXMRDisburser(gateway)
	default:
		return NewBTCDisburser()
	}
}
