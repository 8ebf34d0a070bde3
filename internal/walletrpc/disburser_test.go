package walletrpc

import (
	"context"
	"errors"
	"testing"

	"github.com/fossable/turbine/internal/currency"
	"github.com/go-git/go-git/v5/plumbing"
)

func TestBTCDisburser_AlwaysUnsupported(t *testing.T) {
	d := NewBTCDisburser()
	ctx := context.Background()
	hash := plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	if _, err := d.IsPaid(ctx, hash); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Fatalf("IsPaid error = %v, want ErrUnsupportedCurrency", err)
	}
	if err := d.Transfer(ctx, "addr", currency.Piconero(1), hash); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Fatalf("Transfer error = %v, want ErrUnsupportedCurrency", err)
	}
}

func TestDisburserFor_SelectsByCurrency(t *testing.T) {
	if _, ok := DisburserFor(currency.BTC, nil).(btcDisburser); !ok {
		t.Fatal("expected BTC to select the stub disburser")
	}
	if _, ok := DisburserFor(currency.XMR, &Gateway{}).(*xmrDisburser); !ok {
		t.Fatal("expected XMR to select the xmr disburser")
	}
}
