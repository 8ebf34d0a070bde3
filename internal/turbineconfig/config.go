// Package turbineconfig defines the serve command's configuration surface,
// parsed from CLI flags and environment variables per spec.md §6.
package turbineconfig

import (
	"fmt"
	"os"

	"github.com/fossable/turbine/internal/currency"
	"github.com/fossable/turbine/internal/sigverify"
	"github.com/fossable/turbine/internal/walletrpc"
)

// Config is the fully-resolved configuration for one `turbine serve`
// invocation.
type Config struct {
	Repo   string
	Branch string
	Bind   string

	GPGKeyserver string

	Wallet     walletrpc.Config
	BasePayout currency.Piconero
	MaxPayout  currency.Piconero
}

// Defaults returns a Config with every spec.md §6 default applied.
func Defaults() Config {
	return Config{
		Branch:       "master",
		Bind:         "0.0.0.0:80",
		GPGKeyserver: sigverify.DefaultKeyserver,
		Wallet: walletrpc.Config{
			RPCPort:       9000,
			RestoreHeight: 3167951,
			DaemonAddress: "stagenet.xmr-tw.org:38081",
			Network:       walletrpc.Mainnet,
		},
		BasePayout: 1_000_000_000,
	}
}

// LoadEnv fills in the fields spec.md §6 says come from the environment
// rather than flags: the wallet seed/keys (only meaningful when the
// corresponding CLI flags selected that provisioning mode) and an optional
// keyserver override.
func (c *Config) LoadEnv() {
	if v := os.Getenv("TURBINE_GPG_KEYSERVER"); v != "" {
		c.GPGKeyserver = v
	}
	c.Wallet.Seed = os.Getenv("MONERO_WALLET_SEED")
	c.Wallet.Address = os.Getenv("MONERO_WALLET_ADDRESS")
	c.Wallet.SpendKey = os.Getenv("MONERO_WALLET_SPENDKEY")
	c.Wallet.ViewKey = os.Getenv("MONERO_WALLET_VIEWKEY")
}

// Validate enforces the cross-field invariants spec.md §6 describes: a
// repo URL is required, and exactly one wallet provisioning mode must be
// selected.
func (c Config) Validate() error {
	if c.Repo == "" {
		return fmt.Errorf("turbineconfig: --repo is required")
	}
	return c.Wallet.Validate()
}
