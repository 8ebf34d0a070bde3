// Package walletrpc implements the Wallet Gateway (C5): lifecycle
// management of the monero-wallet-rpc child process and a typed RPC surface
// over it.
package walletrpc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fossable/turbine/internal/currency"
	"github.com/go-git/go-git/v5/plumbing"
)

// Network selects the Monero network the wallet daemon connects to.
type Network int

const (
	Mainnet Network = iota
	Stagenet
	Testnet
)

func (n Network) flag() string {
	switch n {
	case Stagenet:
		return "--stagenet"
	case Testnet:
		return "--testnet"
	default:
		return ""
	}
}

// startupTimeout bounds how long Open waits for the wallet daemon to begin
// accepting RPC connections, per spec.md §4.5 ("~20s").
const startupTimeout = 20 * time.Second

// ProvisioningMode selects exactly one way to bring the wallet online.
// These are mutually exclusive at configuration time (spec.md §4.5);
// Config.Validate enforces this before Open spawns anything.
type ProvisioningMode int

const (
	// OpenExisting opens a wallet file already present on disk.
	OpenExisting ProvisioningMode = iota
	// RestoreFromSeed restores a wallet from a mnemonic seed phrase.
	RestoreFromSeed
	// GenerateFromKeys constructs a view-only/spend wallet from raw keys.
	GenerateFromKeys
)

// Config describes how to spawn and provision the wallet daemon.
type Config struct {
	RPCPort       uint16
	Network       Network
	DaemonAddress string
	WalletDir     string

	Mode           ProvisioningMode
	WalletPath     string // OpenExisting
	WalletPassword string
	RestoreHeight  uint64 // RestoreFromSeed / GenerateFromKeys minimum height

	// Seed is read from MONERO_WALLET_SEED by the caller (cmd/turbine),
	// not from this struct directly, matching spec.md §6's environment
	// contract. GenerateFromKeys equivalents: MONERO_WALLET_ADDRESS,
	// MONERO_WALLET_SPENDKEY, MONERO_WALLET_VIEWKEY.
	Seed      string
	Address   string
	SpendKey  string
	ViewKey   string
	BinaryDir string // optional override of where monero-wallet-rpc lives
}

// Validate checks that the inputs the selected Mode needs are present.
// Mode holds a single value, so exactly one provisioning mode is ever
// selected; inputs that belong to the other modes are not rejected.
func (c Config) Validate() error {
	switch c.Mode {
	case OpenExisting:
		if c.WalletPath == "" {
			return errors.New("walletrpc: OpenExisting requires WalletPath")
		}
	case RestoreFromSeed:
		if c.Seed == "" {
			return errors.New("walletrpc: RestoreFromSeed requires a seed")
		}
	case GenerateFromKeys:
		if c.Address == "" || c.SpendKey == "" || c.ViewKey == "" {
			return errors.New("walletrpc: GenerateFromKeys requires address, spend key, and view key")
		}
	default:
		return fmt.Errorf("walletrpc: unknown provisioning mode %d", c.Mode)
	}
	return nil
}

// Gateway owns the wallet daemon child process exclusively — no shared
// ownership, no interior mutability (Design Notes): a single Gateway is
// constructed, used, and torn down by the engine.
type Gateway struct {
	cfg     Config
	process *os.Process
	client  *jsonRPCClient

	address string
}

// Open spawns the wallet daemon, waits for it to come up, reads its RPC
// credentials, connects, and provisions the wallet per cfg.Mode. Every
// failure here is fatal at startup per spec.md §7.
func Open(ctx context.Context, cfg Config) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	binary := "monero-wallet-rpc"
	if cfg.BinaryDir != "" {
		binary = filepath.Join(cfg.BinaryDir, binary)
	}

	args := []string{
		"--rpc-bind-port", strconv.Itoa(int(cfg.RPCPort)),
		"--wallet-dir", cfg.WalletDir,
		"--daemon-address", cfg.DaemonAddress,
	}
	if flag := cfg.Network.flag(); flag != "" {
		args = append(args, flag)
	}

	log.Debugf("spawning wallet RPC daemon: %s %v", binary, args)
	cmd := exec.CommandContext(context.Background(), binary, args...) // outlives ctx; stopped by Close
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("walletrpc: spawning wallet daemon: %w", err)
	}

	deadline := time.Now().Add(startupTimeout)
	loginFile := fmt.Sprintf("monero-wallet-rpc.%d.login", cfg.RPCPort)
	var username, password string
	for {
		creds, err := os.ReadFile(loginFile)
		if err == nil {
			username, password, _ = strings.Cut(strings.TrimSpace(string(creds)), ":")
			break
		}
		if time.Now().After(deadline) {
			cmd.Process.Kill()
			return nil, fmt.Errorf("walletrpc: daemon did not write credentials within %s: %w", startupTimeout, err)
		}
		time.Sleep(200 * time.Millisecond)
	}

	client := newJSONRPCClient(fmt.Sprintf("http://127.0.0.1:%d", cfg.RPCPort), username, password)

	g := &Gateway{cfg: cfg, process: cmd.Process, client: client}

	if err := g.provision(ctx); err != nil {
		cmd.Process.Kill()
		return nil, fmt.Errorf("walletrpc: provisioning wallet: %w", err)
	}

	addr, err := g.Address(ctx)
	if err != nil {
		cmd.Process.Kill()
		return nil, fmt.Errorf("walletrpc: reading wallet address: %w", err)
	}
	g.address = addr

	height, err := g.Height(ctx)
	if err != nil {
		cmd.Process.Kill()
		return nil, fmt.Errorf("walletrpc: reading chain height: %w", err)
	}
	log.Infof("connected to wallet RPC at height %d, address %s", height, addr)

	return g, nil
}

func (g *Gateway) provision(ctx context.Context) error {
	switch g.cfg.Mode {
	case OpenExisting:
		return g.client.call(ctx, "open_wallet", map[string]any{
			"filename": g.cfg.WalletPath,
			"password": g.cfg.WalletPassword,
		}, nil)
	case RestoreFromSeed:
		return g.client.call(ctx, "restore_deterministic_wallet", map[string]any{
			"filename":       "turbine",
			"password":       g.cfg.WalletPassword,
			"seed":           g.cfg.Seed,
			"restore_height": g.cfg.RestoreHeight,
		}, nil)
	case GenerateFromKeys:
		return g.client.call(ctx, "generate_from_keys", map[string]any{
			"filename":       "turbine",
			"address":        g.cfg.Address,
			"spendkey":       g.cfg.SpendKey,
			"viewkey":        g.cfg.ViewKey,
			"password":       g.cfg.WalletPassword,
			"restore_height": g.cfg.RestoreHeight,
		}, nil)
	default:
		return fmt.Errorf("walletrpc: unknown provisioning mode %d", g.cfg.Mode)
	}
}

// CachedAddress returns the wallet's primary address as captured at Open
// time, without an RPC round trip. Used by the (out-of-core) status page's
// /xmr/address badge.
func (g *Gateway) CachedAddress() string {
	return g.address
}

// Close sends SIGKILL to the wallet daemon child process (spec.md §4.5:
// "On destruction: SIGKILL the child").
func (g *Gateway) Close() error {
	if g.process == nil {
		return nil
	}
	return g.process.Kill()
}

type balanceResult struct {
	UnlockedBalance uint64 `json:"unlocked_balance"`
}

// Balance returns the primary account's unlocked balance.
func (g *Gateway) Balance(ctx context.Context) (currency.Piconero, error) {
	var res balanceResult
	if err := g.client.call(ctx, "get_balance", map[string]any{"account_index": 0}, &res); err != nil {
		return 0, err
	}
	return currency.Piconero(res.UnlockedBalance), nil
}

type heightResult struct {
	Height uint64 `json:"height"`
}

// Height returns the wallet's view of the current blockchain height.
func (g *Gateway) Height(ctx context.Context) (uint64, error) {
	var res heightResult
	if err := g.client.call(ctx, "get_height", nil, &res); err != nil {
		return 0, err
	}
	return res.Height, nil
}

// Address returns account 0, subaddress 0's address.
func (g *Gateway) Address(ctx context.Context) (string, error) {
	type addressResult struct {
		Address string `json:"address"`
	}
	var res addressResult
	if err := g.client.call(ctx, "get_address", map[string]any{
		"account_index": 0,
		"address_index": []int{0},
	}, &res); err != nil {
		return "", err
	}
	return res.Address, nil
}

// Transfer describes a single outbound transfer as reported by the wallet.
type Transfer struct {
	Amount        currency.Piconero
	Address       string
	Timestamp     time.Time
	SubaddrIndex  uint32
	TransactionID string
}

type getTransfersResult struct {
	Out []struct {
		Amount       uint64 `json:"amount"`
		Address      string `json:"address"`
		Timestamp    int64  `json:"timestamp"`
		SubaddrIndex struct {
			Minor uint32 `json:"minor"`
		} `json:"subaddr_index"`
		TxID string `json:"txid"`
	} `json:"out"`
}

// ListOutbound returns outbound transfers at or after minHeight, optionally
// restricted to the given subaddress indices.
func (g *Gateway) ListOutbound(ctx context.Context, subaddrIndices []uint32, minHeight uint64) ([]Transfer, error) {
	params := map[string]any{
		"out":           true,
		"account_index": 0,
		"min_height":    minHeight,
	}
	if len(subaddrIndices) > 0 {
		params["subaddr_indices"] = subaddrIndices
	}

	var res getTransfersResult
	if err := g.client.call(ctx, "get_transfers", params, &res); err != nil {
		return nil, err
	}

	out := make([]Transfer, 0, len(res.Out))
	for _, t := range res.Out {
		out = append(out, Transfer{
			Amount:        currency.Piconero(t.Amount),
			Address:       t.Address,
			Timestamp:     time.Unix(t.Timestamp, 0).UTC(),
			SubaddrIndex:  t.SubaddrIndex.Minor,
			TransactionID: t.TxID,
		})
	}
	return out, nil
}

// SubaddrIndexForCommit is the idempotence key (spec.md §4.5): the
// big-endian uint32 formed from the commit id's first 4 bytes.
func SubaddrIndexForCommit(commitID plumbing.Hash) uint32 {
	return binary.BigEndian.Uint32(commitID[0:4])
}

// IsCommitPaid reports whether an outbound transfer already exists from the
// subaddress dedicated to commitID, at or after the gateway's configured
// minimum block height. Equivalent to
// len(ListOutbound([subaddr_index_for(commitID)], minHeight)) > 0
// per spec.md §4.5.
func (g *Gateway) IsCommitPaid(ctx context.Context, commitID plumbing.Hash) (bool, error) {
	idx := SubaddrIndexForCommit(commitID)
	transfers, err := g.ListOutbound(ctx, []uint32{idx}, g.cfg.RestoreHeight)
	if err != nil {
		return false, err
	}
	return len(transfers) > 0, nil
}

// TransferTo issues a transfer of amount to dest from the subaddress indexed
// by commitID, at default priority, ring size 16, with no payment ID and
// unlock_time/mixin left unset, per spec.md §4.5.
func (g *Gateway) TransferTo(ctx context.Context, dest string, amount currency.Piconero, commitID plumbing.Hash) error {
	idx := SubaddrIndexForCommit(commitID)

	params := map[string]any{
		"destinations": []map[string]any{
			{"amount": uint64(amount), "address": dest},
		},
		"account_index":   0,
		"subaddr_indices": []uint32{idx},
		"priority":        0, // default priority
		"ring_size":       16,
		"get_tx_key":      false,
	}

	log.Infof("transferring %s piconero to %s for commit %s (subaddr %d)",
		amount, dest, commitID, idx)

	return g.client.call(ctx, "transfer", params, nil)
}
