// Command turbine runs the payout engine: it mirrors a git repository,
// verifies GPG-signed commits declaring a payout address, and disburses
// Monero rewards for new contributions.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/decred/slog"
	"github.com/fossable/turbine/internal/buildlog"
	"github.com/fossable/turbine/internal/currency"
	"github.com/fossable/turbine/internal/driver"
	"github.com/fossable/turbine/internal/mirror"
	"github.com/fossable/turbine/internal/registry"
	"github.com/fossable/turbine/internal/sigverify"
	"github.com/fossable/turbine/internal/statuspage"
	"github.com/fossable/turbine/internal/turbineconfig"
	"github.com/fossable/turbine/internal/walletrpc"
	"github.com/urfave/cli"
)

var logWriter = buildlog.NewRotatingLogWriter()

// startupGrace bounds how long serve waits for the status page to drain
// in-flight requests on shutdown.
const startupGrace = 5 * time.Second

// setupLoggers wires one root logger into every internal package, mirroring
// the teacher's AddSubLogger pattern.
func setupLoggers(root *buildlog.RotatingLogWriter) {
	addSubLogger(root, "MIRR", mirror.UseLogger)
	addSubLogger(root, "SVRF", sigverify.UseLogger)
	addSubLogger(root, "REGY", registry.UseLogger)
	addSubLogger(root, "WLRP", walletrpc.UseLogger)
	addSubLogger(root, "DRVR", driver.UseLogger)
	addSubLogger(root, "STPG", statuspage.UseLogger)
}

func addSubLogger(root *buildlog.RotatingLogWriter, subsystem string, useLogger func(slog.Logger)) {
	logger := root.GenSubLogger(subsystem)
	useLogger(logger)
}

func main() {
	app := cli.NewApp()
	app.Name = "turbine"
	app.Usage = "pay contributors in cryptocurrency for signed commits"
	app.Commands = []cli.Command{serveCommand}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "turbine: %v\n", err)
		os.Exit(1)
	}
}

var serveCommand = cli.Command{
	Name:  "serve",
	Usage: "mirror a repository and pay contributors on an hourly schedule",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "repo", Usage: "git URL of the repository to mirror"},
		cli.StringFlag{Name: "branch", Value: "master", Usage: "branch to track"},
		cli.StringFlag{Name: "bind", Value: "0.0.0.0:80", Usage: "address the status page listens on"},
		cli.BoolFlag{Name: "stagenet", Usage: "use the Monero stagenet"},
		cli.BoolFlag{Name: "testnet", Usage: "use the Monero testnet"},
		cli.IntFlag{Name: "monero-rpc-port", Value: 9000, Usage: "port monero-wallet-rpc listens on"},
		cli.Uint64Flag{Name: "monero-block-height", Value: 3167951, Usage: "restore/minimum scan height"},
		cli.StringFlag{Name: "monero-wallet-password", Usage: "wallet file password"},
		cli.StringFlag{Name: "monero-wallet-path", Usage: "path to an existing wallet file"},
		cli.BoolFlag{Name: "monero-wallet-seed", Usage: "restore the wallet from MONERO_WALLET_SEED"},
		cli.StringFlag{Name: "monero-daemon-address", Value: "stagenet.xmr-tw.org:38081", Usage: "monerod address"},
		cli.StringFlag{Name: "monero-wallet-dir", Value: ".", Usage: "directory monero-wallet-rpc manages wallet files in"},
		cli.Uint64Flag{Name: "base-payout", Value: 1_000_000_000, Usage: "base payout in piconero"},
		cli.Uint64Flag{Name: "max-payout-cap", Usage: "optional per-commit payout cap in piconero"},
		cli.StringFlag{Name: "gpg-keyserver", Value: sigverify.DefaultKeyserver, Usage: "keyserver used to import contributor keys"},
		cli.StringFlag{Name: "log-file", Value: "turbine.log", Usage: "path to the rotating log file"},
	},
	Action: serve,
}

func serve(c *cli.Context) error {
	cfg := turbineconfig.Defaults()
	cfg.Repo = c.String("repo")
	cfg.Branch = c.String("branch")
	cfg.Bind = c.String("bind")
	cfg.GPGKeyserver = c.String("gpg-keyserver")
	cfg.BasePayout = currency.Piconero(c.Uint64("base-payout"))
	cfg.MaxPayout = currency.Piconero(c.Uint64("max-payout-cap"))

	cfg.Wallet.RPCPort = uint16(c.Int("monero-rpc-port"))
	cfg.Wallet.RestoreHeight = c.Uint64("monero-block-height")
	cfg.Wallet.DaemonAddress = c.String("monero-daemon-address")
	cfg.Wallet.WalletDir = c.String("monero-wallet-dir")
	cfg.Wallet.WalletPath = c.String("monero-wallet-path")
	cfg.Wallet.WalletPassword = c.String("monero-wallet-password")
	switch {
	case c.Bool("testnet"):
		cfg.Wallet.Network = walletrpc.Testnet
	case c.Bool("stagenet"):
		cfg.Wallet.Network = walletrpc.Stagenet
	default:
		cfg.Wallet.Network = walletrpc.Mainnet
	}

	cfg.LoadEnv()

	switch {
	case cfg.Wallet.WalletPath != "":
		cfg.Wallet.Mode = walletrpc.OpenExisting
	case c.Bool("monero-wallet-seed"):
		cfg.Wallet.Mode = walletrpc.RestoreFromSeed
	default:
		cfg.Wallet.Mode = walletrpc.GenerateFromKeys
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logWriter.InitLogRotator(c.String("log-file"), 10, 3); err != nil {
		return fmt.Errorf("turbine: initializing log rotator: %w", err)
	}
	setupLoggers(logWriter)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m, err := mirror.Open(ctx, cfg.Repo, cfg.Branch)
	if err != nil {
		return fmt.Errorf("turbine: opening mirror: %w", err)
	}
	defer m.Close()

	verifier := sigverify.NewShellVerifier(cfg.GPGKeyserver)

	gateway, err := walletrpc.Open(ctx, cfg.Wallet)
	if err != nil {
		return fmt.Errorf("turbine: opening wallet gateway: %w", err)
	}
	defer gateway.Close()

	reg := registry.New()
	d := driver.New(m, verifier, reg, func(sym currency.Symbol) walletrpc.Disburser {
		return walletrpc.DisburserFor(sym, gateway)
	}, driver.Config{BasePayout: cfg.BasePayout, MaxPayout: cfg.MaxPayout})

	page := statuspage.New(d, gateway)
	srv := &http.Server{Addr: cfg.Bind, Handler: page.Handler()}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "turbine: status page: %v\n", err)
		}
	}()

	go statuspage.Serve(ctx, d)

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), startupGrace)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
