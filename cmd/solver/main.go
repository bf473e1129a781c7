// Command solver runs the OnlySwaps cross-chain swap solver: it watches
// every configured chain for unfulfilled swap requests and relays the
// ones it can profitably settle from its own inventory (spec.md §1-§2).
package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/onlyswaps/solver/internal/chain"
	"github.com/onlyswaps/solver/internal/config"
	"github.com/onlyswaps/solver/internal/evaluator"
	"github.com/onlyswaps/solver/internal/executor"
	"github.com/onlyswaps/solver/internal/gasprice"
	"github.com/onlyswaps/solver/internal/metrics"
	"github.com/onlyswaps/solver/internal/oracle"
	"github.com/onlyswaps/solver/internal/supervisor"
	"github.com/onlyswaps/solver/internal/walletsigner"
)

func main() {
	app := &cli.App{
		Name:  "solver",
		Usage: "cross-chain swap solver",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to config.toml",
				EnvVars: []string{"SOLVER_CONFIG_PATH"},
			},
			&cli.StringFlag{
				Name:    "private-key",
				Usage:   "solver wallet private key (hex, with or without 0x)",
				EnvVars: []string{"SOLVER_PRIVATE_KEY"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Root().Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(err, 1)
	}

	logger := newLogger(cfg.Agent.LogLevel, cfg.Agent.LogJSON)
	log.SetDefault(logger)

	privateKey, err := config.ResolvePrivateKey(c.String("private-key"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	signer, err := walletsigner.New(privateKey)
	if err != nil {
		return cli.Exit(err, 1)
	}

	ctx, cancel := signalContext()
	defer cancel()

	clients, err := buildClients(ctx, cfg, signer, logger)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer func() {
		for _, cl := range clients {
			cl.Close()
		}
	}()

	m := metrics.New()
	eval := buildEvaluator(cfg, m, logger)
	exec := &executor.Executor{Logger: logger.New("component", "executor"), Metrics: m}

	sup := supervisor.New(clients, eval, exec, m, logger.New("component", "supervisor"))

	if err := sup.Run(ctx); err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}

// signalContext returns a context cancelled on SIGINT, SIGTERM, or
// SIGUSR2 (spec.md §4.6's shutdown contract).
func signalContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGUSR2)
	return ctx, stop
}

func newLogger(level string, asJSON bool) log.Logger {
	lvl, err := log.LvlFromString(level)
	if err != nil {
		lvl, _ = log.LvlFromString("info")
	}
	var handler log.Handler
	if asJSON {
		handler = log.JSONHandler(os.Stderr)
	} else {
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, lvl, false)
	}
	return log.NewLogger(handler)
}

// buildClients dials one EVMClient per [[networks]] table.
func buildClients(ctx context.Context, cfg *config.Config, signer *walletsigner.Signer, logger log.Logger) (map[uint64]chain.Client, error) {
	clients := make(map[uint64]chain.Client, len(cfg.Networks))
	for _, n := range cfg.Networks {
		c, err := chain.NewEVMClient(ctx, n.ChainID, n.RPCURL, n.RouterContractAddress(), n.TokenAddresses(), signer, n.TxGasBufferPct, n.TxGasPriceBufferPct, logger)
		if err != nil {
			return nil, fmt.Errorf("cmd/solver: dialing chain %d: %w", n.ChainID, err)
		}
		clients[n.ChainID] = c
	}
	return clients, nil
}

// buildEvaluator selects the v1 or v2 evaluator per spec.md §9's Open
// Question, exposed under [agent] evaluator rather than picked silently.
func buildEvaluator(cfg *config.Config, m *metrics.Metrics, logger log.Logger) evaluator.Evaluator {
	if cfg.Agent.Evaluator == "scored" {
		gp := gasprice.New()
		for _, n := range cfg.Networks {
			if n.DefaultGasPriceWei == "" {
				continue
			}
			price, ok := new(big.Int).SetString(n.DefaultGasPriceWei, 10)
			if !ok {
				continue
			}
			gp = gasprice.NewWithSource(staticGasPriceSource{chainID: n.ChainID, price: price, fallback: gp})
		}
		return &evaluator.Scored{
			Logger:    logger.New("component", "evaluator", "variant", "scored"),
			Prices:    oracle.NewCachingOracle(oracle.NewStaticOracle()),
			GasPrices: gp,
		}
	}
	return &evaluator.Simple{Logger: logger.New("component", "evaluator", "variant", "simple")}
}

// staticGasPriceSource layers a single configured per-chain override on
// top of a fallback gasprice.Cache, which holds any earlier overrides or
// the package defaults.
type staticGasPriceSource struct {
	chainID  uint64
	price    *big.Int
	fallback *gasprice.Cache
}

func (s staticGasPriceSource) GasPrice(ctx context.Context, chainID uint64) (*big.Int, error) {
	if chainID == s.chainID {
		return s.price, nil
	}
	return s.fallback.GasPrice(ctx, chainID), nil
}
