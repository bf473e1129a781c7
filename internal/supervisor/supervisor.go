// Package supervisor owns the Loop Supervisor described in spec.md §4.6:
// the set of chain clients, the single evaluator, executor, and
// In-Flight Cache, and the fan-in loop that turns block events into
// fetch → evaluate → execute ticks.
package supervisor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"

	"github.com/onlyswaps/solver/internal/chain"
	"github.com/onlyswaps/solver/internal/evaluator"
	"github.com/onlyswaps/solver/internal/executor"
	"github.com/onlyswaps/solver/internal/inflight"
	"github.com/onlyswaps/solver/internal/metrics"
	"github.com/onlyswaps/solver/internal/store"
)

// Supervisor is the process's two process-wide state objects (the State
// Store and the In-Flight Cache) plus the components that act on them.
type Supervisor struct {
	Clients   map[uint64]chain.Client
	Evaluator evaluator.Evaluator
	Executor  *executor.Executor
	InFlight  *inflight.Cache
	Store     *store.Store
	Metrics   *metrics.Metrics
	Logger    log.Logger
}

// New wires a Supervisor from its components, creating a fresh In-Flight
// Cache and State Store for it.
func New(clients map[uint64]chain.Client, eval evaluator.Evaluator, exec *executor.Executor, m *metrics.Metrics, logger log.Logger) *Supervisor {
	if logger == nil {
		logger = log.Root()
	}
	return &Supervisor{
		Clients:   clients,
		Evaluator: eval,
		Executor:  exec,
		InFlight:  inflight.New(),
		Store:     store.New(),
		Metrics:   m,
		Logger:    logger,
	}
}

// Run primes the State Store from every configured chain, then fans in
// every chain's block stream and drives one tick per event until ctx is
// cancelled. It returns nil on a clean shutdown and an error only if
// every chain's block stream terminates simultaneously (spec.md §7's
// sole unrecoverable steady-state condition).
func (s *Supervisor) Run(ctx context.Context) error {
	s.prime(ctx)

	events := make(chan chain.BlockEvent)
	g, gctx := errgroup.WithContext(ctx)

	for _, client := range s.Clients {
		client := client
		g.Go(func() error {
			stream, err := client.Subscribe(gctx)
			if err != nil {
				s.Logger.Error("subscribe failed", "chainId", client.ChainID(), "err", err)
				return err
			}
			for {
				select {
				case ev, ok := <-stream:
					if !ok {
						return nil
					}
					select {
					case events <- ev:
					case <-gctx.Done():
						return nil
					}
				case <-gctx.Done():
					return nil
				}
			}
		})
	}

	var streamErr error
	go func() {
		streamErr = g.Wait()
		close(events)
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				for _, c := range s.Clients {
					c.Close()
				}
				if ctx.Err() != nil {
					return nil
				}
				if streamErr != nil {
					return fmt.Errorf("supervisor: block streams stopped: %w", streamErr)
				}
				return fmt.Errorf("supervisor: every chain's block stream terminated")
			}
			s.tick(ctx, ev)
		case <-ctx.Done():
			for _, c := range s.Clients {
				c.Close()
			}
			return nil
		}
	}
}

// prime fetches state once per chain before the loop starts consuming
// block events, per spec.md §4.6.
func (s *Supervisor) prime(ctx context.Context) {
	for chainID, client := range s.Clients {
		state, err := client.FetchState(ctx)
		if err != nil {
			s.Logger.Error("prime fetchState failed", "chainId", chainID, "err", err)
			continue
		}
		s.Store.Set(chainID, state)
	}
}

// tick implements spec.md §4.6 steps 1-4 for one block event.
func (s *Supervisor) tick(ctx context.Context, ev chain.BlockEvent) {
	logger := s.Logger.New("chainId", ev.ChainID, "block", ev.Number)
	start := time.Now()
	defer func() {
		if s.Metrics != nil {
			s.Metrics.TickDuration.WithLabelValues(strconv.FormatUint(ev.ChainID, 10)).Observe(time.Since(start).Seconds())
			s.Metrics.TicksTotal.WithLabelValues(strconv.FormatUint(ev.ChainID, 10)).Inc()
			s.Metrics.InFlightSize.Set(float64(s.InFlight.Len()))
		}
	}()

	client, ok := s.Clients[ev.ChainID]
	if !ok {
		logger.Error("tick for unknown chain, skipping")
		return
	}

	state, err := client.FetchState(ctx)
	if err != nil {
		logger.Error("fetchState failed, skipping tick", "err", err)
		if s.Metrics != nil {
			s.Metrics.FetchErrorsTotal.WithLabelValues(strconv.FormatUint(ev.ChainID, 10)).Inc()
		}
		return
	}
	s.Store.Set(ev.ChainID, state)

	snapshot := s.Store.Clone()
	trades := s.Evaluator.Evaluate(ctx, ev.ChainID, snapshot, s.InFlight)
	if len(trades) == 0 {
		return
	}
	if s.Metrics != nil {
		s.Metrics.TradesEmitted.WithLabelValues(strconv.FormatUint(ev.ChainID, 10)).Add(float64(len(trades)))
	}

	s.Executor.Execute(ctx, trades, s.Clients, s.InFlight)
}
