// Package executor consumes the Trades one evaluator tick produced and
// relays them on their destination chain: reconcile parameters, approve,
// relay, observe the receipt (spec.md §4.5).
package executor

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/onlyswaps/solver/internal/chain"
	"github.com/onlyswaps/solver/internal/inflight"
	"github.com/onlyswaps/solver/internal/metrics"
	"github.com/onlyswaps/solver/internal/model"
)

// TradeTTL is how long a trade's request ID stays marked in-flight once
// the executor takes responsibility for it (spec.md §4.5 step 2).
const TradeTTL = 30 * time.Second

// TradeDeadline bounds the combined approve+relay for a single trade
// (spec.md §4.5, "Timeout").
const TradeDeadline = 10 * time.Second

// Executor relays a tick's Trades one at a time, in list order, so a
// shared wallet nonce is never raced across two concurrent submissions.
type Executor struct {
	Logger  log.Logger
	Metrics *metrics.Metrics
}

func (e *Executor) logger() log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Root()
}

func (e *Executor) recordFailure(destChainID uint64, step string) {
	if e.Metrics == nil {
		return
	}
	e.Metrics.TradesFailed.WithLabelValues(strconv.FormatUint(destChainID, 10), step).Inc()
}

// Execute runs every trade in trades against clients (keyed by chain ID),
// in list order, updating inFlight as it goes. It never returns an error:
// per-trade failures are logged and skipped, per spec.md §7.
func (e *Executor) Execute(ctx context.Context, trades []model.Trade, clients map[uint64]chain.Client, inFlight *inflight.Cache) {
	for _, trade := range trades {
		e.executeOne(ctx, trade, clients, inFlight)
	}
}

func (e *Executor) executeOne(ctx context.Context, trade model.Trade, clients map[uint64]chain.Client, inFlight *inflight.Cache) {
	logger := e.logger().New("requestId", trade.RequestID)
	start := time.Now()

	if inFlight.Has(trade.RequestID) {
		logger.Info("skip", "reason", "already_in_flight")
		return
	}
	inFlight.Set(trade.RequestID, TradeTTL)

	ctx, cancel := context.WithTimeout(ctx, TradeDeadline)
	defer cancel()

	destLabel := strconv.FormatUint(trade.DestChainID, 10)
	defer func() {
		if e.Metrics != nil {
			e.Metrics.ExecuteDuration.WithLabelValues(destLabel).Observe(time.Since(start).Seconds())
		}
	}()

	dest, ok := clients[trade.DestChainID]
	if !ok {
		logger.Error("abort", "reason", "destination_client_unknown", "destChainId", trade.DestChainID)
		inFlight.Delete(trade.RequestID)
		e.recordFailure(trade.DestChainID, "destination_unknown")
		return
	}
	if !dest.HasToken(trade.TokenOutAddr) {
		logger.Error("abort", "reason", "token_out_not_configured_on_destination", "token", trade.TokenOutAddr)
		inFlight.Delete(trade.RequestID)
		e.recordFailure(trade.DestChainID, "token_unconfigured")
		return
	}

	relay, err := reconcile(ctx, dest, trade)
	if err != nil {
		logger.Error("abort", "step", "reconcile", "err", describe(err))
		inFlight.Delete(trade.RequestID)
		e.recordFailure(trade.DestChainID, "reconcile")
		return
	}

	if _, err := dest.Approve(ctx, relay.TokenOut, dest.RouterAddress(), relay.AmountOut); err != nil {
		logger.Error("abort", "step", "approve", "err", describe(err))
		inFlight.Delete(trade.RequestID)
		e.recordFailure(trade.DestChainID, "approve")
		return
	}

	select {
	case <-time.After(approveSettleDelay):
	case <-ctx.Done():
		logger.Error("abort", "step", "approve_settle_wait", "err", ctx.Err())
		inFlight.Delete(trade.RequestID)
		e.recordFailure(trade.DestChainID, "approve_settle_wait")
		return
	}

	receipt, err := dest.Relay(ctx, relay)
	if err != nil {
		logger.Error("abort", "step", "relay", "err", describe(err))
		inFlight.Delete(trade.RequestID)
		e.recordFailure(trade.DestChainID, "relay")
		return
	}

	logger.Info("executed", "txHash", receipt.TxHash.Hex())
	if e.Metrics != nil {
		e.Metrics.TradesExecuted.WithLabelValues(destLabel).Inc()
	}
}

// reconcile implements spec.md §4.1's Relay input contract / §4.5 step 4:
// call the destination router's getSwapRequestParameters; if it returns a
// verified record (non-zero srcChainId and sender), its values override
// the trade-carried values.
func reconcile(ctx context.Context, dest chain.Client, trade model.Trade) (chain.RelayParams, error) {
	requestIDBytes, err := requestIDToBytes32(trade.RequestID)
	if err != nil {
		return chain.RelayParams{}, fmt.Errorf("executor: %w", err)
	}

	relay := chain.RelayParams{
		Solver:     dest.WalletAddress(),
		RequestID:  requestIDBytes,
		Sender:     trade.SenderAddr,
		Recipient:  trade.RecipientAddr,
		TokenIn:    trade.TokenInAddr,
		TokenOut:   trade.TokenOutAddr,
		AmountOut:  trade.SwapAmount,
		SrcChainID: trade.SrcChainID,
		Nonce:      trade.Nonce,
	}

	verified, ok, err := dest.GetSwapRequestParameters(ctx, requestIDBytes)
	if err != nil {
		// Transient I/O reading the verified record: proceed with the
		// trade-carried values rather than abort (spec.md §7, Transient I/O).
		return relay, nil
	}
	if !ok {
		return relay, nil
	}

	relay.TokenIn = verified.TokenIn
	relay.TokenOut = verified.TokenOut
	relay.Sender = verified.Sender
	relay.Recipient = verified.Recipient
	relay.AmountOut = verified.AmountOut
	relay.SrcChainID = model.NormalizeChainID(verified.SrcChainID)
	relay.Nonce = verified.Nonce
	return relay, nil
}

// requestIDToBytes32 decodes a canonical "0x"+64-hex-char request ID
// into its 32-byte form.
func requestIDToBytes32(id string) ([32]byte, error) {
	var out [32]byte
	h := strings.TrimPrefix(id, "0x")
	if len(h) != 64 {
		return out, fmt.Errorf("request ID %q is not 32 bytes", id)
	}
	b, ok := new(big.Int).SetString(h, 16)
	if !ok {
		return out, fmt.Errorf("request ID %q is not valid hex", id)
	}
	bz := b.Bytes()
	copy(out[32-len(bz):], bz)
	return out, nil
}

// describe decodes known revert selectors (spec.md §7) so the log line
// names the reason instead of a raw hex blob.
func describe(err error) string {
	var re *chain.RevertError
	if errors.As(err, &re) && re.KnownSelector() != "" {
		return re.Error()
	}
	return err.Error()
}

// approveSettleDelay mirrors chain.approveSettleDelay; kept here too so
// the executor's own timeout accounting doesn't need to import an
// unexported chain constant.
const approveSettleDelay = 500 * time.Millisecond
