package chain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
)

// pollInterval is the polling-fallback cadence spec.md §4.1 requires
// alongside any native push subscription.
const pollInterval = 2 * time.Second

// headSource abstracts the two ways a head can arrive: a pushed
// *types.Header from SubscribeNewHead, or a polled block number from
// BlockNumber. Both feed the same dedup/resume logic in runSubscription.
type headSource struct {
	client *ethclient.Client
	logger log.Logger
}

// runSubscription drives BlockEvents onto out until ctx is cancelled. It
// combines a native newHeads push subscription with a polling fallback:
// whichever delivers a given block number first wins, duplicates are
// suppressed, and on reconnect it resumes from the last emitted block+1,
// emitting any intermediate blocks in catch-up order.
func runSubscription(ctx context.Context, chainID uint64, hs headSource, out chan<- BlockEvent) {
	defer close(out)

	var lastEmitted uint64
	haveEmitted := false

	emit := func(n uint64) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		if haveEmitted && n <= lastEmitted {
			return true
		}
		// Catch up on any gap between lastEmitted and n, in order.
		start := n
		if haveEmitted {
			start = lastEmitted + 1
		}
		for b := start; b <= n; b++ {
			select {
			case out <- BlockEvent{ChainID: chainID, Number: b}:
			case <-ctx.Done():
				return false
			}
		}
		lastEmitted = n
		haveEmitted = true
		return true
	}

	headCh := make(chan *types.Header, 16)
	sub, err := hs.client.SubscribeNewHead(ctx, headCh)
	if err != nil {
		hs.logger.Warn("native block subscription unavailable, relying on poll fallback", "chainId", chainID, "err", err)
		sub = nil
	}
	defer func() {
		if sub != nil {
			sub.Unsubscribe()
		}
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case h := <-headCh:
			if h == nil {
				continue
			}
			if !emit(h.Number.Uint64()) {
				return
			}

		case err := <-subErrCh(sub):
			if err != nil {
				hs.logger.Warn("native block subscription dropped, will resubscribe", "chainId", chainID, "err", err)
			}
			newSub, newErr := hs.client.SubscribeNewHead(ctx, headCh)
			if newErr != nil {
				sub = nil
				continue
			}
			if sub != nil {
				sub.Unsubscribe()
			}
			sub = newSub

		case <-ticker.C:
			n, err := hs.client.BlockNumber(ctx)
			if err != nil {
				hs.logger.Warn("poll fallback failed to fetch block number", "chainId", chainID, "err", err)
				continue
			}
			if !emit(n) {
				return
			}
		}
	}
}

// subErrCh returns sub.Err() if sub is non-nil, or a channel that never
// fires otherwise — letting the select above treat "no active native
// subscription" as simply never selecting that case.
func subErrCh(sub ethereum.Subscription) <-chan error {
	if sub == nil {
		return nil
	}
	return sub.Err()
}
