package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bankledger/internal/common"
)

// accountLocks serializes mutating operations per account. Each account gets
// a one-slot channel semaphore so acquisition can be bounded: a caller that
// cannot take the scope within the wait budget gets ErrOperationTimedOut
// instead of blocking indefinitely. The map keeps one entry per account ever
// touched and never reclaims them; at two words per account that is accepted
// until account churn becomes a real memory concern.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]chan struct{})}
}

func (a *accountLocks) get(accountID string) chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()

	ch, ok := a.locks[accountID]
	if !ok {
		ch = make(chan struct{}, 1)
		a.locks[accountID] = ch
	}
	return ch
}

// acquire takes the exclusive scope for one account, waiting at most wait.
func (a *accountLocks) acquire(ctx context.Context, accountID string, wait time.Duration) error {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case a.get(accountID) <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: account %s", common.ErrOperationTimedOut, accountID)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *accountLocks) release(accountID string) {
	<-a.get(accountID)
}

// acquireAll takes the scopes for several accounts in ascending id order so
// opposite-direction transfers cannot deadlock. On failure it releases
// whatever it already holds. The returned func releases everything.
func (a *accountLocks) acquireAll(ctx context.Context, wait time.Duration, accountIDs ...string) (func(), error) {
	ids := append([]string(nil), accountIDs...)
	sort.Strings(ids)

	held := make([]string, 0, len(ids))
	for _, id := range ids {
		if err := a.acquire(ctx, id, wait); err != nil {
			for i := len(held) - 1; i >= 0; i-- {
				a.release(held[i])
			}
			return nil, err
		}
		held = append(held, id)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			a.release(held[i])
		}
	}, nil
}
