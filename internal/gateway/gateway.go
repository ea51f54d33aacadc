// Package gateway submits and evaluates contract transactions against a
// ledger on behalf of authenticated HTTP callers.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-ledger/internal/contract"
	"github.com/noah-isme/academic-ledger/internal/ledger"
	"github.com/noah-isme/academic-ledger/internal/models"
	"github.com/noah-isme/academic-ledger/internal/service"
	appErrors "github.com/noah-isme/academic-ledger/pkg/errors"
)

// Result is the outcome of a committed or evaluated transaction.
type Result struct {
	TxID     string          `json:"txId"`
	Function string          `json:"function"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
	Cached   bool            `json:"cached,omitempty"`
}

// Clock returns the timestamp assigned to a new transaction.
type Clock func() time.Time

// Gateway orders transactions onto a single ledger.
type Gateway struct {
	ledger     ledger.Ledger
	contract   *contract.Contract
	cache      *service.CacheService
	metrics    *service.MetricsService
	maxRetries int
	clock      Clock
	logger     *zap.Logger
}

// Option customises a Gateway.
type Option func(*Gateway)

// WithClock overrides the transaction clock.
func WithClock(clock Clock) Option {
	return func(g *Gateway) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// WithCache enables the read-through cache for evaluated queries.
func WithCache(cache *service.CacheService) Option {
	return func(g *Gateway) { g.cache = cache }
}

// WithMetrics records transaction outcomes.
func WithMetrics(metrics *service.MetricsService) Option {
	return func(g *Gateway) { g.metrics = metrics }
}

// New constructs a gateway. maxRetries bounds resubmissions after a store
// conflict; zero disables retries.
func New(l ledger.Ledger, c *contract.Contract, maxRetries int, logger *zap.Logger, opts ...Option) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	g := &Gateway{
		ledger:     l,
		contract:   c,
		maxRetries: maxRetries,
		clock:      func() time.Time { return time.Now().UTC() },
		logger:     logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Functions lists the transactions the contract exposes.
func (g *Gateway) Functions() []contract.Function {
	return g.contract.Functions()
}

// Submit runs name as an ordered transaction and commits its write-set. A
// store conflict is retried with a fresh transaction ID until the retry
// budget is spent.
func (g *Gateway) Submit(ctx context.Context, caller ledger.Identity, name string, args []string) (*Result, error) {
	fn, ok := g.contract.Lookup(name)
	if !ok {
		return nil, appErrors.Clonef(appErrors.ErrNotFound, "transaction %s is not defined", name)
	}

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries+1; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		txID := newTxID()
		start := time.Now()
		var payload []byte
		err := ledger.Run(ctx, g.ledger, ledger.TxMeta{TxID: txID, Timestamp: g.clock(), Caller: caller}, func(txCtx context.Context) error {
			var invokeErr error
			payload, invokeErr = g.contract.Invoke(txCtx, name, args)
			return invokeErr
		})
		g.metrics.ObserveTransaction(name, outcome(err), time.Since(start))

		if err == nil {
			g.afterCommit(ctx, fn, payload)
			g.logger.Info("transaction committed", zap.String("function", name), zap.String("tx_id", txID), zap.Int("attempt", attempt))
			return &Result{TxID: txID, Function: name, Payload: payload, Attempts: attempt}, nil
		}
		if !appErrors.IsRetryable(err) {
			g.logger.Debug("transaction rejected", zap.String("function", name), zap.String("tx_id", txID), zap.Error(err))
			return nil, err
		}
		g.logger.Warn("transaction conflict", zap.String("function", name), zap.String("tx_id", txID), zap.Int("attempt", attempt), zap.Error(err))
		lastErr = err
	}
	return nil, lastErr
}

// Evaluate runs a read-only transaction without ordering it. Results are
// served from the cache when enabled.
func (g *Gateway) Evaluate(ctx context.Context, caller ledger.Identity, name string, args []string) (*Result, error) {
	fn, ok := g.contract.Lookup(name)
	if !ok {
		return nil, appErrors.Clonef(appErrors.ErrNotFound, "transaction %s is not defined", name)
	}
	if !fn.ReadOnly {
		return nil, appErrors.Clonef(appErrors.ErrValidation, "%s modifies state and must be submitted", name)
	}

	key := service.QueryKey(name, callerOrg(caller), args)
	if cached, hit := g.cache.Lookup(ctx, key); hit {
		return &Result{Function: name, Payload: cached, Cached: true}, nil
	}

	txID := newTxID()
	tx, err := g.ledger.Begin(ctx, ledger.TxMeta{TxID: txID, Timestamp: g.clock(), Caller: caller})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	start := time.Now()
	payload, err := g.contract.Invoke(ledger.WithTransaction(ctx, tx), name, args)
	if err != nil {
		g.metrics.ObserveTransaction(name, outcome(err), time.Since(start))
		return nil, err
	}
	g.metrics.ObserveTransaction(name, OutcomeEvaluated, time.Since(start))
	g.cache.Store(ctx, key, payload)
	return &Result{TxID: txID, Function: name, Payload: payload, Attempts: 1}, nil
}

// OutcomeEvaluated labels read-only transactions that never reach commit.
const OutcomeEvaluated = "evaluated"

func (g *Gateway) afterCommit(ctx context.Context, fn contract.Function, payload []byte) {
	if fn.Name == models.ActionVerifyCertificate {
		var valid bool
		if err := json.Unmarshal(payload, &valid); err == nil {
			g.metrics.RecordVerification(valid)
		}
	}
	if fn.ReadOnly {
		return
	}
	g.cache.InvalidateQueries(ctx)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return service.OutcomeCommitted
	case appErrors.IsRetryable(err):
		return service.OutcomeConflict
	case errors.Is(err, appErrors.ErrStorage), errors.Is(err, appErrors.ErrInternal):
		return service.OutcomeFailed
	default:
		return service.OutcomeRejected
	}
}

func callerOrg(caller ledger.Identity) string {
	if caller == nil {
		return ""
	}
	org, err := caller.OrganizationID()
	if err != nil {
		return ""
	}
	return org
}

// newTxID returns a 32-character hex transaction ID.
func newTxID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
