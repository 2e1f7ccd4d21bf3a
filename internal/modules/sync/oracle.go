// Package sync implements the offline-first reconciliation core: it decides,
// for every local record, whether to push, pull, promote, or flag a conflict
// once connectivity returns, and holds detected conflicts until a human
// resolves them.
package sync

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/andrasnemes/ledgerd/internal/modules/ledger"
)

// Result is the oracle's answer for a single record.
type Result struct {
	Changed      bool
	ServerRecord *ledger.Record // Set when Changed is true
}

// Oracle abstracts "what does the remote store currently hold for this
// record". It is consulted only by the reconciliation engine, and only for
// records old enough to plausibly have been seen by the server. An oracle
// must be side-effect free; a network failure aborts the whole pass.
type Oracle interface {
	Check(ctx context.Context, record ledger.Record) (Result, error)
}

// SimulatedOracle stands in for a real backend: it reports a server-side
// change with a fixed probability and fabricates the server's version.
// The seed makes a run reproducible; production deployments replace this
// with an oracle that diffs against the real remote store.
type SimulatedOracle struct {
	mu     sync.Mutex
	rng    *rand.Rand
	chance float64
	now    func() time.Time
	log    zerolog.Logger
}

// NewSimulatedOracle creates a simulated oracle with the given change probability
func NewSimulatedOracle(chance float64, seed int64, log zerolog.Logger) *SimulatedOracle {
	return &SimulatedOracle{
		rng:    rand.New(rand.NewSource(seed)),
		chance: chance,
		now:    time.Now,
		log:    log.With().Str("component", "simulated_oracle").Logger(),
	}
}

// Check rolls the configured probability and, on a hit, fabricates a server
// version of the record with a slightly different amount and comment.
func (o *SimulatedOracle) Check(_ context.Context, record ledger.Record) (Result, error) {
	o.mu.Lock()
	roll := o.rng.Float64()
	o.mu.Unlock()

	if roll >= o.chance {
		return Result{Changed: false}, nil
	}

	server := record.Clone()
	server.Amount = record.Amount * 1.1
	server.Comment = "edited on another device"
	server.SyncStatus = ledger.StatusSynced
	server.LastModified = o.now()

	o.log.Debug().Str("id", record.ID).Msg("Simulated server-side change")
	return Result{Changed: true, ServerRecord: &server}, nil
}

// StaticOracle returns pre-seeded answers keyed by record ID and reports no
// change for everything else. Used in tests to drive the engine
// deterministically.
type StaticOracle struct {
	Results map[string]Result
	Err     error
}

// Check returns the pre-seeded result for the record's ID
func (o *StaticOracle) Check(_ context.Context, record ledger.Record) (Result, error) {
	if o.Err != nil {
		return Result{}, o.Err
	}
	if res, ok := o.Results[record.ID]; ok {
		return res, nil
	}
	return Result{Changed: false}, nil
}
