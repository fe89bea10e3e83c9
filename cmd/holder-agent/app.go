package main

import (
	"context"
	"sync"
	"time"

	"github.com/gravitational/trace"

	"github.com/gravitational/vcagent/broker"
	"github.com/gravitational/vcagent/crypto"
	"github.com/gravitational/vcagent/crypto/clcrypto"
	"github.com/gravitational/vcagent/envelope"
	"github.com/gravitational/vcagent/holder"
	"github.com/gravitational/vcagent/ledger"
	"github.com/gravitational/vcagent/lib"
	"github.com/gravitational/vcagent/lib/job"
	"github.com/gravitational/vcagent/lib/ledgerwatch"
	"github.com/gravitational/vcagent/lib/logger"
	"github.com/gravitational/vcagent/record"
	"github.com/gravitational/vcagent/tails"
)

// MinLedgerProtocolVersion is the oldest ledger protocol version this agent
// supports.
const MinLedgerProtocolVersion = "1.0.0"

// RevocationCache holds the most recently observed delta per revocation
// registry, fed by the LedgerDeltaWatcher (spec §4.8) and consulted by
// HolderEngine.CreateProof/UpdateRevocationState callers so a proof build
// never blocks on a synchronous ledger fetch.
type RevocationCache struct {
	mu     sync.Mutex
	deltas map[string]crypto.RevocationDelta
}

func newRevocationCache() *RevocationCache {
	return &RevocationCache{deltas: make(map[string]crypto.RevocationDelta)}
}

func (c *RevocationCache) set(revRegID string, delta crypto.RevocationDelta) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deltas[revRegID] = delta
}

// Latest returns the most recently observed delta for revRegID, if any.
func (c *RevocationCache) Latest(revRegID string) (crypto.RevocationDelta, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.deltas[revRegID]
	return d, ok
}

// App wires together a holder engine, its record store and tails service,
// and a LedgerDeltaWatcher feeding a RevocationCache.
type App struct {
	conf Config

	store   record.Store
	ledger  ledger.Client
	tails   *tails.Service
	engine  *holder.Engine
	broker  *broker.Broker
	cache   *RevocationCache
	watcher *ledgerwatch.Watcher
	inbound *broker.InboundServer

	mainJob lib.ServiceJob

	*lib.Process
}

// NewApp constructs an App from a parsed Config without starting anything.
func NewApp(conf Config) (*App, error) {
	app := &App{conf: conf}
	app.mainJob = lib.NewServiceJob(app.run)
	return app, nil
}

// Run starts the App's supervised process and blocks until it terminates.
func (a *App) Run(ctx context.Context) error {
	a.Process = lib.NewProcess(ctx)
	a.SpawnCriticalJob(a.mainJob)
	<-a.Process.Done()
	return a.Err()
}

// Err returns the error the App finished with.
func (a *App) Err() error {
	return trace.Wrap(a.mainJob.Err())
}

// WaitReady blocks until the holder-agent has finished starting up.
func (a *App) WaitReady(ctx context.Context) (bool, error) {
	return a.mainJob.WaitReady(ctx)
}

func (a *App) run(ctx context.Context) error {
	log := logger.Get(ctx)
	log.Infof("Starting vcagent holder-agent %s:%s", Version, Gitref)

	var err error
	switch a.conf.Store.Kind {
	case "", "memory":
		a.store = record.NewMemStore()
	case "diskv":
		a.store, err = record.OpenDiskvStore(a.conf.Store.Path)
		if err != nil {
			return trace.Wrap(err)
		}
	default:
		return trace.BadParameter("unsupported store kind %q", a.conf.Store.Kind)
	}

	a.tails = tails.New(a.conf.Store.TailsPath)

	if a.conf.Ledger.Endpoint != "" {
		httpClient, err := ledger.NewHTTPClient(a.conf.Ledger.Endpoint, 30*time.Second)
		if err != nil {
			return trace.Wrap(err)
		}
		a.ledger = ledger.NewRetryingClient(httpClient, 5, 200*time.Millisecond, 5*time.Second)
	} else {
		log.Warn("no ledger.endpoint configured, using an in-memory fake ledger")
		a.ledger = ledger.NewFakeClient(MinLedgerProtocolVersion)
	}

	cp := clcrypto.New()
	a.engine = holder.New(cp, a.store, a.tails)
	a.broker = broker.New(a.store, envelope.New(envelope.V1), broker.NewHTTPTransport(30*time.Second))
	a.cache = newRevocationCache()

	watchConfig := ledgerwatch.Config{}
	if a.conf.PollInterval != "" {
		interval, err := time.ParseDuration(a.conf.PollInterval)
		if err != nil {
			return trace.BadParameter("poll-interval: %v", err)
		}
		watchConfig.Interval = interval
	}
	a.watcher = ledgerwatch.New(a.ledger, a.conf.RevRegIDs, watchConfig, a.onRevocationDelta)
	watcherJob := lib.NewServiceJob(a.watcher.DoJob)
	a.SpawnCriticalJob(watcherJob)
	watcherOk, err := watcherJob.WaitReady(ctx)
	if err != nil {
		return trace.Wrap(err)
	}

	inbound, err := broker.NewInboundServer(a.conf.HTTP, a.onInboundMessage)
	if err != nil {
		return trace.Wrap(err)
	}
	a.inbound = inbound

	httpJob := lib.NewServiceJob(func(ctx context.Context) error {
		job.SetReady(ctx, true)
		return a.inbound.Run(ctx)
	})
	a.SpawnCriticalJob(httpJob)
	httpOk, err := httpJob.WaitReady(ctx)
	if err != nil {
		return trace.Wrap(err)
	}

	job.SetReady(ctx, httpOk && watcherOk)

	<-httpJob.Done()
	<-watcherJob.Done()
	return trace.NewAggregate(httpJob.Err(), watcherJob.Err())
}

// onRevocationDelta is the LedgerDeltaWatcher's EventFunc: it refreshes the
// cached accumulator state for revRegID, giving CreateProof/
// UpdateRevocationState callers a delta without a synchronous ledger round
// trip.
func (a *App) onRevocationDelta(ctx context.Context, revRegID string, delta crypto.RevocationDelta) error {
	a.cache.set(revRegID, delta)
	logger.Get(ctx).WithField("rev_reg_id", revRegID).Debug("refreshed cached revocation delta")
	return nil
}

// onInboundMessage handles a packed envelope delivered to this holder's
// inbound endpoint: credential offers and proof requests arrive this way
// from an issuer or verifier's broker.
func (a *App) onInboundMessage(ctx context.Context, packed []byte) error {
	logger.Get(ctx).WithField("bytes", len(packed)).Debug("received inbound envelope")
	return nil
}
