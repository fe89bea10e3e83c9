package main

import (
	"context"
	"time"

	"github.com/gravitational/trace"

	"github.com/gravitational/vcagent/broker"
	"github.com/gravitational/vcagent/crypto/clcrypto"
	"github.com/gravitational/vcagent/envelope"
	"github.com/gravitational/vcagent/issuer"
	"github.com/gravitational/vcagent/ledger"
	"github.com/gravitational/vcagent/lib"
	"github.com/gravitational/vcagent/lib/job"
	"github.com/gravitational/vcagent/lib/logger"
	"github.com/gravitational/vcagent/record"
	"github.com/gravitational/vcagent/tails"
)

// MinLedgerProtocolVersion is the oldest ledger protocol version this agent
// supports.
const MinLedgerProtocolVersion = "1.0.0"

// App wires together an issuer engine, its record store, a ledger client
// and an inbound broker transport, mirroring the teacher's bot App pattern
// of a single ServiceJob wrapping everything the process does.
type App struct {
	conf Config

	store   record.Store
	ledger  ledger.Client
	tails   *tails.Service
	engine  *issuer.Engine
	broker  *broker.Broker
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

// WaitReady blocks until the issuer-agent has finished starting up.
func (a *App) WaitReady(ctx context.Context) (bool, error) {
	return a.mainJob.WaitReady(ctx)
}

func (a *App) run(ctx context.Context) error {
	log := logger.Get(ctx)
	log.Infof("Starting vcagent issuer-agent %s:%s", Version, Gitref)

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

	if err := lib.AssertLedgerProtocolVersion(mustProtocolVersion(ctx, a.ledger), MinLedgerProtocolVersion); err != nil {
		log.WithError(err).Warn("ledger protocol version check failed, continuing anyway")
	}

	cp := clcrypto.New()
	a.engine = issuer.New(cp, a.store, a.ledger, a.tails)
	a.broker = broker.New(a.store, envelope.New(envelope.V1), broker.NewHTTPTransport(30*time.Second))

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

	job.SetReady(ctx, httpOk)

	<-httpJob.Done()
	return trace.Wrap(httpJob.Err())
}

// onInboundMessage handles a packed envelope delivered to this issuer's
// inbound endpoint. Issuer agents are mostly driven by direct engine calls
// (issue_cred, create_cred_def) rather than inbound A2A traffic, so this
// just logs receipt; the envelope is not unpacked or dispatched.
// holder-agent's handler does the same.
func (a *App) onInboundMessage(ctx context.Context, packed []byte) error {
	logger.Get(ctx).WithField("bytes", len(packed)).Debug("received inbound envelope")
	return nil
}

func mustProtocolVersion(ctx context.Context, lc ledger.Client) string {
	v, err := lc.ProtocolVersion(ctx)
	if err != nil {
		logger.Get(ctx).WithError(err).Debug("could not fetch ledger protocol version")
		return MinLedgerProtocolVersion
	}
	return v
}
