package main

import (
	"context"
	"time"

	"github.com/gravitational/trace"

	"github.com/gravitational/vcagent/broker"
	"github.com/gravitational/vcagent/crypto/clcrypto"
	"github.com/gravitational/vcagent/envelope"
	"github.com/gravitational/vcagent/ledger"
	"github.com/gravitational/vcagent/lib"
	"github.com/gravitational/vcagent/lib/job"
	"github.com/gravitational/vcagent/lib/logger"
	"github.com/gravitational/vcagent/record"
	"github.com/gravitational/vcagent/verifier"
)

// MinLedgerProtocolVersion is the oldest ledger protocol version this agent
// supports.
const MinLedgerProtocolVersion = "1.0.0"

// App wires together a verifier engine (stateless) with a record store and
// broker for the A2A side of requesting and receiving presentations.
type App struct {
	conf Config

	store   record.Store
	ledger  ledger.Client
	engine  *verifier.Engine
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

// WaitReady blocks until the verifier-agent has finished starting up.
func (a *App) WaitReady(ctx context.Context) (bool, error) {
	return a.mainJob.WaitReady(ctx)
}

func (a *App) run(ctx context.Context) error {
	log := logger.Get(ctx)
	log.Infof("Starting vcagent verifier-agent %s:%s", Version, Gitref)

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
	a.engine = verifier.New(cp)
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

// onInboundMessage handles a packed envelope delivered to this verifier's
// inbound endpoint: a holder's presentation arrives this way, in response
// to a proof request this agent's broker previously sent.
func (a *App) onInboundMessage(ctx context.Context, packed []byte) error {
	logger.Get(ctx).WithField("bytes", len(packed)).Debug("received inbound envelope")
	return nil
}
