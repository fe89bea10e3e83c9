package broker

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gravitational/trace"
	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"

	"github.com/gravitational/vcagent/utils"
)

// Transport is the outbound half of the broker's wire connection to a
// counterparty's endpoint, deliberately opaque about what sits underneath
// (HTTP here, but spec.md keeps transport out of scope for the core).
type Transport interface {
	Deliver(ctx context.Context, endpoint string, packed []byte) error
}

// HTTPTransport POSTs packed envelopes to each connection's endpoint,
// mirroring the plain outbound-POST pattern the teacher's access bots use
// against chat-platform webhook URLs.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport builds an HTTPTransport with a bounded per-request
// timeout.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{client: &http.Client{Timeout: timeout}}
}

func (t *HTTPTransport) Deliver(ctx context.Context, endpoint string, packed []byte) error {
	if endpoint == "" {
		return trace.BadParameter("connection has no endpoint configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(packed))
	if err != nil {
		return trace.Wrap(err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := t.client.Do(req)
	if err != nil {
		return errConnection(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return trace.ConnectionProblem(nil, "endpoint %q returned status %d", endpoint, resp.StatusCode)
	}
	return nil
}

func errConnection(err error) error {
	return trace.ConnectionProblem(err, "delivering to endpoint")
}

// InboundHandler is invoked with a counterparty's raw (still packed)
// envelope bytes, for unpacking and dispatch by the caller.
type InboundHandler func(ctx context.Context, packed []byte) error

// InboundServer is the listening half, mirroring the teacher's
// CallbackServer: a single POST endpoint, request-scoped logging and a
// bounded processing timeout.
type InboundServer struct {
	http    *utils.HTTP
	handler InboundHandler
	counter uint64
}

// NewInboundServer builds an InboundServer listening per config, calling
// onMessage for each delivered envelope.
func NewInboundServer(config utils.HTTPConfig, onMessage InboundHandler) (*InboundServer, error) {
	h, err := utils.NewHTTP(config)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	srv := &InboundServer{http: h, handler: onMessage}
	srv.http.POST("/", srv.processInbound)
	return srv, nil
}

// Run starts the server, blocking until ctx is done.
func (s *InboundServer) Run(ctx context.Context) error {
	if err := s.http.EnsureCert("broker-server"); err != nil {
		return trace.Wrap(err)
	}
	return s.http.ListenAndServe(ctx)
}

// Shutdown stops the server gracefully.
func (s *InboundServer) Shutdown(ctx context.Context) error {
	return s.http.ShutdownWithTimeout(ctx, 5*time.Second)
}

func (s *InboundServer) processInbound(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	requestID := atomic.AddUint64(&s.counter, 1)
	reqLog := log.WithField("broker_http_id", requestID)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		reqLog.WithError(err).Error("failed to read inbound envelope")
		http.Error(rw, "", http.StatusBadRequest)
		return
	}

	if err := s.handler(ctx, body); err != nil {
		reqLog.WithError(err).Error("failed to process inbound envelope")
		http.Error(rw, "", http.StatusInternalServerError)
		return
	}
	rw.WriteHeader(http.StatusOK)
}
