// Package gateway resolves a collection query against one provider and
// always answers with the uniform envelope.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/cms-gateway/internal/audit"
	"github.com/hashicorp-forge/cms-gateway/pkg/directus"
	"github.com/hashicorp-forge/cms-gateway/pkg/envelope"
	"github.com/hashicorp-forge/cms-gateway/pkg/provider"
	"github.com/hashicorp-forge/cms-gateway/pkg/query"
	"github.com/hashicorp-forge/cms-gateway/pkg/transport"
)

// Kind classifies the outcome of a request.
type Kind string

const (
	KindOK         Kind = "ok"
	KindValidation Kind = "validation"
	KindTransport  Kind = "transport"
)

// HTTPStatus maps the outcome onto the inbound API status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindOK:
		return http.StatusOK
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Result is the outcome of Handle.
type Result struct {
	RequestID string
	Kind      Kind
	Response  envelope.Response
}

// ProviderLookup resolves provider IDs.
type ProviderLookup interface {
	Lookup(id string) (provider.Config, bool)
}

// CollectionGate decides which collections may be queried.
type CollectionGate interface {
	IsAllowed(name string) bool
}

// Config wires a Gateway.
type Config struct {
	Providers   ProviderLookup
	Collections CollectionGate
	Fetcher     transport.Fetcher

	// Recorder is optional; nil disables auditing.
	Recorder audit.Recorder

	Logger hclog.Logger
}

// Gateway is the request orchestrator. It holds no mutable state and is safe
// for concurrent use.
type Gateway struct {
	providers   ProviderLookup
	collections CollectionGate
	fetcher     transport.Fetcher
	recorder    audit.Recorder
	logger      hclog.Logger
}

// New validates cfg and returns a Gateway.
func New(cfg Config) (*Gateway, error) {
	if cfg.Providers == nil {
		return nil, fmt.Errorf("provider registry is required")
	}
	if cfg.Collections == nil {
		return nil, fmt.Errorf("collection allowlist is required")
	}
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	return &Gateway{
		providers:   cfg.Providers,
		collections: cfg.Collections,
		fetcher:     cfg.Fetcher,
		recorder:    cfg.Recorder,
		logger:      cfg.Logger.Named("gateway"),
	}, nil
}

// Handle runs collection validation, provider lookup, translation, the
// backend call and normalization in that order. It never returns an error:
// every failure becomes a failure envelope.
func (g *Gateway) Handle(ctx context.Context, collection, providerID string, q query.Query) Result {
	start := time.Now()
	res := g.handle(ctx, uuid.NewString(), collection, providerID, q)
	g.record(ctx, res, collection, providerID, time.Since(start))
	return res
}

func (g *Gateway) handle(ctx context.Context, requestID, collection, providerID string, q query.Query) Result {
	log := g.logger.With("request_id", requestID, "provider", providerID, "collection", collection)

	if !g.collections.IsAllowed(collection) {
		return fail(requestID, KindValidation, fmt.Sprintf("Invalid collection: %s", collection))
	}

	cfg, ok := g.providers.Lookup(providerID)
	if !ok {
		return fail(requestID, KindValidation, fmt.Sprintf("Provider %s not found", providerID))
	}

	pagination := query.NewPagination(q.Pagination.Page, q.Pagination.Limit)
	q.Pagination = pagination

	req, err := directus.BuildRequest(collection, cfg, q)
	if err != nil {
		log.Error("failed to build backend request", "error", err)
		return fail(requestID, KindTransport, err.Error())
	}

	log.Info("backend request", "url", req.LogURL())

	start := time.Now()
	// Inbound cancellation does not reach the backend; only the transport
	// timeout bounds the call.
	resp, err := g.fetcher.Fetch(context.WithoutCancel(ctx), req.URL.String(), req.Header)
	elapsed := time.Since(start)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, transport.ErrTimeout) {
			msg = fmt.Sprintf("request to provider %s timed out%s",
				providerID, strings.TrimPrefix(err.Error(), transport.ErrTimeout.Error()))
		}
		log.Error("backend error", "error", msg, "elapsed", elapsed)
		return fail(requestID, KindTransport, msg)
	}

	if !resp.OK() {
		backendErr := directus.NewBackendError(resp.StatusCode, resp.Body)
		log.Error("backend error",
			"status", resp.StatusCode,
			"error", backendErr.Error(),
			"body", excerpt(resp.Body),
			"elapsed", elapsed)
		return fail(requestID, KindTransport, backendErr.Error())
	}

	out, err := directus.Normalize(resp.Body, pagination)
	if err != nil {
		log.Error("backend error", "status", resp.StatusCode, "error", err, "body", excerpt(resp.Body), "elapsed", elapsed)
		return fail(requestID, KindTransport, err.Error())
	}

	log.Info("backend response",
		"status", resp.StatusCode,
		"total_items", out.Pagination.TotalItems,
		"records", len(out.Data),
		"elapsed", elapsed)

	return Result{RequestID: requestID, Kind: KindOK, Response: out}
}

func (g *Gateway) record(ctx context.Context, res Result, collection, providerID string, elapsed time.Duration) {
	if g.recorder == nil {
		return
	}

	entry := &audit.RequestLog{
		RequestID:  res.RequestID,
		ProviderID: providerID,
		Collection: collection,
		Outcome:    string(res.Kind),
		StatusCode: res.Kind.HTTPStatus(),
		DurationMs: elapsed.Milliseconds(),
		Error:      res.Response.Error,
	}
	if res.Response.Pagination != nil {
		entry.TotalItems = res.Response.Pagination.TotalItems
	}

	// The inbound request may already be cancelled; the audit row is still wanted.
	if err := g.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		g.logger.Warn("failed to record audit entry", "request_id", res.RequestID, "error", err)
	}
}

func fail(requestID string, kind Kind, msg string) Result {
	return Result{RequestID: requestID, Kind: kind, Response: envelope.Fail(msg)}
}

const maxLoggedBody = 2048

func excerpt(body []byte) string {
	if len(body) > maxLoggedBody {
		return string(body[:maxLoggedBody]) + "...(truncated)"
	}
	return string(body)
}
