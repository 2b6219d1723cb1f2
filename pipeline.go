package goShield

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/goShield/hostpolicy"
	"github.com/MrEthical07/goShield/sanitize"
	"github.com/MrEthical07/goShield/session"
	"github.com/MrEthical07/goShield/token"
)

// snapshot is one immutable compiled configuration. Handle reads exactly one
// snapshot per request; Reload swaps whole snapshots so readers never see
// partial state.
type snapshot struct {
	cfg      Config
	hosts    *hostpolicy.Policy
	sanitize sanitize.Policy
	headers  []HeaderPair
}

func compileSnapshot(cfg Config) *snapshot {
	s := &snapshot{
		cfg:   cfg,
		hosts: hostpolicy.New(cfg.Hosts.Patterns, cfg.Hosts.Bypass),
		sanitize: sanitize.Policy{
			Enabled:    cfg.Sanitize.Enabled,
			FailClosed: cfg.Sanitize.FailClosed,
		},
	}

	if !cfg.Headers.Disabled {
		csp := cfg.Headers.ContentSecurityPolicy
		if csp == "" {
			csp = defaultContentSecurityPolicy
		}
		frame := cfg.Headers.FrameOptions
		if frame == "" {
			frame = "DENY"
		}
		s.headers = append(s.headers,
			HeaderPair{Name: "Content-Security-Policy", Value: csp},
			HeaderPair{Name: "X-Content-Type-Options", Value: "nosniff"},
			HeaderPair{Name: "X-Frame-Options", Value: frame},
		)
		s.headers = append(s.headers, cfg.Headers.Extra...)
	}

	return s
}

// Pipeline defines a public type used by goShield APIs.
//
// Pipeline instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Pipeline struct {
	snap    atomic.Pointer[snapshot]
	store   session.Store
	logger  *zap.Logger
	metrics *Metrics
	audit   *auditDispatcher
	closed  atomic.Bool
}

// Handle runs req through every security stage and, if all pass, dispatches
// it to handler exactly once. The returned response always carries the
// injected security headers, rejections included. A non-nil error is returned
// only for pipeline misuse or context cancellation, never for a rejected
// request.
func (p *Pipeline) Handle(ctx context.Context, req *Request, handler Handler) (*Response, error) {
	if p == nil {
		return nil, ErrPipelineNotReady
	}
	if p.closed.Load() {
		return nil, ErrPipelineClosed
	}
	if req == nil {
		return nil, errors.New("nil request")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	snap := p.snap.Load()
	start := time.Now()
	p.metrics.Inc(MetricRequests)

	resp := p.run(ctx, snap, req, handler)

	injectHeaders(snap, resp)
	p.metrics.Observe(MetricHandleLatency, time.Since(start))

	return resp, nil
}

func (p *Pipeline) run(ctx context.Context, snap *snapshot, req *Request, handler Handler) *Response {
	if !snap.hosts.Allowed(req.Host) {
		p.metrics.Inc(MetricHostRejected)
		p.auditEvent(ctx, req, AuditHostRejected, ErrHostRejected.Error())
		p.logger.Warn("host rejected",
			zap.String("host", req.Host),
			zap.String("method", req.Method),
		)
		return reject(http.StatusBadRequest, "host not allowed: "+req.Host)
	}

	unsafe := !SafeMethod(req.Method)
	csrfOn := snap.cfg.CSRF.Enabled

	// One store read per request. Its result serves both the CSRF check and
	// first-touch issuance.
	var stored string
	var storeErr error
	if csrfOn && req.SessionID != "" {
		stored, storeErr = p.store.Token(ctx, req.SessionID)
	}

	if unsafe && csrfOn {
		if req.SessionID == "" {
			p.metrics.Inc(MetricCsrfRejected)
			p.auditEvent(ctx, req, AuditCsrfRejected, "no session")
			return reject(http.StatusForbidden, ErrCsrfRejected.Error())
		}

		if storeErr != nil && !errors.Is(storeErr, session.ErrNoToken) {
			// Fail closed: an unreachable store must not let unsafe
			// requests through.
			p.metrics.Inc(MetricStoreFailure)
			p.auditEvent(ctx, req, AuditStoreFailure, storeErr.Error())
			p.logger.Error("session store failure during CSRF check", zap.Error(storeErr))
			return reject(http.StatusForbidden, ErrCsrfRejected.Error())
		}

		presented := presentedToken(req)
		if !verifyPresented(stored, presented) {
			p.metrics.Inc(MetricCsrfRejected)
			p.auditEvent(ctx, req, AuditCsrfRejected, ErrCsrfRejected.Error())
			return reject(http.StatusForbidden, ErrCsrfRejected.Error())
		}
		p.metrics.Inc(MetricCsrfVerified)
	}

	var issuedMasked string
	if csrfOn && req.SessionID != "" && storeErr != nil {
		if errors.Is(storeErr, session.ErrNoToken) {
			issuedMasked = p.issueToken(ctx, snap, req)
		} else {
			// Safe request with an unreachable store: nothing to verify,
			// nothing to issue.
			p.metrics.Inc(MetricStoreFailure)
			p.logger.Warn("session store failure, skipping token issuance", zap.Error(storeErr))
		}
	}

	dispatched := *req
	if snap.sanitize.Enabled && len(req.Body) > 0 {
		out, handled, err := sanitize.Body(req.ContentType, req.Body)
		switch {
		case handled:
			dispatched.Body = out
			p.metrics.Inc(MetricBodySanitized)
		case snap.sanitize.FailClosed:
			p.metrics.Inc(MetricBodyRejected)
			p.auditEvent(ctx, req, AuditBodyRejected, req.ContentType)
			return reject(http.StatusUnsupportedMediaType, ErrBodyRejected.Error())
		default:
			p.metrics.Inc(MetricSanitizeBypassed)
			p.auditEvent(ctx, req, AuditSanitizeBypassed, req.ContentType)
			p.logger.Info("body sanitization bypassed",
				zap.String("content_type", req.ContentType),
				zap.Error(err),
			)
		}
	}

	resp := handler(&dispatched)
	if resp == nil {
		resp = &Response{Status: http.StatusOK}
	}
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}

	if unsafe && csrfOn && snap.cfg.CSRF.RotateOnSuccess &&
		req.SessionID != "" && resp.Status < http.StatusBadRequest {
		if masked := p.rotateToken(ctx, snap, req); masked != "" {
			resp.Header.Set(TokenHeader, masked)
		}
	} else if issuedMasked != "" && resp.Header.Get(TokenHeader) == "" {
		resp.Header.Set(TokenHeader, issuedMasked)
	}

	return resp
}

// issueToken generates, stores, and masks a first-touch token. Failures are
// logged and leave the session without a token; the next request retries.
func (p *Pipeline) issueToken(ctx context.Context, snap *snapshot, req *Request) string {
	tok, err := token.Generate(snap.cfg.SecretKey, req.SessionID)
	if err != nil {
		p.logger.Error("token generation failed", zap.Error(err))
		return ""
	}
	if err := p.store.SetToken(ctx, req.SessionID, tok); err != nil {
		p.metrics.Inc(MetricStoreFailure)
		p.logger.Error("token store failed", zap.Error(err))
		return ""
	}
	masked, err := token.Mask(tok)
	if err != nil {
		p.logger.Error("token mask failed", zap.Error(err))
		return ""
	}
	p.metrics.Inc(MetricTokenIssued)
	p.auditEventOK(ctx, req, AuditTokenIssued)
	return masked
}

// rotateToken replaces the session token after a successful unsafe request.
// A storage failure keeps the previous token valid rather than failing the
// already-completed request.
func (p *Pipeline) rotateToken(ctx context.Context, snap *snapshot, req *Request) string {
	tok, err := token.Generate(snap.cfg.SecretKey, req.SessionID)
	if err != nil {
		p.logger.Error("token generation failed", zap.Error(err))
		return ""
	}
	if err := p.store.SetToken(ctx, req.SessionID, tok); err != nil {
		p.metrics.Inc(MetricStoreFailure)
		p.auditEvent(ctx, req, AuditStoreFailure, err.Error())
		p.logger.Error("token rotation store failed", zap.Error(err))
		return ""
	}
	masked, err := token.Mask(tok)
	if err != nil {
		p.logger.Error("token mask failed", zap.Error(err))
		return ""
	}
	p.metrics.Inc(MetricTokenRotated)
	p.auditEventOK(ctx, req, AuditTokenRotated)
	return masked
}

func reject(status int, msg string) *Response {
	h := make(http.Header)
	h.Set("Content-Type", "text/plain; charset=utf-8")
	return &Response{
		Status: status,
		Header: h,
		Body:   []byte(msg),
	}
}

func injectHeaders(snap *snapshot, resp *Response) {
	if resp == nil || len(snap.headers) == 0 {
		return
	}
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	for _, h := range snap.headers {
		if resp.Header.Get(h.Name) == "" {
			resp.Header.Set(h.Name, h.Value)
		}
	}
}

func (p *Pipeline) auditEvent(ctx context.Context, req *Request, eventType, errMsg string) {
	if p.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		SessionID: req.SessionID,
		Host:      req.Host,
		Method:    req.Method,
		Error:     errMsg,
	}
	if ip := clientIPFromContext(ctx); ip != "" {
		event.Metadata = map[string]string{"client_ip": ip}
	}
	p.audit.Emit(ctx, event)
}

func (p *Pipeline) auditEventOK(ctx context.Context, req *Request, eventType string) {
	if p.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		SessionID: req.SessionID,
		Host:      req.Host,
		Method:    req.Method,
		Success:   true,
	}
	p.audit.Emit(ctx, event)
}

// Reload describes the reload operation and its observable behavior.
//
// Reload may return an error when input validation, dependency calls, or security checks fail.
// Reload does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (p *Pipeline) Reload(cfg Config) error {
	if p == nil {
		return ErrPipelineNotReady
	}

	cfg = cloneConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Metrics and audit wiring are fixed at Build; only the request-path
	// configuration swaps.
	p.snap.Store(compileSnapshot(cfg))
	p.logger.Info("configuration reloaded")

	return nil
}

// Metrics returns the pipeline's counter set for exporters.
func (p *Pipeline) Metrics() *Metrics {
	if p == nil {
		return nil
	}
	return p.metrics
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (p *Pipeline) MetricsSnapshot() MetricsSnapshot {
	if p == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}, Histograms: map[MetricID][]uint64{}}
	}
	return p.metrics.Snapshot()
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (p *Pipeline) AuditDropped() uint64 {
	if p == nil {
		return 0
	}
	return p.audit.Dropped()
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (p *Pipeline) Close() {
	if p == nil {
		return
	}
	if p.closed.CompareAndSwap(false, true) {
		p.audit.Close()
	}
}
