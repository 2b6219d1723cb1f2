package test

import (
	"context"
	"net/http"
	"testing"

	goShield "github.com/MrEthical07/goShield"
	"github.com/MrEthical07/goShield/middleware"
	"github.com/MrEthical07/goShield/session"
	"github.com/MrEthical07/goShield/token"
)

// This test intentionally guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = goShield.New

	var _ *goShield.Pipeline
	var _ goShield.Config
	var _ goShield.Request
	var _ goShield.Response
	var _ goShield.Handler
	var _ goShield.AuditSink
	var _ goShield.MetricsSnapshot
	var _ session.Store

	var _ error = goShield.ErrHostRejected
	var _ error = goShield.ErrCsrfRejected
	var _ error = goShield.ErrBodyRejected
	var _ error = goShield.ErrPipelineNotReady
	var _ error = session.ErrNoToken
	var _ error = session.ErrStoreUnavailable

	var _ func(*goShield.Pipeline) func(http.Handler) http.Handler = middleware.Protect

	var _ func(*goShield.Pipeline, context.Context, *goShield.Request, goShield.Handler) (*goShield.Response, error) = (*goShield.Pipeline).Handle
	var _ func(*goShield.Pipeline, goShield.Config) error = (*goShield.Pipeline).Reload
	var _ func(*goShield.Pipeline) = (*goShield.Pipeline).Close

	var _ func([]byte, string) (string, error) = token.Generate
	var _ func(string, string) bool = token.Verify
	var _ func(string) (string, error) = token.Mask
	var _ func(string) (string, error) = token.Unmask
}
