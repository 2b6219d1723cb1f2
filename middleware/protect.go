package middleware

import (
	"bytes"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/google/uuid"

	goShield "github.com/MrEthical07/goShield"
)

// Options controls the session cookie the adapter manages.
type Options struct {
	// CookieName names the session cookie. Defaults to "session_id".
	CookieName string
	// CookiePath defaults to "/".
	CookiePath string
	// CookieMaxAge in seconds. Zero means a session cookie.
	CookieMaxAge int
	// Secure marks the cookie for HTTPS-only transport.
	Secure bool
	// MaxBodyBytes caps how much request body is read into memory before the
	// pipeline sees it. Defaults to 1 MiB; larger bodies are rejected with
	// 413.
	MaxBodyBytes int64
}

const defaultMaxBodyBytes = 1 << 20

// Protect wraps handlers with the pipeline using default options.
func Protect(p *goShield.Pipeline) func(http.Handler) http.Handler {
	return ProtectWithOptions(p, Options{})
}

// ProtectWithOptions wraps handlers with the pipeline. Each request gets a
// session cookie if it has none, runs through Pipeline.Handle, and reaches
// next only if every security stage passes.
func ProtectWithOptions(p *goShield.Pipeline, opts Options) func(http.Handler) http.Handler {
	if opts.CookieName == "" {
		opts.CookieName = "session_id"
	}
	if opts.CookiePath == "" {
		opts.CookiePath = "/"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			sid := sessionID(w, r, opts)

			body, err := readBody(r, opts.MaxBodyBytes)
			if errors.Is(err, errBodyTooLarge) {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			if err != nil {
				// The client aborted or the body stream failed mid-read.
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}

			req := &goShield.Request{
				Method:      r.Method,
				Host:        r.Host,
				Header:      r.Header,
				ContentType: r.Header.Get("Content-Type"),
				Body:        body,
				SessionID:   sid,
			}

			ctx := r.Context()
			if host, _, splitErr := net.SplitHostPort(r.RemoteAddr); splitErr == nil {
				ctx = goShield.WithClientIP(ctx, host)
			} else if r.RemoteAddr != "" {
				ctx = goShield.WithClientIP(ctx, r.RemoteAddr)
			}

			resp, err := p.Handle(ctx, req, func(dispatched *goShield.Request) *goShield.Response {
				buf := newBufferWriter()
				r2 := r.WithContext(ctx)
				r2.Body = io.NopCloser(bytes.NewReader(dispatched.Body))
				r2.ContentLength = int64(len(dispatched.Body))

				next.ServeHTTP(buf, r2)

				return &goShield.Response{
					Status: buf.status,
					Header: buf.header,
					Body:   buf.body.Bytes(),
				}
			})
			if err != nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			for name, values := range resp.Header {
				for _, v := range values {
					w.Header().Add(name, v)
				}
			}
			w.WriteHeader(resp.Status)
			_, _ = w.Write(resp.Body)
		})
	}
}

func sessionID(w http.ResponseWriter, r *http.Request, opts Options) string {
	if c, err := r.Cookie(opts.CookieName); err == nil && c.Value != "" {
		return c.Value
	}

	sid := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     opts.CookieName,
		Value:    sid,
		Path:     opts.CookiePath,
		MaxAge:   opts.CookieMaxAge,
		Secure:   opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

var errBodyTooLarge = errors.New("request body too large")

func readBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, errBodyTooLarge
	}
	return body, nil
}

// bufferWriter captures the wrapped handler's response so the pipeline can
// finish rotation and header injection before anything reaches the client.
type bufferWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
	wrote  bool
}

func newBufferWriter() *bufferWriter {
	return &bufferWriter{
		header: make(http.Header),
		status: http.StatusOK,
	}
}

func (b *bufferWriter) Header() http.Header {
	return b.header
}

func (b *bufferWriter) WriteHeader(status int) {
	if b.wrote {
		return
	}
	b.wrote = true
	b.status = status
}

func (b *bufferWriter) Write(p []byte) (int, error) {
	if !b.wrote {
		b.WriteHeader(http.StatusOK)
	}
	return b.body.Write(p)
}
