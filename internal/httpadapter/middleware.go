// Package httpadapter puts a verifier on the HTTP boundary: middleware
// that intercepts agent responses (or inbound requests) and a small
// verification service with history and metrics.
package httpadapter

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/qwed-ai/responseguard/internal/redact"
	"github.com/qwed-ai/responseguard/internal/verify"
)

// Options configures the middleware and the verification service.
type Options struct {
	// BlockOnFailure replaces an unverified downstream response with an
	// error payload instead of letting it through.
	BlockOnFailure bool

	// SkipPaths are path prefixes that bypass verification entirely.
	SkipPaths []string

	// Verbose emits one log line per verification with redacted content.
	Verbose bool

	Logger  *zap.Logger
	Metrics *Metrics
	History *History

	// OnBlocked, when set, observes every blocked result. With
	// BlockOnFailure off this is the only signal a block produces.
	OnBlocked func(verify.Result)
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) skip(path string) bool {
	for _, prefix := range o.SkipPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

type errorDetail struct {
	Guard   string `json:"guard"`
	Message string `json:"message"`
}

type errorPayload struct {
	Error   string        `json:"error"`
	Code    string        `json:"code"`
	Details []errorDetail `json:"details"`
}

func failureDetails(result verify.Result) []errorDetail {
	var details []errorDetail
	for _, v := range result.Verdicts {
		if !v.Passed {
			details = append(details, errorDetail{Guard: v.GuardName, Message: v.Message})
		}
	}
	return details
}

// bodyRecorder buffers the downstream handler's response so it can be
// verified before anything reaches the client.
type bodyRecorder struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newBodyRecorder() *bodyRecorder {
	return &bodyRecorder{header: make(http.Header), status: http.StatusOK}
}

func (r *bodyRecorder) Header() http.Header         { return r.header }
func (r *bodyRecorder) WriteHeader(status int)      { r.status = status }
func (r *bodyRecorder) Write(b []byte) (int, error) { return r.body.Write(b) }

func (r *bodyRecorder) replay(w http.ResponseWriter) {
	for key, values := range r.header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(r.status)
	w.Write(r.body.Bytes())
}

// Middleware verifies every downstream response body. An unverified result
// is replaced with HTTP 502 and an error payload when BlockOnFailure is on;
// otherwise the original body passes through and OnBlocked observes blocked
// results.
func Middleware(v *verify.Verifier, opts Options) func(http.Handler) http.Handler {
	logger := opts.logger().Named("response-verify")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			rec := newBodyRecorder()
			next.ServeHTTP(rec, r)

			result, elapsed := runVerification(v, rec.body.Bytes(), nil)
			opts.Metrics.observe(result, elapsed.Seconds())
			opts.History.Add(result)
			logVerification(logger, opts, result, r.URL.Path, rec.body.String())

			if result.Blocked && opts.OnBlocked != nil {
				opts.OnBlocked(result)
			}
			if !result.Verified && opts.BlockOnFailure {
				writeJSON(w, http.StatusBadGateway, errorPayload{
					Error:   "Response failed verification",
					Code:    "response_verification_failed",
					Details: failureDetails(result),
				})
				return
			}

			rec.replay(w)
		})
	}
}

// RequestMiddleware verifies inbound request bodies. Unverified requests
// stop at the boundary with HTTP 422; everything else reaches the handler
// with the body intact.
func RequestMiddleware(v *verify.Verifier, opts Options) func(http.Handler) http.Handler {
	logger := opts.logger().Named("request-verify")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.skip(r.URL.Path) || r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			r.Body.Close()
			if err != nil {
				http.Error(w, "failed to read request body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			result, elapsed := runVerification(v, body, nil)
			opts.Metrics.observe(result, elapsed.Seconds())
			opts.History.Add(result)
			logVerification(logger, opts, result, r.URL.Path, string(body))

			if result.Blocked && opts.OnBlocked != nil {
				opts.OnBlocked(result)
			}
			if !result.Verified {
				writeJSON(w, http.StatusUnprocessableEntity, errorPayload{
					Error:   "Request failed verification",
					Code:    "request_verification_failed",
					Details: failureDetails(result),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// runVerification decodes the body when it is JSON and hands the verifier
// whatever came off the wire otherwise.
func runVerification(v *verify.Verifier, body []byte, ctx map[string]any) (verify.Result, time.Duration) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		raw = string(body)
	}

	start := time.Now()
	result := v.Verify(raw, ctx)
	return result, time.Since(start)
}

func logVerification(logger *zap.Logger, opts Options, result verify.Result, path, body string) {
	if !opts.Verbose {
		return
	}
	logger.Info("verification",
		zap.String("verification_id", result.ID),
		zap.String("path", path),
		zap.Bool("verified", result.Verified),
		zap.Bool("blocked", result.Blocked),
		zap.Int("guards_failed", result.GuardsFailed),
		zap.String("content", redact.Redact(body)))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
