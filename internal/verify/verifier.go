// Package verify runs a response through an ordered set of guards and
// aggregates their verdicts into a single result. Verification never
// returns an error: broken guards, unparsable responses, and policy
// failures all surface as verdict data.
package verify

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qwed-ai/responseguard/internal/guard"
	"github.com/qwed-ai/responseguard/internal/response"
)

// Result is the outcome of one verification run.
type Result struct {
	ID           string            `json:"id"`
	Verified     bool              `json:"verified"`
	Response     response.Response `json:"response"`
	GuardsPassed int               `json:"guards_passed"`
	GuardsFailed int               `json:"guards_failed"`
	Verdicts     []guard.Verdict   `json:"verdicts"`
	Blocked      bool              `json:"blocked"`
	BlockReason  string            `json:"block_reason,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
}

// Verifier evaluates guards in registration order. It is safe for
// concurrent use once built.
type Verifier struct {
	guards []guard.Guard
	strict bool
	logger *zap.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithGuards sets the default guard set, evaluated in the given order.
func WithGuards(guards ...guard.Guard) Option {
	return func(v *Verifier) { v.guards = guards }
}

// WithStrict toggles strict mode. Strict is the default: the first failed
// error-severity verdict marks the result blocked.
func WithStrict(strict bool) Option {
	return func(v *Verifier) { v.strict = strict }
}

// WithLogger sets the logger. The default is a nop logger.
func WithLogger(logger *zap.Logger) Option {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// New builds a Verifier. With no options it verifies everything trivially:
// zero guards, strict mode on.
func New(opts ...Option) *Verifier {
	v := &Verifier{strict: true, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Guards returns the default guard set in evaluation order.
func (v *Verifier) Guards() []guard.Guard {
	return v.guards
}

// Verify normalizes raw and evaluates every guard against it. All guards
// run even after a failure; strict mode only decides whether the first
// error-severity failure marks the result blocked.
func (v *Verifier) Verify(raw any, ctx map[string]any) Result {
	return v.verify(response.Normalize(raw), v.guards, ctx)
}

// VerifyWith is Verify with a caller-supplied guard set replacing the
// default one for this call.
func (v *Verifier) VerifyWith(raw any, guards []guard.Guard, ctx map[string]any) Result {
	if guards == nil {
		guards = v.guards
	}
	return v.verify(response.Normalize(raw), guards, ctx)
}

// VerifyToolCall synthesizes a tool-call response for a single proposed
// call and verifies it against the default guard set.
func (v *Verifier) VerifyToolCall(name string, args map[string]any, ctx map[string]any) Result {
	return v.VerifyToolCallWith(name, args, nil, ctx)
}

// VerifyToolCallWith is VerifyToolCall with a caller-supplied guard set; a
// nil slice falls back to the default one.
func (v *Verifier) VerifyToolCallWith(name string, args map[string]any, guards []guard.Guard, ctx map[string]any) Result {
	if guards == nil {
		guards = v.guards
	}
	resp := response.Response{
		"type":      response.TypeToolCall,
		"toolName":  name,
		"arguments": args,
	}
	return v.verify(resp, guards, ctx)
}

func (v *Verifier) verify(resp response.Response, guards []guard.Guard, ctx map[string]any) Result {
	result := Result{
		ID:        uuid.NewString(),
		Response:  resp,
		Timestamp: time.Now().UTC(),
	}

	for _, g := range guards {
		verdict := v.runGuard(g, resp, ctx)

		if verdict.Passed {
			result.GuardsPassed++
		} else {
			result.GuardsFailed++
			if v.strict && !result.Blocked && verdict.Severity == guard.SeverityError {
				result.Blocked = true
				result.BlockReason = fmt.Sprintf("%s: %s", verdict.GuardName, verdict.Message)
			}
		}
		result.Verdicts = append(result.Verdicts, verdict)

		v.logger.Debug("guard evaluated",
			zap.String("verification_id", result.ID),
			zap.String("guard", verdict.GuardName),
			zap.Bool("passed", verdict.Passed),
			zap.String("severity", string(verdict.Severity)))
	}

	result.Verified = result.GuardsFailed == 0
	return result
}

// runGuard evaluates one guard with panic containment. A panicking guard
// yields a failing error verdict instead of taking down the run.
func (v *Verifier) runGuard(g guard.Guard, resp response.Response, ctx map[string]any) (verdict guard.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Warn("guard panicked",
				zap.String("guard", g.Name()),
				zap.Any("panic", r))
			verdict = guard.Verdict{
				GuardName: g.Name(),
				Passed:    false,
				Message:   fmt.Sprintf("Guard error: %v", r),
				Severity:  guard.SeverityError,
			}
		}
	}()

	verdict = g.Check(resp, ctx)
	return normalizeVerdict(g, verdict)
}

// normalizeVerdict fills the gaps a sloppy guard implementation may leave:
// missing name, empty failure message, missing or inconsistent severity.
func normalizeVerdict(g guard.Guard, v guard.Verdict) guard.Verdict {
	if v.GuardName == "" {
		v.GuardName = g.Name()
	}
	if v.Message == "" {
		if v.Passed {
			v.Message = "Check passed"
		} else {
			v.Message = "Check failed"
		}
	}
	if v.Severity == "" {
		if v.Passed {
			v.Severity = guard.SeverityInfo
		} else {
			v.Severity = guard.SeverityError
		}
	}
	if !v.Passed && v.Severity == guard.SeverityInfo {
		v.Severity = guard.SeverityError
	}
	return v
}
