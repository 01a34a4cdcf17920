package pdp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"arbiter-hq/arbiter/pkg/apl/ast"
	"arbiter-hq/arbiter/pkg/apl/parser"
	"arbiter-hq/arbiter/pkg/policy/cache"
	"arbiter-hq/arbiter/pkg/policy/engine"
	"arbiter-hq/arbiter/pkg/policy/manager"
	"arbiter-hq/arbiter/pkg/telemetry/logging"
	"arbiter-hq/arbiter/pkg/telemetry/metrics"
)

// Request is one decision request against a named policy set.
type Request struct {
	// PolicySet names the policy set to evaluate against.
	PolicySet string `json:"policy_set"`

	// Subject scopes the decision to one subject. Empty means the
	// resolution considers all decision atoms regardless of subject.
	Subject string `json:"subject,omitempty"`

	// Facts are ground clause texts describing the request context,
	// e.g. `role("alice", "admin")`.
	Facts []string `json:"facts"`

	// BypassCache forces a fresh evaluation even on a cache hit.
	BypassCache bool `json:"bypass_cache,omitempty"`
}

// BadRequestError reports a malformed decision request.
type BadRequestError struct {
	Message string
	Cause   error
}

func (e *BadRequestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bad request: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("bad request: %s", e.Message)
}

func (e *BadRequestError) Unwrap() error {
	return e.Cause
}

// PDP is the decision point facade.
type PDP struct {
	manager *manager.Manager
	engine  *engine.Engine
	cache   *cache.DecisionCache
	metrics *metrics.Collector
	logger  *slog.Logger
}

// Option configures a PDP.
type Option func(*PDP)

// WithCache enables the decision cache.
func WithCache(c *cache.DecisionCache) Option {
	return func(p *PDP) { p.cache = c }
}

// WithMetrics enables metrics recording.
func WithMetrics(m *metrics.Collector) Option {
	return func(p *PDP) { p.metrics = m }
}

// New creates a decision point over the given policy manager.
func New(mgr *manager.Manager, logger *slog.Logger, opts ...Option) *PDP {
	if logger == nil {
		logger = slog.Default()
	}
	p := &PDP{
		manager: mgr,
		engine:  engine.New(logger),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Decide evaluates one decision request and returns the verdict with its
// obligations and explanation.
func (p *PDP) Decide(ctx context.Context, req Request) (*engine.Decision, error) {
	start := time.Now()
	ctx = logging.WithPolicySet(ctx, req.PolicySet)

	if req.PolicySet == "" {
		p.recordError(req.PolicySet, "bad_request")
		return nil, &BadRequestError{Message: "policy_set is required"}
	}

	facts, err := parseFacts(req.Facts)
	if err != nil {
		p.recordError(req.PolicySet, "bad_request")
		return nil, err
	}

	compiled, err := p.manager.Get(req.PolicySet)
	if err != nil {
		p.recordError(req.PolicySet, "not_found")
		return nil, err
	}

	var fingerprint string
	if p.cache != nil {
		fingerprint = cache.Fingerprint(compiled.Name, compiled.Version, req.Subject, facts)
		if !req.BypassCache {
			if decision, ok := p.cache.Get(fingerprint); ok {
				p.recordHit(ctx, req, decision, time.Since(start))
				return decision, nil
			}
		}
		if p.metrics != nil {
			p.metrics.RecordCacheMiss()
		}
	}

	decision, err := p.engine.Evaluate(ctx, compiled, facts, req.Subject)
	if err != nil {
		p.recordError(req.PolicySet, "evaluation")
		return nil, err
	}

	if p.cache != nil {
		p.cache.Put(fingerprint, decision)
		if p.metrics != nil {
			p.metrics.UpdateCacheSize(p.cache.Size())
		}
	}

	elapsed := time.Since(start)
	if p.metrics != nil {
		p.metrics.RecordDecision(req.PolicySet, string(decision.Verdict), elapsed, false)
	}
	p.logger.DebugContext(ctx, "Decision evaluated",
		"verdict", decision.Verdict,
		"facts", len(facts),
		"duration_us", elapsed.Microseconds(),
	)
	return decision, nil
}

// PolicySets returns summaries of the currently published policy sets.
func (p *PDP) PolicySets() []manager.SetInfo {
	return p.manager.List()
}

func (p *PDP) recordHit(ctx context.Context, req Request, decision *engine.Decision, elapsed time.Duration) {
	if p.metrics != nil {
		p.metrics.RecordCacheHit()
		p.metrics.RecordDecision(req.PolicySet, string(decision.Verdict), elapsed, true)
	}
	p.logger.DebugContext(ctx, "Decision served from cache",
		"verdict", decision.Verdict,
		"duration_us", elapsed.Microseconds(),
	)
}

func (p *PDP) recordError(policySet, errorType string) {
	if p.metrics != nil {
		p.metrics.RecordDecisionError(policySet, errorType)
	}
}

// parseFacts parses request fact texts into ground atoms.
func parseFacts(texts []string) ([]ast.Atom, error) {
	facts := make([]ast.Atom, 0, len(texts))
	for i, text := range texts {
		atom, err := parser.ParseFact(text, ast.Location{Line: i + 1})
		if err != nil {
			return nil, &BadRequestError{
				Message: fmt.Sprintf("invalid fact %q", text),
				Cause:   err,
			}
		}
		facts = append(facts, atom)
	}
	return facts, nil
}
