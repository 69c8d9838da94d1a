package tikakit

import (
	"context"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// ============================================================================
// RestrictedSource Decorator
// ============================================================================

// RestrictedSource wraps a Source and refuses references outside a Policy.
// Services that accept references from untrusted callers use it to keep them
// away from arbitrary local files or internal hosts.
//
// Example:
//
//	policy := tikakit.Policy{
//	    AllowSchemes:  []string{"https"},
//	    AllowPatterns: []string{"https://docs.example.com/**"},
//	}
//	src, err := tikakit.NewRestrictedSource(webSource, policy)
//
//	// Opening anything else returns an error wrapping ErrNotAllowed
type RestrictedSource struct {
	source   Source
	policy   Policy
	schemes  map[string]bool
	patterns []glob.Glob
}

// Policy lists what a RestrictedSource lets through. Empty lists allow
// everything.
type Policy struct {
	// AllowSchemes lists permitted reference schemes
	AllowSchemes []string

	// AllowPatterns lists glob patterns over the canonical reference form
	// "scheme://host/path". "*" does not cross "/", "**" does.
	AllowPatterns []string

	// OnDenied is called when a reference is rejected. If it returns nil the
	// reference is allowed after all.
	OnDenied func(ref *Reference, err error) error
}

// NewRestrictedSource compiles policy and wraps source with it.
func NewRestrictedSource(source Source, policy Policy) (*RestrictedSource, error) {
	if source == nil {
		return nil, ErrNilSource
	}

	r := &RestrictedSource{source: source, policy: policy}

	if len(policy.AllowSchemes) > 0 {
		r.schemes = make(map[string]bool, len(policy.AllowSchemes))
		for _, s := range policy.AllowSchemes {
			r.schemes[strings.ToLower(strings.TrimSpace(s))] = true
		}
	}

	for _, p := range policy.AllowPatterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid reference pattern %q: %w", p, err)
		}
		r.patterns = append(r.patterns, g)
	}

	return r, nil
}

// Unwrap returns the underlying Source.
func (r *RestrictedSource) Unwrap() Source {
	return r.source
}

// Allowed reports whether ref passes the policy.
func (r *RestrictedSource) Allowed(ref *Reference) error {
	if r.schemes != nil && !r.schemes[ref.Scheme] {
		return r.deny(ref, fmt.Errorf("%w: scheme %s", ErrNotAllowed, ref.Scheme))
	}

	if len(r.patterns) == 0 {
		return nil
	}
	canonical := ref.Canonical()
	for _, g := range r.patterns {
		if g.Match(canonical) {
			return nil
		}
	}
	return r.deny(ref, fmt.Errorf("%w: %s", ErrNotAllowed, canonical))
}

func (r *RestrictedSource) deny(ref *Reference, err error) error {
	if r.policy.OnDenied != nil {
		return r.policy.OnDenied(ref, err)
	}
	return err
}

// Open opens ref when the policy allows it. The policy travels in ctx so
// sources that follow redirects can check every hop with CheckReference.
func (r *RestrictedSource) Open(ctx context.Context, ref *Reference) (*Document, error) {
	if err := r.Allowed(ref); err != nil {
		return nil, err
	}
	return r.source.Open(WithReferenceCheck(ctx, r.Allowed), ref)
}

// ReferenceCheck decides whether a reference may be opened
type ReferenceCheck func(ref *Reference) error

type referenceCheckKey struct{}

// WithReferenceCheck returns a context carrying check. Checks already in
// ctx still apply.
func WithReferenceCheck(ctx context.Context, check ReferenceCheck) context.Context {
	if prev, ok := ctx.Value(referenceCheckKey{}).(ReferenceCheck); ok {
		inner := check
		check = func(ref *Reference) error {
			if err := prev(ref); err != nil {
				return err
			}
			return inner(ref)
		}
	}
	return context.WithValue(ctx, referenceCheckKey{}, check)
}

// CheckReference runs the checks carried by ctx against raw. It returns nil
// when ctx carries none.
func CheckReference(ctx context.Context, raw string) error {
	check, ok := ctx.Value(referenceCheckKey{}).(ReferenceCheck)
	if !ok {
		return nil
	}
	ref, err := ParseReference(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotAllowed, err)
	}
	return check(ref)
}

var _ Source = (*RestrictedSource)(nil)
