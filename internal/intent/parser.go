// Package intent turns free-text course queries into structured Intent
// values. Two interchangeable strategies exist: a deterministic rule
// parser that is always available, and an LLM-backed parser that may
// fail and is never trusted to be the only path.
package intent

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/uicourseai/courseai-backend/internal/model"
)

// Parser converts one free-text query into a structured Intent.
type Parser interface {
	Parse(ctx context.Context, text string) (model.Intent, error)
}

// Resolver composes the remote and local strategies. The remote parser is
// attempted first when the request allows it; any remote failure falls back
// to the rule parser, so Resolve itself never fails.
type Resolver struct {
	local  Parser
	remote Parser // nil when LLM extraction is disabled
	log    zerolog.Logger
}

// NewResolver builds a Resolver. remote may be nil.
func NewResolver(local, remote Parser, log zerolog.Logger) *Resolver {
	return &Resolver{
		local:  local,
		remote: remote,
		log:    log.With().Str("component", "intent_resolver").Logger(),
	}
}

// Resolve parses text and reports whether the LLM path produced the result.
func (r *Resolver) Resolve(ctx context.Context, text string, allowRemote bool) (model.Intent, bool) {
	if allowRemote && r.remote != nil {
		it, err := r.remote.Parse(ctx, text)
		if err == nil {
			return it, true
		}
		r.log.Warn().Err(err).Msg("LLM intent extraction failed, using rule parser")
	}

	it, err := r.local.Parse(ctx, text)
	if err != nil {
		// The rule parser cannot fail today; guard anyway so the
		// pipeline degrades to a zero-information intent.
		r.log.Error().Err(err).Msg("rule parser failed")
		return model.NewIntent(), false
	}
	return it, false
}
