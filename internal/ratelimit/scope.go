package ratelimit

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Scope groups operations that share a budget.
type Scope string

const (
	// ScopeRead covers safe methods, including redirects.
	ScopeRead Scope = "read"
	// ScopeWrite covers link creation and deletion.
	ScopeWrite Scope = "write"
	// ScopeAuth covers signup and login, where guessing is the concern.
	ScopeAuth Scope = "auth"
	// ScopeExempt is never given a limiter.
	ScopeExempt Scope = "exempt"
)

// MetadataKey marks an operation's scope in huma.Operation.Metadata.
const MetadataKey = "rateLimitScope"

// Limiters maps each scope to its limiter. A scope without an entry is not throttled.
type Limiters map[Scope]Limiter

// ScopeOf returns the scope recorded on the matched operation, falling back to the
// request method.
func ScopeOf(ctx huma.Context) Scope {
	if op := ctx.Operation(); op != nil {
		if scope, ok := op.Metadata[MetadataKey].(Scope); ok {
			return scope
		}
	}

	switch ctx.Method() {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ScopeRead
	default:
		return ScopeWrite
	}
}
