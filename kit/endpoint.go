package kit

import "context"

// Endpoint is a transport-agnostic handler: decode a typed request, run
// the business logic, return a typed response. Both HTTP and MCP
// transports adapt down to this shape.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behavior (logging,
// auth, rate limiting) without the endpoint itself knowing about it.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares in the order given: the first middleware is
// outermost, so it sees the request first and the response last.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
