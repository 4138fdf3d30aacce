// Package client holds thin typed clients for the remote services the
// checkout flow coordinates with. Each client owns its request/response
// shapes; sequencing lives in the service layer.
package client

import (
	"context"
	"net/http"
)

// HTTPDoer is the interface for executing HTTP requests. Both
// httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}
