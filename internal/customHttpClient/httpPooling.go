package customHttpClient

import (
	"net/http"
	"time"

	"github.com/akolanti/DocAssist/internal/config"
)

// one pooled transport shared by the embedding and generation clients
var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// New returns a client on the shared transport. A zero timeout leaves
// deadlines to the request context.
func New(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: customTransport,
		Timeout:   timeout,
	}
}
