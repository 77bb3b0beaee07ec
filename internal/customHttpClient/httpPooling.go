package customHttpClient

import (
	"net/http"
	"sync"

	"github.com/dmarti/chatbridge/internal/config"
)

var (
	once   sync.Once
	shared *http.Client
)

// Shared returns the pooled client the raw-HTTP provider adapters reuse so
// repeated completion calls don't pay the connection setup every time.
// Per-call deadlines come from context, not a client timeout.
func Shared() *http.Client {
	once.Do(func() {
		shared = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        config.MaxIdleConns,
				MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
				IdleConnTimeout:     config.IdleConnTimeout,
			},
		}
	})
	return shared
}
