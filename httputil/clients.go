package httputil

import (
	"net/http"
	"net/url"
	"time"

	"dealsweep/config"
)

// Clients separates traffic to the leads API (optionally proxied) from
// traffic to our own backend (always direct).
type Clients struct {
	Leads   *http.Client
	Backend *http.Client
}

func NewClients(proxyCfg *config.ProxyConfig) *Clients {
	leads := &http.Client{Timeout: 30 * time.Second}

	if proxyCfg != nil && proxyCfg.URL != "" {
		if proxyURL, err := url.Parse(proxyCfg.URL); err == nil {
			leads.Transport = &http.Transport{
				Proxy:             http.ProxyURL(proxyURL),
				ForceAttemptHTTP2: false,
			}
		}
	}

	return &Clients{
		Leads:   leads,
		Backend: &http.Client{Timeout: 30 * time.Second},
	}
}
