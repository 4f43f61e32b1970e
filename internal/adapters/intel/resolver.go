package intel

import (
	"context"
	"fmt"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"
)

const defaultDNSServer = "8.8.8.8:53"

// DNSResolver resolves domains to IPv4 addresses with a bounded per-query
// timeout.
type DNSResolver struct {
	client *dns.Client
	server string
	logger *zap.Logger
}

// NewDNSResolver creates a resolver against the given DNS server
// ("host:port"); an empty server falls back to a public resolver.
func NewDNSResolver(server string, timeout time.Duration, logger *zap.Logger) *DNSResolver {
	if server == "" {
		server = defaultDNSServer
	}
	return &DNSResolver{
		client: &dns.Client{Timeout: timeout},
		server: server,
		logger: logger,
	}
}

// LookupIP resolves the first A record for a domain.
func (r *DNSResolver) LookupIP(ctx context.Context, domain string) (string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeA)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return "", fmt.Errorf("dns query failed: %w", err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("dns query returned %s", dns.RcodeToString[resp.Rcode])
	}

	for _, answer := range resp.Answer {
		if a, ok := answer.(*dns.A); ok {
			return a.A.String(), nil
		}
	}
	return "", fmt.Errorf("no A record for %s", domain)
}
