package osint

import (
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ipv4Regex matches strict dotted-quad IPv4 literals.
var ipv4Regex = regexp.MustCompile(`^((25[0-5]|2[0-4]\d|[01]?\d?\d)(\.|$)){4}$`)

// IsIPv4 reports whether host is a literal dotted-quad IPv4 address.
func IsIPv4(host string) bool {
	return ipv4Regex.MatchString(host)
}

// NormalizeHost reduces a raw URL to its canonical host: a literal IP stays
// as-is, a domain collapses to its registrable (public-suffix aware) form,
// and anything the suffix list cannot place falls back to the raw host.
func NormalizeHost(rawURL string) string {
	u := rawURL
	if !strings.Contains(u, "://") {
		u = "http://" + u
	}
	host := strings.SplitN(strings.SplitN(u, "://", 2)[1], "/", 2)[0]
	host = strings.ToLower(host)
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}

	if IsIPv4(host) {
		return host
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil || registrable == "" {
		return host
	}
	return registrable
}

// hostGroup is one pending enrichment unit: every input URL that normalized
// to the same host.
type hostGroup struct {
	host string
	urls []string
}

// groupByHost deduplicates and filters the input to http(s) URLs, then
// groups them by normalized host preserving first-seen order.
func groupByHost(urls []string) []hostGroup {
	seen := map[string]struct{}{}
	index := map[string]int{}
	var groups []hostGroup

	for _, raw := range urls {
		u := strings.TrimSpace(raw)
		if u == "" {
			continue
		}
		lowered := strings.ToLower(u)
		if !strings.HasPrefix(lowered, "http://") && !strings.HasPrefix(lowered, "https://") {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}

		host := NormalizeHost(u)
		if i, ok := index[host]; ok {
			groups[i].urls = append(groups[i].urls, u)
			continue
		}
		index[host] = len(groups)
		groups = append(groups, hostGroup{host: host, urls: []string{u}})
	}

	return groups
}
