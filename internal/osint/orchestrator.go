package osint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mvidal/phishguard/internal/core"
)

const defaultMaxParallelHosts = 4

// Enricher fans a set of URLs out to the threat-intel providers, one
// provider round-trip per normalized host per run, with every sub-lookup
// independently cached. Provider failures degrade into tagged summaries and
// never abort enrichment of other providers or hosts.
type Enricher struct {
	cache       core.CacheRepository
	store       core.DocumentStore
	resolver    core.Resolver
	reputation  core.ReputationProvider
	geo         core.GeoProvider
	whois       core.WhoisProvider
	blocklist   core.BlocklistProvider
	phishReport core.PhishReportProvider
	logger      *zap.Logger
	clock       func() time.Time
	maxParallel int
}

// NewEnricher creates a new enrichment orchestrator.
func NewEnricher(
	cache core.CacheRepository,
	store core.DocumentStore,
	resolver core.Resolver,
	reputation core.ReputationProvider,
	geo core.GeoProvider,
	whois core.WhoisProvider,
	blocklist core.BlocklistProvider,
	phishReport core.PhishReportProvider,
	logger *zap.Logger,
) *Enricher {
	return &Enricher{
		cache:       cache,
		store:       store,
		resolver:    resolver,
		reputation:  reputation,
		geo:         geo,
		whois:       whois,
		blocklist:   blocklist,
		phishReport: phishReport,
		logger:      logger,
		clock:       time.Now,
		maxParallel: defaultMaxParallelHosts,
	}
}

// WithClock overrides the orchestrator clock. Used by tests.
func (e *Enricher) WithClock(clock func() time.Time) *Enricher {
	e.clock = clock
	return e
}

// Enrich resolves and enriches every distinct host among the URLs. The
// returned artifacts follow first-seen host order. When analysisID is set the
// artifacts replace any prior enrichment stored on that record.
func (e *Enricher) Enrich(ctx context.Context, urls []string, analysisID, owner string) ([]core.Artifact, error) {
	groups := groupByHost(urls)
	artifacts := make([]core.Artifact, len(groups))

	// Hosts are independent and enriched concurrently; lookups for one host
	// stay serialized so the cache check-then-write per key never races with
	// itself within a run.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxParallel)
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			artifacts[i] = e.enrichHost(gctx, group)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if analysisID != "" {
		if err := e.store.ReplaceArtifacts(ctx, analysisID, owner, artifacts); err != nil {
			return nil, fmt.Errorf("failed to persist artifacts: %w", err)
		}
	}

	e.logger.Info("Enrichment completed",
		zap.Int("urls", len(urls)),
		zap.Int("hosts", len(groups)),
		zap.String("analysis_id", analysisID))

	return artifacts, nil
}

type resolvedIP struct {
	IP    string `json:"ip,omitempty"`
	Error string `json:"error,omitempty"`
}

// enrichHost assembles the artifact for one host group.
func (e *Enricher) enrichHost(ctx context.Context, group hostGroup) core.Artifact {
	isIP := IsIPv4(group.host)

	artifact := core.Artifact{
		URL:         group.urls[0],
		OtherURLs:   group.urls[1:],
		GeneratedAt: e.clock().UTC(),
	}
	if isIP {
		artifact.IP = group.host
	} else {
		artifact.Domain = group.host
	}

	allCached := true

	if isIP {
		allCached = e.lookup(ctx, "vt:ip:"+group.host, &artifact.Reputation, func() any {
			return e.reputation.IPReport(ctx, group.host)
		}) && allCached
	} else {
		allCached = e.lookup(ctx, "vt:domain:"+group.host, &artifact.Reputation, func() any {
			return e.reputation.DomainReport(ctx, group.host)
		}) && allCached

		var resolved resolvedIP
		allCached = e.lookup(ctx, "dns:a:"+group.host, &resolved, func() any {
			ip, err := e.resolver.LookupIP(ctx, group.host)
			if err != nil {
				return resolvedIP{Error: err.Error()}
			}
			return resolvedIP{IP: ip}
		}) && allCached
		artifact.ResolvedIP = resolved.IP
	}

	geoIP := artifact.IP
	if geoIP == "" {
		geoIP = artifact.ResolvedIP
	}
	if geoIP != "" {
		allCached = e.lookup(ctx, "geo:ip:"+geoIP, &artifact.Geo, func() any {
			return e.geo.Locate(ctx, geoIP)
		}) && allCached
	} else {
		artifact.Geo = core.GeoSummary{Error: "no_ip"}
	}

	if isIP {
		artifact.Whois = core.WhoisSummary{Error: "ip_host"}
	} else {
		allCached = e.lookup(ctx, "whois:domain:"+group.host, &artifact.Whois, func() any {
			return e.whois.Lookup(ctx, group.host)
		}) && allCached
	}

	allCached = e.lookup(ctx, "bl:host:"+group.host, &artifact.Blocklist, func() any {
		return e.blocklist.Contains(ctx, group.host)
	}) && allCached

	allCached = e.lookup(ctx, "phish:url:"+artifact.URL, &artifact.PhishReport, func() any {
		return e.phishReport.CheckURL(ctx, artifact.URL)
	}) && allCached

	if allCached {
		artifact.Source = core.SourceCache
	} else {
		artifact.Source = core.SourceLive
	}
	return artifact
}

// lookup serves dest from the cache when the key is live, otherwise runs
// fetch and upserts its result. Returns whether the cache served the value.
// A corrupt cached payload counts as a miss.
func (e *Enricher) lookup(ctx context.Context, key string, dest any, fetch func() any) bool {
	if entry, err := e.cache.Get(ctx, key); err == nil {
		if err := json.Unmarshal(entry.Payload, dest); err == nil {
			return true
		}
		e.logger.Warn("Discarding corrupt cache payload", zap.String("key", key))
	}

	payload, err := json.Marshal(fetch())
	if err != nil {
		e.logger.Error("Failed to encode provider result", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		e.logger.Error("Failed to decode provider result", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := e.cache.Set(ctx, key, payload); err != nil {
		e.logger.Error("Failed to update cache", zap.String("key", key), zap.Error(err))
	}
	return false
}
