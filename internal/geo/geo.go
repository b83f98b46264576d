package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"musd-rewards-watcher/internal/ttlcache"
)

const countryCacheKey = "user-country"

// Decision is the outcome of an eligibility evaluation. UserCountry is
// empty when resolution failed; per the fail-closed policy an unresolved
// country is always blocked.
type Decision struct {
	UserCountry    string
	IsBlocked      bool
	BlockedRegions []string
	Err            string
}

// Options parameterise the gate.
type Options struct {
	Endpoint string
	CacheTTL time.Duration
	Timeout  time.Duration
	Now      func() time.Time
}

// Gate resolves the caller's country against a geolocation endpoint and
// evaluates blocked-region membership.
type Gate struct {
	opts   Options
	client *http.Client
	cache  *ttlcache.Cache[string]
	logger zerolog.Logger
}

// NewGate constructs a gate.
func NewGate(opts Options, logger zerolog.Logger) *Gate {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Gate{
		opts:   opts,
		client: &http.Client{Timeout: timeout},
		cache:  ttlcache.New[string](ttl, opts.Now),
		logger: logger.With().Str("component", "geo_gate").Logger(),
	}
}

// ResolveEligibility returns the blocking decision for the caller. The
// resolved country is cached for the TTL window; within it no network call
// is made. Resolution failure yields an unresolved (blocked) decision with
// the error message surfaced, and never displaces a valid cached entry.
func (g *Gate) ResolveEligibility(ctx context.Context, blockedRegions []string) Decision {
	country, err := g.country(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Aborted lookups are a no-op, not an error state.
			return Decision{IsBlocked: true, BlockedRegions: blockedRegions}
		}
		g.logger.Warn().Err(err).Msg("geolocation lookup failed")
		return Decision{IsBlocked: true, BlockedRegions: blockedRegions, Err: err.Error()}
	}

	return Decision{
		UserCountry:    country,
		IsBlocked:      IsGeoBlocked(country, blockedRegions),
		BlockedRegions: blockedRegions,
	}
}

// Refresh clears the cached country and forces a re-fetch.
func (g *Gate) Refresh(ctx context.Context, blockedRegions []string) Decision {
	g.cache.Delete(countryCacheKey)
	return g.ResolveEligibility(ctx, blockedRegions)
}

func (g *Gate) country(ctx context.Context) (string, error) {
	if cached, ok := g.cache.Get(countryCacheKey); ok {
		return cached, nil
	}

	if g.opts.Endpoint == "" {
		return "", errors.New("geolocation endpoint not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.opts.Endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("geolocation error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	country := strings.TrimSpace(string(body))
	if country == "" {
		return "", errors.New("geolocation returned empty country")
	}

	g.cache.Set(countryCacheKey, country)
	return country, nil
}

// IsGeoBlocked evaluates blocked-region membership. An empty or
// unresolvable country is always blocked. A bare country code (length <= 2)
// in the blocked list also blocks that country's subdivisions, so blocking
// "GB" blocks "GB-ENG"; the reverse does not hold: blocking "US-NY" does
// not block bare "US".
func IsGeoBlocked(country string, blockedRegions []string) bool {
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		return true
	}
	for _, region := range blockedRegions {
		region = strings.ToUpper(strings.TrimSpace(region))
		if region == "" {
			continue
		}
		if country == region {
			return true
		}
		if len(region) <= 2 && strings.HasPrefix(country, region+"-") {
			return true
		}
	}
	return false
}
