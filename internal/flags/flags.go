package flags

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"musd-rewards-watcher/internal/allowlist"
)

// Compiled defaults. Every field has exactly one default; a remote payload
// overrides only the fields it carries.
const (
	DefaultConversionEnabled = false
	DefaultEducationRequired = true
)

// DefaultBlockedRegions applies when the remote configuration is
// unreachable. Empty: geo blocking is driven entirely by remote config,
// and the geolocation fail-closed rule still blocks unresolved countries.
var DefaultBlockedRegions = []string{}

// Flags is the fully resolved remote configuration.
type Flags struct {
	ConversionEnabled bool
	EducationRequired bool
	BlockedRegions    []string
	Allowlist         allowlist.Lists
	Blocklist         allowlist.Lists
}

// Defaults returns the compiled default flag set.
func Defaults() Flags {
	return Flags{
		ConversionEnabled: DefaultConversionEnabled,
		EducationRequired: DefaultEducationRequired,
		BlockedRegions:    DefaultBlockedRegions,
	}
}

type payload struct {
	ConversionEnabled *bool           `json:"conversionEnabled"`
	EducationRequired *bool           `json:"educationRequired"`
	BlockedRegions    []string        `json:"blockedRegions"`
	Allowlist         allowlist.Lists `json:"tokenAllowlist"`
	Blocklist         allowlist.Lists `json:"tokenBlocklist"`
}

// Options parameterise the resolver.
type Options struct {
	Endpoint string
	Timeout  time.Duration
}

// Resolver fetches all remote flags in one call, merging the payload over
// the defaults field-wise.
type Resolver struct {
	opts   Options
	client *http.Client
	logger zerolog.Logger
}

// NewResolver constructs a flag resolver.
func NewResolver(opts Options, logger zerolog.Logger) *Resolver {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Resolver{
		opts:   opts,
		client: &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "flag_resolver").Logger(),
	}
}

// Resolve returns the current flag set. Any fetch or decode failure falls
// back to the defaults; the resolver never errors.
func (r *Resolver) Resolve(ctx context.Context) Flags {
	resolved := Defaults()
	if r.opts.Endpoint == "" {
		return resolved
	}

	p, err := r.fetch(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("flag fetch failed, using defaults")
		return resolved
	}

	if p.ConversionEnabled != nil {
		resolved.ConversionEnabled = *p.ConversionEnabled
	}
	if p.EducationRequired != nil {
		resolved.EducationRequired = *p.EducationRequired
	}
	if p.BlockedRegions != nil {
		resolved.BlockedRegions = p.BlockedRegions
	}
	if p.Allowlist != nil {
		resolved.Allowlist = p.Allowlist
	}
	if p.Blocklist != nil {
		resolved.Blocklist = p.Blocklist
	}
	return resolved
}

func (r *Resolver) fetch(ctx context.Context) (*payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.opts.Endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("flag endpoint error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode flag payload: %w", err)
	}
	return &p, nil
}
