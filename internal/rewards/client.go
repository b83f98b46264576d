package rewards

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"musd-rewards-watcher/internal/ttlcache"
)

// Token identifies the reward asset as reported by the rewards API.
type Token struct {
	Address  string          `json:"address"`
	ChainID  uint64          `json:"chainId"`
	Symbol   string          `json:"symbol"`
	Decimals int32           `json:"decimals"`
	Price    decimal.Decimal `json:"price"`
}

// Record is a claimable-reward entry. Amount is the cumulative total ever
// earned in base units; Claimed is the API's last-known paid-out amount and
// may lag on-chain truth immediately after a claim.
type Record struct {
	Token     Token    `json:"token"`
	Amount    string   `json:"amount"`
	Claimed   string   `json:"claimed"`
	Proofs    []string `json:"proofs"`
	Recipient string   `json:"recipient"`
}

type page struct {
	Rewards []Record `json:"rewards"`
}

// Options parameterise the rewards client.
type Options struct {
	BaseURL string
	// RewardTokenAddress is the primary reward-bearing stablecoin. Rewards
	// accrue by holding it anywhere but are claimable on one chain only, so
	// requests for it are pinned to ClaimChainID.
	RewardTokenAddress string
	// TestTokenAddress designates the test reward-campaign token; requests
	// for it carry a test-mode query flag.
	TestTokenAddress string
	// ClaimChainID is the hex chain id rewards are claimable on.
	ClaimChainID string
	CacheTTL     time.Duration
	Timeout      time.Duration
	Now          func() time.Time
}

// Client fetches claimable-reward records with a short-lived success-only
// cache.
type Client struct {
	opts   Options
	client *http.Client
	cache  *ttlcache.Cache[*Record]
	logger zerolog.Logger
}

// NewClient constructs a rewards client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Client{
		opts:   opts,
		client: &http.Client{Timeout: timeout},
		cache:  ttlcache.New[*Record](ttl, opts.Now),
		logger: logger.With().Str("component", "rewards_client").Logger(),
	}
}

// FetchReward queries the rewards API for the user's reward on the given
// token, scanning every page of the response for a case-insensitive token
// address match. Returns nil when no page matches. Errors (including
// non-2xx, reported with the HTTP status) propagate to the caller and are
// never cached; only successful responses populate the cache.
func (c *Client) FetchReward(ctx context.Context, user string, chainIDs []string, token string) (*Record, error) {
	if c.opts.BaseURL == "" {
		return nil, fmt.Errorf("rewards api base url not configured")
	}
	if user == "" || token == "" {
		return nil, fmt.Errorf("user and token addresses required")
	}

	// 主奖励币只能在固定链上领取：查询链在缓存键和请求构造之前重映射。
	if strings.EqualFold(token, c.opts.RewardTokenAddress) && c.opts.ClaimChainID != "" {
		chainIDs = []string{c.opts.ClaimChainID}
	}

	decimalIDs, err := toDecimalChainIDs(chainIDs)
	if err != nil {
		return nil, err
	}

	key := cacheKey(user, token, decimalIDs)
	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}

	endpoint, err := c.buildURL(user, token, decimalIDs)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("rewards api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var pages []page
	if err := json.Unmarshal(body, &pages); err != nil {
		return nil, fmt.Errorf("decode rewards response: %w", err)
	}

	match := findReward(pages, token)
	c.cache.Set(key, match)
	return match, nil
}

// ClearCache drops every cached reward response. Called after a claim
// confirms so the next fetch observes post-claim truth.
func (c *Client) ClearCache() {
	c.cache.Clear()
}

func (c *Client) buildURL(user, token string, decimalIDs []string) (string, error) {
	base, err := url.Parse(strings.TrimRight(c.opts.BaseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse rewards base url: %w", err)
	}
	base.Path += "/users/" + user + "/rewards"

	q := url.Values{}
	q.Set("chainId", strings.Join(decimalIDs, ","))
	if c.opts.TestTokenAddress != "" && strings.EqualFold(token, c.opts.TestTokenAddress) {
		q.Set("test", "true")
	}
	base.RawQuery = q.Encode()
	return base.String(), nil
}

func findReward(pages []page, token string) *Record {
	for _, p := range pages {
		for i := range p.Rewards {
			if strings.EqualFold(p.Rewards[i].Token.Address, token) {
				return &p.Rewards[i]
			}
		}
	}
	return nil
}

// toDecimalChainIDs converts hex chain ids to exact decimal strings,
// sorted for cache-key stability.
func toDecimalChainIDs(chainIDs []string) ([]string, error) {
	if len(chainIDs) == 0 {
		return nil, fmt.Errorf("at least one chain id required")
	}
	out := make([]string, 0, len(chainIDs))
	for _, id := range chainIDs {
		trimmed := strings.TrimPrefix(strings.TrimSpace(id), "0x")
		parsed, err := strconv.ParseUint(trimmed, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("parse chain id %q: %w", id, err)
		}
		out = append(out, strconv.FormatUint(parsed, 10))
	}
	sort.Strings(out)
	return out, nil
}

func cacheKey(user, token string, decimalIDs []string) string {
	return strings.ToLower(user) + "|" + strings.ToLower(token) + "|" + strings.Join(decimalIDs, ",")
}
