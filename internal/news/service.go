package news

import (
	"context"
	"strings"
	"sync"
	"time"

	"raven-trader/internal/interfaces"
	"raven-trader/internal/logger"
)

// assetNames maps trading symbols to the names headlines actually use.
var assetNames = map[string][]string{
	"BTC":   {"btc", "bitcoin"},
	"ETH":   {"eth", "ethereum"},
	"DOGE":  {"doge", "dogecoin"},
	"SOL":   {"sol", "solana"},
	"XRP":   {"xrp", "ripple"},
	"TRUMP": {"trump"},
	"PEPE":  {"pepe"},
	"BONK":  {"bonk"},
}

// Service caches one scrape of the front pages and serves asset-relevant
// headlines from it. A scrape is shared across all assets in a cycle.
type Service struct {
	scraper      *Scraper
	ttl          time.Duration
	maxPerSource int

	mu        sync.Mutex
	headlines []string
	fetchedAt time.Time
}

var _ interfaces.Headlines = (*Service)(nil)

type ServiceConfig struct {
	CacheTTL       time.Duration
	MaxPerSource   int
	ScraperTimeout time.Duration
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		CacheTTL:       30 * time.Minute,
		MaxPerSource:   15,
		ScraperTimeout: 30 * time.Second,
	}
}

func NewService(cfg ServiceConfig) *Service {
	return &Service{
		scraper:      NewScraper(cfg.ScraperTimeout),
		ttl:          cfg.CacheTTL,
		maxPerSource: cfg.MaxPerSource,
	}
}

// Recent returns up to max headlines, asset-relevant ones first. Never
// returns an error from scraping itself; an empty result just means no
// context for the sentiment prompt.
func (s *Service) Recent(ctx context.Context, assets []string, max int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.headlines == nil || time.Since(s.fetchedAt) > s.ttl {
		s.headlines = s.scraper.Fetch(ctx, s.maxPerSource)
		s.fetchedAt = time.Now()
	} else {
		logger.Debug(ctx, "Using cached headlines", "age_minutes", time.Since(s.fetchedAt).Minutes())
	}

	return rank(s.headlines, assets, max), nil
}

// rank puts headlines mentioning a tracked asset ahead of general market
// news, preserving scrape order within each group.
func rank(headlines, assets []string, max int) []string {
	if max <= 0 || len(headlines) == 0 {
		return nil
	}

	var relevant, general []string
	for _, h := range headlines {
		if mentionsAny(h, assets) {
			relevant = append(relevant, h)
		} else {
			general = append(general, h)
		}
	}

	out := append(relevant, general...)
	if len(out) > max {
		out = out[:max]
	}
	return out
}

func mentionsAny(headline string, assets []string) bool {
	lower := strings.ToLower(headline)
	for _, a := range assets {
		names := assetNames[strings.ToUpper(a)]
		if len(names) == 0 {
			names = []string{strings.ToLower(a)}
		}
		for _, n := range names {
			if strings.Contains(lower, n) {
				return true
			}
		}
	}
	return false
}
