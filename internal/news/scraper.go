package news

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"raven-trader/internal/logger"
)

// Scraper pulls headlines from crypto news front pages.
type Scraper struct {
	sources []Source
	timeout time.Duration
}

// Source is one news site front page and the selectors that find its
// headline list.
type Source struct {
	Name      string
	URL       string
	Container string // CSS selector for each headline block
	Title     string // selector for the headline text within a block
}

func defaultSources() []Source {
	return []Source{
		{
			Name:      "CoinDesk",
			URL:       "https://www.coindesk.com",
			Container: "div.article-card, article",
			Title:     "h2, h3, h4",
		},
		{
			Name:      "CoinTelegraph",
			URL:       "https://cointelegraph.com",
			Container: "article",
			Title:     "span.post-card__title, h2, h3",
		},
		{
			Name:      "Decrypt",
			URL:       "https://decrypt.co",
			Container: "article",
			Title:     "h2, h3, h4",
		},
	}
}

func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{
		sources: defaultSources(),
		timeout: timeout,
	}
}

// Fetch scrapes every source and returns deduplicated headline strings.
// Source failures are logged and skipped.
func (s *Scraper) Fetch(ctx context.Context, maxPerSource int) []string {
	var all []string
	seen := map[string]bool{}

	for _, src := range s.sources {
		headlines, err := s.fetchSource(ctx, src, maxPerSource)
		if err != nil {
			logger.Warn(ctx, "Headline source failed", "source", src.Name, "error", err.Error())
			continue
		}
		for _, h := range headlines {
			key := strings.ToLower(h)
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, h)
		}
	}
	logger.Debug(ctx, "Headlines scraped", "count", len(all))
	return all
}

func (s *Scraper) fetchSource(ctx context.Context, src Source, max int) ([]string, error) {
	var (
		headlines []string
		parseErr  error
	)

	c := colly.NewCollector(
		colly.AllowedDomains(hostname(src.URL)),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	})

	c.OnResponse(func(r *colly.Response) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			parseErr = err
			return
		}
		headlines = extractTitles(doc, src, max)
	})

	if err := c.Visit(src.URL); err != nil {
		return nil, err
	}
	c.Wait()
	if parseErr != nil {
		return nil, parseErr
	}
	return headlines, nil
}

// extractTitles walks the headline blocks of a parsed page. Short strings are
// navigation labels, not headlines.
func extractTitles(doc *goquery.Document, src Source, max int) []string {
	var out []string
	doc.Find(src.Container).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := collapseWhitespace(sel.Find(src.Title).First().Text())
		if title != "" && len(title) >= 15 {
			out = append(out, title)
		}
		return len(out) < max
	})
	return out
}

func hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
