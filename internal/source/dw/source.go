package dw

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"news_digest/internal/domain"
)

const (
	SourceID   = "dw"
	SourceName = "Deutsche Welle"

	// Teaser blocks on a section listing page. Blocks matching the selector
	// but carrying no anchor are navigation chrome, not articles.
	teaserSelector = "div.teaser-data-wrap.col-12"

	// Sentinel used when a teaser has no time label. It deliberately matches
	// no date rule, so the candidate ends up outside any recency window.
	noDateLabel = "Date not available"
)

// Config holds the site endpoints and HTTP settings.
type Config struct {
	BaseURL     string
	SectionPath string
	Timeout     time.Duration
}

// Source scrapes article teasers and bodies from the news site.
type Source struct {
	httpClient  *http.Client
	baseURL     string
	sectionPath string
	logger      *slog.Logger
}

// New creates a new site source.
func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		sectionPath: cfg.SectionPath,
		logger:      logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns the human-readable name.
func (s *Source) Name() string {
	return SourceName
}

// FetchListing retrieves the section listing page and extracts candidate
// articles (title, link, date) in document order. Teasers without an anchor
// are skipped silently; a date label that cannot be normalized leaves the
// candidate with a zero Date and a logged warning.
func (s *Source) FetchListing(ctx context.Context, today time.Time) ([]domain.Article, error) {
	doc, err := s.fetchDocument(ctx, s.baseURL+s.sectionPath)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}

	var candidates []domain.Article
	doc.Find(teaserSelector).Each(func(_ int, block *goquery.Selection) {
		anchor := block.Find("a").First()
		if anchor.Length() == 0 {
			return
		}
		href, hasHref := anchor.Attr("href")
		if !hasHref {
			return
		}
		title := strings.TrimSpace(anchor.Text())

		label := noDateLabel
		if timeTag := block.Find("time").First(); timeTag.Length() > 0 {
			label = strings.TrimSpace(timeTag.Text())
		}

		date, ok := ParseDate(label, today)
		if !ok {
			s.logger.Warn("unable to parse date", "label", label, "title", title)
		}

		candidates = append(candidates, domain.Article{
			Title: title,
			Link:  href,
			Date:  date,
		})
	})

	s.logger.Debug("extracted listing", "candidates", len(candidates))
	return candidates, nil
}

// FetchBody retrieves an article page and concatenates the text of every
// paragraph element in document order. Paragraphs carry their own sentence
// punctuation, so no separator is inserted.
func (s *Source) FetchBody(ctx context.Context, link string) (string, error) {
	doc, err := s.fetchDocument(ctx, s.resolveURL(link))
	if err != nil {
		return "", fmt.Errorf("fetch body: %w", err)
	}

	var sb strings.Builder
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		sb.WriteString(p.Text())
	})

	return sb.String(), nil
}

func (s *Source) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsDigest/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (s *Source) resolveURL(link string) string {
	if strings.HasPrefix(link, "http") {
		return link
	}
	return s.baseURL + link
}
