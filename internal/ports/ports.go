package ports

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"storyharvest/internal/domain"
)

// PageFetcher retrieves a web page and returns it as a parsed document.
// Retry policy lives behind this interface; a returned error means the page
// is definitively unavailable and callers should treat it as "no content".
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// TextGenerator produces completion text from a system and user prompt.
// Implementations retry transient failures internally and propagate the final
// error; degradation is the caller's responsibility.
type TextGenerator interface {
	Generate(ctx context.Context, system, user string, temperature float64) (string, error)
}

// CategoryScraper walks a category listing page and extracts its articles.
type CategoryScraper interface {
	ScrapeCategory(ctx context.Context, name, url string, maxArticles int) ([]domain.Article, error)
}

// ArticleProcessor runs the AI enrichment stages over a scraped article.
type ArticleProcessor interface {
	Process(ctx context.Context, article domain.Article) (domain.Article, error)
}

// ContentStore persists processed articles as content documents.
type ContentStore interface {
	SaveArticle(article domain.Article) (string, error)
	SaveArticles(articles []domain.Article) []string
	Summarize(articles []domain.Article) domain.Summary
}
