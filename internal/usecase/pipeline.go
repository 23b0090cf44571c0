package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"storyharvest/internal/domain"
	"storyharvest/internal/ports"
)

// DefaultCategory labels articles scraped in single-URL mode without an
// explicit category.
const DefaultCategory = "其他"

// PipelineDeps wires the driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Scraper    ports.CategoryScraper
	Processor  ports.ArticleProcessor
	Store      ports.ContentStore
	Categories []domain.Category
	Logger     *slog.Logger
}

// Pipeline implements the scrape → AI-process → emit workflow. Per-article
// failures are logged and the batch continues; no article is dropped because
// a processing stage failed.
type Pipeline struct {
	scraper    ports.CategoryScraper
	processor  ports.ArticleProcessor
	store      ports.ContentStore
	categories []domain.Category
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		scraper:    deps.Scraper,
		processor:  deps.Processor,
		store:      deps.Store,
		categories: deps.Categories,
		logger:     deps.Logger,
	}
}

// ScrapeAll walks every configured category, processes and persists the
// articles, and returns the run summary. An empty category list is a
// configuration failure.
func (p *Pipeline) ScrapeAll(ctx context.Context, maxPerCategory int) (domain.Summary, error) {
	if len(p.categories) == 0 {
		return domain.Summary{}, fmt.Errorf("no categories configured")
	}

	var all []domain.Article
	for _, cat := range p.categories {
		all = append(all, p.scrapeCategory(ctx, cat.Name, cat.URL, maxPerCategory)...)
	}

	return p.persist(all), nil
}

// ScrapeURL treats a single listing URL as one category and runs the same
// workflow over it.
func (p *Pipeline) ScrapeURL(ctx context.Context, listingURL, category string, maxArticles int) (domain.Summary, error) {
	if category == "" {
		category = DefaultCategory
	}
	articles := p.scrapeCategory(ctx, category, listingURL, maxArticles)
	return p.persist(articles), nil
}

// scrapeCategory fetches one category and runs the AI stages per article. An
// error out of the processor still yields a usable article: the translated
// fields fall back to the raw source values.
func (p *Pipeline) scrapeCategory(ctx context.Context, name, listingURL string, maxArticles int) []domain.Article {
	articles, err := p.scraper.ScrapeCategory(ctx, name, listingURL, maxArticles)
	if err != nil {
		p.logger.Error("category scrape failed", "category", name, "error", err)
		return nil
	}
	if len(articles) == 0 {
		p.logger.Warn("category produced no articles", "category", name)
		return nil
	}

	processed := make([]domain.Article, 0, len(articles))
	for i, article := range articles {
		p.logger.Info("ai processing", "index", i+1, "total", len(articles))

		result, err := p.processor.Process(ctx, article)
		if err != nil {
			p.logger.Error("ai processing failed, keeping source fields", "url", article.URL, "error", err)
			article.TitleZH = article.Title
			article.ContentZH = article.Content
			result = article
		}
		processed = append(processed, result)
	}
	return processed
}

func (p *Pipeline) persist(articles []domain.Article) domain.Summary {
	saved := p.store.SaveArticles(articles)
	summary := p.store.Summarize(articles)
	summary.SavedFiles = len(saved)
	return summary
}
