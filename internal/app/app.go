package app

import (
	"context"
	"fmt"
	"log/slog"

	"storyharvest/internal/config"
	"storyharvest/internal/content"
	"storyharvest/internal/domain"
	"storyharvest/internal/infrastructure/fetch"
	"storyharvest/internal/infrastructure/llm"
	"storyharvest/internal/scraper"
	"storyharvest/internal/usecase"
)

const fetchRetries = 3

// Application wires configuration into the scrape pipeline.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
}

// New builds every adapter and the orchestration pipeline. Construction-time
// failures (missing credential, unknown provider, bad base URL) abort here.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	fetcher := fetch.New(cfg.Website.Headers, fetchRetries, baseLogger.With("component", "fetcher"))

	scr, err := scraper.New(
		cfg.Website.BaseURL,
		fetcher,
		toSelectors(cfg.Website.Selectors),
		cfg.Website.MaxPages,
		baseLogger.With("component", "scraper"),
	)
	if err != nil {
		return nil, fmt.Errorf("build scraper: %w", err)
	}

	gen, err := llm.New(cfg.AI, baseLogger.With("component", "llm"))
	if err != nil {
		return nil, fmt.Errorf("build llm client: %w", err)
	}

	store, err := content.NewStore(cfg.OutputDir, toTagRules(cfg.Tags), baseLogger.With("component", "store"))
	if err != nil {
		return nil, fmt.Errorf("build content store: %w", err)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Scraper:    scr,
		Processor:  usecase.NewProcessor(gen, cfg.AI.SkipTranslation, baseLogger.With("component", "processor")),
		Store:      store,
		Categories: toCategories(cfg.Website.Categories),
		Logger:     baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, pipeline: pipeline}, nil
}

// ScrapeAll runs the full configured-categories workflow.
func (a *Application) ScrapeAll(ctx context.Context, maxPerCategory int) (domain.Summary, error) {
	return a.pipeline.ScrapeAll(ctx, maxPerCategory)
}

// ScrapeURL runs the single-URL workflow under the given category label.
func (a *Application) ScrapeURL(ctx context.Context, listingURL, category string, maxArticles int) (domain.Summary, error) {
	return a.pipeline.ScrapeURL(ctx, listingURL, category, maxArticles)
}

func toSelectors(cfg config.SelectorConfig) scraper.Selectors {
	return scraper.Selectors{
		ArticleLink:    cfg.ArticleLink,
		ArticleTitle:   cfg.ArticleTitle,
		ArticleContent: cfg.ArticleContent,
		ArticleAuthor:  cfg.ArticleAuthor,
		ArticleDate:    cfg.ArticleDate,
	}
}

func toCategories(cfg []config.CategoryConfig) []domain.Category {
	categories := make([]domain.Category, 0, len(cfg))
	for _, cat := range cfg {
		categories = append(categories, domain.Category{Name: cat.Name, URL: cat.URL})
	}
	return categories
}

func toTagRules(cfg []config.TagRule) []content.TagRule {
	rules := make([]content.TagRule, 0, len(cfg))
	for _, rule := range cfg {
		rules = append(rules, content.TagRule{Theme: rule.Theme, Keywords: rule.Keywords})
	}
	return rules
}
