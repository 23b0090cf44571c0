package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyharvest/internal/domain"
)

type stubScraper struct {
	articles map[string][]domain.Article
	err      error
	calls    []string
}

func (s *stubScraper) ScrapeCategory(_ context.Context, name, url string, _ int) ([]domain.Article, error) {
	s.calls = append(s.calls, name+" "+url)
	if s.err != nil {
		return nil, s.err
	}
	return s.articles[name], nil
}

type stubProcessor struct {
	err       error
	processed int
}

func (p *stubProcessor) Process(_ context.Context, article domain.Article) (domain.Article, error) {
	p.processed++
	if p.err != nil {
		return domain.Article{}, p.err
	}
	article.TitleZH = "译：" + article.Title
	article.ContentZH = "译：" + article.Content
	return article, nil
}

type stubStore struct {
	saved []domain.Article
}

func (s *stubStore) SaveArticle(article domain.Article) (string, error) {
	s.saved = append(s.saved, article)
	return "file.md", nil
}

func (s *stubStore) SaveArticles(articles []domain.Article) []string {
	files := make([]string, 0, len(articles))
	for _, a := range articles {
		path, _ := s.SaveArticle(a)
		files = append(files, path)
	}
	return files
}

func (s *stubStore) Summarize(articles []domain.Article) domain.Summary {
	return domain.Summary{Total: len(articles)}
}

func newTestPipeline(scraper *stubScraper, processor *stubProcessor, store *stubStore, categories []domain.Category) *Pipeline {
	return NewPipeline(PipelineDeps{
		Scraper:    scraper,
		Processor:  processor,
		Store:      store,
		Categories: categories,
		Logger:     testLogger(),
	})
}

func TestScrapeAllNoCategories(t *testing.T) {
	p := newTestPipeline(&stubScraper{}, &stubProcessor{}, &stubStore{}, nil)

	_, err := p.ScrapeAll(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no categories configured")
}

func TestScrapeAllProcessesEveryCategory(t *testing.T) {
	scraper := &stubScraper{articles: map[string][]domain.Article{
		"融资": {{Title: "A", Content: "a"}, {Title: "B", Content: "b"}},
		"产品": {{Title: "C", Content: "c"}},
	}}
	processor := &stubProcessor{}
	store := &stubStore{}
	p := newTestPipeline(scraper, processor, store, []domain.Category{
		{Name: "融资", URL: "http://site.test/funding"},
		{Name: "产品", URL: "http://site.test/product"},
	})

	summary, err := p.ScrapeAll(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.SavedFiles)
	assert.Equal(t, 3, processor.processed)
	require.Len(t, store.saved, 3)
	assert.Equal(t, "译：A", store.saved[0].TitleZH)
	assert.Equal(t, []string{
		"融资 http://site.test/funding",
		"产品 http://site.test/product",
	}, scraper.calls)
}

func TestScrapeAllProcessorFailureKeepsArticle(t *testing.T) {
	scraper := &stubScraper{articles: map[string][]domain.Article{
		"融资": {{Title: "A", Content: "raw body"}},
	}}
	store := &stubStore{}
	p := newTestPipeline(scraper, &stubProcessor{err: fmt.Errorf("provider down")}, store,
		[]domain.Category{{Name: "融资", URL: "http://site.test/funding"}})

	summary, err := p.ScrapeAll(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SavedFiles)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "A", store.saved[0].TitleZH)
	assert.Equal(t, "raw body", store.saved[0].ContentZH)
}

func TestScrapeAllScraperFailureSkipsCategory(t *testing.T) {
	scraper := &stubScraper{err: fmt.Errorf("site unreachable")}
	store := &stubStore{}
	p := newTestPipeline(scraper, &stubProcessor{}, store,
		[]domain.Category{{Name: "融资", URL: "http://site.test/funding"}})

	summary, err := p.ScrapeAll(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.Empty(t, store.saved)
}

func TestScrapeURLDefaultsCategory(t *testing.T) {
	scraper := &stubScraper{articles: map[string][]domain.Article{
		DefaultCategory: {{Title: "A", Content: "a"}},
	}}
	store := &stubStore{}
	p := newTestPipeline(scraper, &stubProcessor{}, store, nil)

	summary, err := p.ScrapeURL(context.Background(), "http://site.test/list", "", 5)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SavedFiles)
	assert.Equal(t, []string{DefaultCategory + " http://site.test/list"}, scraper.calls)
}
