package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"storyharvest/internal/domain"
	"storyharvest/internal/ports"
)

// NoTitle is the placeholder used when the title selector matches nothing.
const NoTitle = "无标题"

const politenessDelay = time.Second

// Selectors carries the CSS selectors for one site. Author and date may be
// empty, in which case the corresponding fields stay blank.
type Selectors struct {
	ArticleLink    string
	ArticleTitle   string
	ArticleContent string
	ArticleAuthor  string
	ArticleDate    string
}

// Scraper walks listing pages and extracts article data driven entirely by
// configured selectors. Selector misses degrade to empty or placeholder
// values; only a page-fetch failure short-circuits.
type Scraper struct {
	baseURL   *url.URL
	fetcher   ports.PageFetcher
	selectors Selectors
	maxPages  int
	logger    *slog.Logger
	sleep     func(time.Duration)
}

var _ ports.CategoryScraper = (*Scraper)(nil)

// New wires a Scraper against a site base URL used to resolve relative links.
func New(baseURL string, fetcher ports.PageFetcher, selectors Selectors, maxPages int, logger *slog.Logger) (*Scraper, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %s: %w", baseURL, err)
	}
	if maxPages < 1 {
		maxPages = 1
	}
	return &Scraper{
		baseURL:   parsed,
		fetcher:   fetcher,
		selectors: selectors,
		maxPages:  maxPages,
		logger:    logger,
		sleep:     time.Sleep,
	}, nil
}

// ExtractCategories pulls {name, url} pairs from a navigation page. Each
// matched element resolves a link either from its own href or from a
// descendant anchor; elements without a resolvable link are skipped.
func (s *Scraper) ExtractCategories(ctx context.Context, categoryURL, selector string) []domain.Category {
	doc, err := s.fetcher.Fetch(ctx, categoryURL)
	if err != nil {
		s.logger.Warn("category page unavailable", "url", categoryURL, "error", err)
		return nil
	}

	var categories []domain.Category
	doc.Find(selector).Each(func(_ int, el *goquery.Selection) {
		href, name, ok := resolveLink(el)
		if !ok {
			return
		}
		resolved := s.resolve(href)
		if resolved == "" {
			return
		}
		categories = append(categories, domain.Category{Name: name, URL: resolved})
	})

	s.logger.Info("categories discovered", "count", len(categories))
	return categories
}

// ExtractArticleLinks collects article URLs from a category listing,
// deduplicated in encounter order. With maxPages above one, a page-number
// query parameter is appended and pages are walked until the limit or the
// first failed fetch, with a politeness delay between page fetches.
func (s *Scraper) ExtractArticleLinks(ctx context.Context, categoryURL, selector string) []string {
	var links []string
	seen := map[string]struct{}{}

	for page := 1; page <= s.maxPages; page++ {
		pageURL := categoryURL
		if s.maxPages > 1 {
			built, err := buildPageURL(categoryURL, page)
			if err != nil {
				s.logger.Error("invalid category url", "url", categoryURL, "error", err)
				break
			}
			pageURL = built
		}

		doc, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			s.logger.Warn("stopping pagination", "page", page, "error", err)
			break
		}

		doc.Find(selector).Each(func(_ int, el *goquery.Selection) {
			href, _, ok := resolveLink(el)
			if !ok {
				return
			}
			resolved := s.resolve(href)
			if resolved == "" {
				return
			}
			if _, dup := seen[resolved]; dup {
				return
			}
			seen[resolved] = struct{}{}
			links = append(links, resolved)
		})

		s.logger.Info("listing page scanned", "page", page, "links", len(links))
		if page < s.maxPages {
			s.sleep(politenessDelay)
		}
	}

	return links
}

// ScrapeCategory fetches up to maxArticles articles from one category
// listing. Articles whose content extraction comes back empty are dropped;
// fetch failures skip the article and the walk continues.
func (s *Scraper) ScrapeCategory(ctx context.Context, name, categoryURL string, maxArticles int) ([]domain.Article, error) {
	s.logger.Info("scraping category", "category", name, "url", categoryURL)

	links := s.ExtractArticleLinks(ctx, categoryURL, s.selectors.ArticleLink)
	if maxArticles > 0 && len(links) > maxArticles {
		links = links[:maxArticles]
	}

	var articles []domain.Article
	for i, link := range links {
		s.logger.Info("fetching article", "index", i+1, "total", len(links), "url", link)

		doc, err := s.fetcher.Fetch(ctx, link)
		if err != nil {
			s.logger.Warn("skipping article", "url", link, "error", err)
		} else {
			article := s.extractArticle(doc, link)
			if article.Content != "" {
				article.Category = name
				articles = append(articles, article)
				s.logger.Info("article extracted", "title", firstRunes(article.Title, 50))
			}
		}

		s.sleep(politenessDelay)
	}

	s.logger.Info("category done", "category", name, "articles", len(articles))
	return articles, nil
}

func (s *Scraper) extractArticle(doc *goquery.Document, articleURL string) domain.Article {
	title := NoTitle
	if el := doc.Find(s.selectors.ArticleTitle).First(); el.Length() > 0 {
		title = strings.TrimSpace(el.Text())
	}

	var content string
	if el := doc.Find(s.selectors.ArticleContent).First(); el.Length() > 0 {
		el.Find("script,style").Remove()
		content = blockText(el)
	}

	return domain.Article{
		URL:     articleURL,
		Title:   title,
		Content: content,
		Author:  s.optionalText(doc, s.selectors.ArticleAuthor),
		Date:    s.optionalText(doc, s.selectors.ArticleDate),
	}
}

func (s *Scraper) optionalText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

func (s *Scraper) resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return s.baseURL.ResolveReference(ref).String()
}

// resolveLink finds the href for a matched element: the element's own href
// attribute wins, otherwise the first descendant anchor is used. The returned
// name is the text of whichever node carried the link.
func resolveLink(el *goquery.Selection) (href, name string, ok bool) {
	if href, ok = el.Attr("href"); ok {
		return href, strings.TrimSpace(el.Text()), true
	}
	link := el.Find("a[href]").First()
	if link.Length() == 0 {
		return "", "", false
	}
	href, _ = link.Attr("href")
	return href, strings.TrimSpace(link.Text()), true
}

// blockText joins the trimmed text nodes under sel with blank lines,
// dropping whitespace-only nodes.
func blockText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, node := range sel.Nodes {
		walk(node)
	}
	return strings.Join(parts, "\n\n")
}

func buildPageURL(base string, page int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("page", strconv.Itoa(page))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
