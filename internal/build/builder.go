package build

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ImageInfo points at an optimized image and its thumbnail, both relative to
// the public directory.
type ImageInfo struct {
	Original  string `json:"original"`
	Thumbnail string `json:"thumbnail"`
}

// Story is the build output for one content document.
type Story struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Date      string     `json:"date"`
	Author    string     `json:"author"`
	Category  string     `json:"category"`
	Tags      []string   `json:"tags"`
	Excerpt   string     `json:"excerpt"`
	Image     *ImageInfo `json:"image"`
	Published bool       `json:"published"`
	Content   string     `json:"content,omitempty"`
}

// Entrepreneur is the build output for one profile document.
type Entrepreneur struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Avatar   *ImageInfo        `json:"avatar"`
	Company  string            `json:"company"`
	Industry string            `json:"industry"`
	Position string            `json:"position"`
	Bio      string            `json:"bio"`
	Contact  map[string]string `json:"contact"`
	Content  string            `json:"content,omitempty"`
}

// Resource is the build output for one resource document.
type Resource struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Type    string   `json:"type"`
	Tags    []string `json:"tags"`
	URL     string   `json:"url"`
	File    string   `json:"file"`
	Content string   `json:"content,omitempty"`
}

// Event is the build output for one event document.
type Event struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Date            string     `json:"date"`
	Location        string     `json:"location"`
	Type            string     `json:"type"`
	Speakers        []string   `json:"speakers"`
	Poster          *ImageInfo `json:"poster"`
	RegistrationURL string     `json:"registration_url"`
	Content         string     `json:"content,omitempty"`
}

// Stats summarizes the build for the index file.
type Stats struct {
	TotalStories       int `json:"total_stories"`
	TotalEntrepreneurs int `json:"total_entrepreneurs"`
	TotalResources     int `json:"total_resources"`
	TotalEvents        int `json:"total_events"`
}

// Index is the aggregate listing written to index.json. Listings carry no
// body content; it is always regenerable from the content documents.
type Index struct {
	Stories       []Story        `json:"stories"`
	Entrepreneurs []Entrepreneur `json:"entrepreneurs"`
	Resources     []Resource     `json:"resources"`
	Events        []Event        `json:"events"`
	BuildTime     string         `json:"build_time"`
	Version       string         `json:"version"`
	Stats         Stats          `json:"stats"`
}

// Builder reads persisted content documents and derives the static site data:
// per-document JSON, optimized images, the aggregate index, and copied static
// assets. It never mutates the content documents themselves.
type Builder struct {
	contentDir string
	publicDir  string
	srcDir     string
	logger     *slog.Logger
	md         *renderer
	now        func() time.Time
}

// New wires a Builder over the content, public and static source directories.
func New(contentDir, publicDir, srcDir string, logger *slog.Logger) *Builder {
	return &Builder{
		contentDir: contentDir,
		publicDir:  publicDir,
		srcDir:     srcDir,
		logger:     logger,
		md:         newRenderer(),
		now:        time.Now,
	}
}

// Run executes the whole build. Per-file failures are logged and skipped.
func (b *Builder) Run() error {
	b.logger.Info("build starting", "content", b.contentDir, "public", b.publicDir)

	if err := b.ensureDirectories(); err != nil {
		return err
	}

	stories := b.processStories()
	entrepreneurs := b.processEntrepreneurs()
	resources := b.processResources()
	events := b.processEvents()

	if err := b.writeIndex(stories, entrepreneurs, resources, events); err != nil {
		return err
	}
	b.copyStatic()

	b.logger.Info("build done",
		"stories", len(stories),
		"entrepreneurs", len(entrepreneurs),
		"resources", len(resources),
		"events", len(events))
	return nil
}

func (b *Builder) ensureDirectories() error {
	dirs := []string{
		b.publicDir,
		filepath.Join(b.publicDir, "stories"),
		filepath.Join(b.publicDir, "entrepreneurs"),
		filepath.Join(b.publicDir, "resources"),
		filepath.Join(b.publicDir, "events"),
		filepath.Join(b.publicDir, "images", "uploads"),
		filepath.Join(b.publicDir, "images", "thumbnails"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func (b *Builder) processStories() []Story {
	var stories []Story
	b.eachDocument("stories", func(id string, meta map[string]any, htmlBody string) {
		story := Story{
			ID:        id,
			Title:     metaString(meta, "title"),
			Date:      metaString(meta, "date"),
			Author:    metaString(meta, "author", "entrepreneur"),
			Category:  metaString(meta, "category", "industry"),
			Tags:      metaStringList(meta, "tags"),
			Excerpt:   metaString(meta, "excerpt"),
			Image:     b.processImage(metaString(meta, "image")),
			Published: metaBool(meta, "published", true),
			Content:   htmlBody,
		}
		if !story.Published {
			b.logger.Info("skipping unpublished story", "id", id)
			return
		}
		if b.writeJSON(filepath.Join(b.publicDir, "stories", id+".json"), story) {
			stories = append(stories, story)
		}
	})

	sort.SliceStable(stories, func(i, j int) bool {
		return parseDate(stories[i].Date).After(parseDate(stories[j].Date))
	})
	return stories
}

func (b *Builder) processEntrepreneurs() []Entrepreneur {
	var entrepreneurs []Entrepreneur
	b.eachDocument("entrepreneurs", func(id string, meta map[string]any, htmlBody string) {
		entrepreneur := Entrepreneur{
			ID:       id,
			Name:     metaString(meta, "name"),
			Avatar:   b.processImage(metaString(meta, "avatar")),
			Company:  metaString(meta, "company"),
			Industry: metaString(meta, "industry"),
			Position: metaString(meta, "position"),
			Bio:      metaString(meta, "bio"),
			Contact:  metaStringMap(meta, "contact"),
			Content:  htmlBody,
		}
		if b.writeJSON(filepath.Join(b.publicDir, "entrepreneurs", id+".json"), entrepreneur) {
			entrepreneurs = append(entrepreneurs, entrepreneur)
		}
	})
	return entrepreneurs
}

func (b *Builder) processResources() []Resource {
	var resources []Resource
	b.eachDocument("resources", func(id string, meta map[string]any, htmlBody string) {
		resource := Resource{
			ID:      id,
			Title:   metaString(meta, "title"),
			Type:    metaString(meta, "type"),
			Tags:    metaStringList(meta, "tags"),
			URL:     metaString(meta, "url"),
			File:    metaString(meta, "file"),
			Content: htmlBody,
		}
		if b.writeJSON(filepath.Join(b.publicDir, "resources", id+".json"), resource) {
			resources = append(resources, resource)
		}
	})
	return resources
}

func (b *Builder) processEvents() []Event {
	var events []Event
	b.eachDocument("events", func(id string, meta map[string]any, htmlBody string) {
		event := Event{
			ID:              id,
			Title:           metaString(meta, "title"),
			Date:            metaString(meta, "date"),
			Location:        metaString(meta, "location"),
			Type:            metaString(meta, "type"),
			Speakers:        metaStringList(meta, "speakers"),
			Poster:          b.processImage(metaString(meta, "poster")),
			RegistrationURL: metaString(meta, "registration_url"),
			Content:         htmlBody,
		}
		if b.writeJSON(filepath.Join(b.publicDir, "events", id+".json"), event) {
			events = append(events, event)
		}
	})

	sort.SliceStable(events, func(i, j int) bool {
		return parseDate(events[i].Date).After(parseDate(events[j].Date))
	})
	return events
}

// eachDocument parses every markdown file in a content subdirectory and hands
// the metadata and rendered body to fn. Parse failures skip the file.
func (b *Builder) eachDocument(subdir string, fn func(id string, meta map[string]any, htmlBody string)) {
	dir := filepath.Join(b.contentDir, subdir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			b.logger.Warn("content dir unreadable", "dir", dir, "error", err)
		}
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		meta, htmlBody, err := b.md.parseFile(path)
		if err != nil {
			b.logger.Error("document parse failed", "path", path, "error", err)
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".md")
		fn(id, meta, htmlBody)
	}
}

func (b *Builder) writeIndex(stories []Story, entrepreneurs []Entrepreneur, resources []Resource, events []Event) error {
	index := Index{
		Stories:       stripStories(stories),
		Entrepreneurs: stripEntrepreneurs(entrepreneurs),
		Resources:     stripResources(resources),
		Events:        stripEvents(events),
		BuildTime:     b.now().Format(time.RFC3339),
		Stats: Stats{
			TotalStories:       len(stories),
			TotalEntrepreneurs: len(entrepreneurs),
			TotalResources:     len(resources),
			TotalEvents:        len(events),
		},
	}
	index.Version = versionToken(index)

	path := filepath.Join(b.publicDir, "index.json")
	if !b.writeJSON(path, index) {
		return fmt.Errorf("write index %s", path)
	}
	b.logger.Info("index written", "path", path, "version", index.Version)
	return nil
}

// versionToken derives a short content hash over the listings so consumers
// can detect changed data without comparing whole payloads.
func versionToken(index Index) string {
	payload, err := json.Marshal(struct {
		Stories       []Story        `json:"stories"`
		Entrepreneurs []Entrepreneur `json:"entrepreneurs"`
		Resources     []Resource     `json:"resources"`
		Events        []Event        `json:"events"`
	}{index.Stories, index.Entrepreneurs, index.Resources, index.Events})
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])[:12]
}

func (b *Builder) writeJSON(path string, v any) bool {
	file, err := os.Create(path)
	if err != nil {
		b.logger.Error("create output failed", "path", path, "error", err)
		return false
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		b.logger.Error("encode output failed", "path", path, "error", err)
		return false
	}
	return true
}

func (b *Builder) copyStatic() {
	files := []string{"index.html", "styles.css", "script.js", "update-detector.js"}
	for _, name := range files {
		src := filepath.Join(b.srcDir, name)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := copyFile(src, filepath.Join(b.publicDir, name)); err != nil {
			b.logger.Error("static copy failed", "file", name, "error", err)
			continue
		}
		b.logger.Info("static file copied", "file", name)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func parseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := dateparse.ParseAny(value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func stripStories(stories []Story) []Story {
	out := make([]Story, len(stories))
	for i, s := range stories {
		s.Content = ""
		out[i] = s
	}
	return out
}

func stripEntrepreneurs(entrepreneurs []Entrepreneur) []Entrepreneur {
	out := make([]Entrepreneur, len(entrepreneurs))
	for i, e := range entrepreneurs {
		e.Content = ""
		out[i] = e
	}
	return out
}

func stripResources(resources []Resource) []Resource {
	out := make([]Resource, len(resources))
	for i, r := range resources {
		r.Content = ""
		out[i] = r
	}
	return out
}

func stripEvents(events []Event) []Event {
	out := make([]Event, len(events))
	for i, e := range events {
		e.Content = ""
		out[i] = e
	}
	return out
}
