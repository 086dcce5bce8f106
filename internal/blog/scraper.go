// Package blog scrapes the titles of posts already published on each
// project's blog.
package blog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/SlyMarbo/rss"
	"github.com/go-shiori/go-readability"
	"github.com/samber/lo"

	"github.com/kovalyov-valentin/research-digest/internal/model"
)

var ErrNoSite = errors.New("blog: no site configured for project")

const defaultTimeout = 15 * time.Second

// Site is where a project's posts can be found. The feed is tried first,
// the page is scraped when the feed is missing or empty.
type Site struct {
	Project model.Project
	FeedURL string
	PageURL string
}

type Scraper struct {
	sites  map[model.Project]Site
	client *http.Client
}

func NewScraper(sites []Site, client *http.Client) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	return &Scraper{
		sites:  lo.KeyBy(sites, func(s Site) model.Project { return s.Project }),
		client: client,
	}
}

// Posts returns the existing posts of a project.
func (s *Scraper) Posts(ctx context.Context, project model.Project) ([]model.ExistingBlogPost, error) {
	site, ok := s.sites[project]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSite, project)
	}

	var feedErr error
	if site.FeedURL != "" {
		posts, err := s.feedPosts(ctx, site)
		if err == nil && len(posts) > 0 {
			return posts, nil
		}
		feedErr = err
		if err != nil {
			log.Printf("[WARN] failed to load blog feed for %s: %v", project, err)
		}
	}

	if site.PageURL == "" {
		if feedErr != nil {
			return nil, feedErr
		}
		return []model.ExistingBlogPost{}, nil
	}

	return s.pagePosts(ctx, site)
}

func (s *Scraper) feedPosts(ctx context.Context, site Site) ([]model.ExistingBlogPost, error) {
	feed, err := s.loadFeed(ctx, site.FeedURL)
	if err != nil {
		return nil, err
	}

	items := lo.Filter(feed.Items, func(item *rss.Item, _ int) bool {
		return strings.TrimSpace(item.Title) != ""
	})

	return lo.Map(items, func(item *rss.Item, _ int) model.ExistingBlogPost {
		return model.ExistingBlogPost{
			Title:   strings.TrimSpace(item.Title),
			URL:     item.Link,
			Project: site.Project,
		}
	}), nil
}

func (s *Scraper) loadFeed(ctx context.Context, url string) (*rss.Feed, error) {
	var (
		feedCh = make(chan *rss.Feed, 1)
		errCh  = make(chan error, 1)
	)

	go func() {
		feed, err := rss.FetchByClient(url, s.client)
		if err != nil {
			errCh <- err
			return
		}

		feedCh <- feed
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-errCh:
		return nil, err
	case feed := <-feedCh:
		return feed, nil
	}
}

// pagePosts reads post titles off the headings of the blog index. A page with
// no usable headings is treated as a single article.
func (s *Scraper) pagePosts(ctx context.Context, site Site) ([]model.ExistingBlogPost, error) {
	body, err := s.get(ctx, site.PageURL)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(site.PageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", site.PageURL, err)
	}

	var posts []model.ExistingBlogPost
	seen := map[string]bool{}

	doc.Find("article h1, article h2, article h3, main h2, main h3, h2, h3").Each(func(_ int, h *goquery.Selection) {
		title := strings.Join(strings.Fields(h.Text()), " ")
		if len(title) < 4 || seen[strings.ToLower(title)] {
			return
		}
		seen[strings.ToLower(title)] = true

		posts = append(posts, model.ExistingBlogPost{
			Title:   title,
			URL:     headingLink(h, base),
			Project: site.Project,
		})
	})

	if len(posts) > 0 {
		return posts, nil
	}

	article, err := readability.FromReader(bytes.NewReader(body), base)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", site.PageURL, err)
	}
	if strings.TrimSpace(article.Title) == "" {
		return []model.ExistingBlogPost{}, nil
	}

	return []model.ExistingBlogPost{{
		Title:   strings.TrimSpace(article.Title),
		URL:     site.PageURL,
		Project: site.Project,
	}}, nil
}

func (s *Scraper) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func headingLink(h *goquery.Selection, base *url.URL) string {
	href, ok := h.Find("a[href]").First().Attr("href")
	if !ok {
		href, ok = h.Closest("a[href]").Attr("href")
	}
	if !ok {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// ParseSites reads "project=url" pairs for feeds and pages.
func ParseSites(feeds, pages []string) ([]Site, error) {
	sites := map[model.Project]*Site{}
	var order []model.Project

	add := func(entry string, set func(*Site, string)) error {
		project, u, ok := strings.Cut(entry, "=")
		project, u = strings.TrimSpace(project), strings.TrimSpace(u)
		if !ok || project == "" || u == "" {
			return fmt.Errorf("invalid blog site %q, want project=url", entry)
		}

		p := model.Project(strings.ToLower(project))
		if sites[p] == nil {
			sites[p] = &Site{Project: p}
			order = append(order, p)
		}
		set(sites[p], u)
		return nil
	}

	for _, entry := range feeds {
		if err := add(entry, func(s *Site, u string) { s.FeedURL = u }); err != nil {
			return nil, err
		}
	}
	for _, entry := range pages {
		if err := add(entry, func(s *Site, u string) { s.PageURL = u }); err != nil {
			return nil, err
		}
	}

	return lo.Map(order, func(p model.Project, _ int) Site { return *sites[p] }), nil
}
