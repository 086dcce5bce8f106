package job

import (
	"context"
	"log"

	"github.com/kovalyov-valentin/research-digest/internal/model"
	"github.com/kovalyov-valentin/research-digest/internal/similarity"
)

// maxTopicsPerFinding bounds how many key findings of a content idea become topics.
const maxTopicsPerFinding = 3

// blogTopics proposes the key findings of content-idea findings as post titles
// and checks them against each project's existing posts. Posts are scraped at
// most once per project; a failed scrape leaves that project's topics unchecked.
func (r *Runner) blogTopics(ctx context.Context, findings []model.Finding) []model.BlogTopic {
	type scrape struct {
		posts []model.ExistingBlogPost
		ok    bool
	}
	scraped := make(map[model.Project]scrape)

	postsFor := func(project model.Project) scrape {
		if s, done := scraped[project]; done {
			return s
		}

		var s scrape
		if r.deps.Blog != nil {
			posts, err := r.deps.Blog.Posts(ctx, project)
			if err != nil {
				log.Printf("[WARN] failed to scrape blog posts for %s: %v", project, err)
			} else {
				s = scrape{posts: posts, ok: true}
			}
		}

		scraped[project] = s
		return s
	}

	var topics []model.BlogTopic
	for _, f := range findings {
		if f.Category != model.CategoryContentIdeas {
			continue
		}

		titles := f.KeyFindings
		if len(titles) > maxTopicsPerFinding {
			titles = titles[:maxTopicsPerFinding]
		}

		for _, title := range titles {
			s := postsFor(f.Project)
			if !s.ok {
				topics = append(topics, similarity.UncheckedBlogTopic(title, f.Project))
				continue
			}
			topics = append(topics, similarity.CheckBlogTopic(title, f.Project, s.posts))
		}
	}

	return topics
}
