package similarity

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/tomakado/containers/set"

	"github.com/kovalyov-valentin/research-digest/internal/model"
)

const (
	minTitleToken    = 2
	minTopicToken    = 3
	maxTopicKeywords = 5
	titlePrefixLen   = 30
	keywordThreshold = 0.5
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s]+`)

	// Title filler that says nothing about a post's subject.
	stopWords = set.New(
		"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of",
		"with", "by", "from", "as", "is", "are", "was", "were", "be", "it", "its",
		"this", "that", "these", "those", "how", "what", "why", "when", "where",
		"who", "which", "your", "you", "our", "we", "my", "can", "will", "do",
		"does", "get", "make", "making", "build", "building", "create", "creating",
		"actually", "really", "want", "need", "see", "know", "guide", "tips",
		"best", "ways", "ultimate", "complete", "about", "into", "more", "most",
		"new", "every", "should", "step",
	)
)

func titleTokens(title string, minLen int) []string {
	clean := nonAlphanumeric.ReplaceAllString(strings.ToLower(title), "")
	return lo.Filter(strings.Fields(clean), func(tok string, _ int) bool {
		return utf8.RuneCountInString(tok) > minLen && !stopWords.Contains(tok)
	})
}

// TitleKeywords are the tokens compared by the blog duplicate check.
func TitleKeywords(title string) []string {
	return titleTokens(title, minTitleToken)
}

// TopicKeywords are the target keywords attached to a proposed blog topic.
func TopicKeywords(title string) []string {
	keywords := lo.Uniq(titleTokens(title, minTopicToken))
	if len(keywords) > maxTopicKeywords {
		keywords = keywords[:maxTopicKeywords]
	}
	return keywords
}

// KeywordOverlap is the share of the candidate's keywords that contain, or are
// contained in, some keyword of the existing title.
func KeywordOverlap(candidate, existing string) float64 {
	cand := TitleKeywords(candidate)
	if len(cand) == 0 {
		return 0
	}
	have := TitleKeywords(existing)

	matched := lo.Filter(cand, func(c string, _ int) bool {
		return lo.ContainsBy(have, func(h string) bool {
			return strings.Contains(h, c) || strings.Contains(c, h)
		})
	})

	return float64(len(matched)) / float64(len(cand))
}

// SameTitle catches near-exact collisions too short for keyword overlap:
// either lowercase title contains the other's first 30 characters.
func SameTitle(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, prefix(b, titlePrefixLen)) || strings.Contains(b, prefix(a, titlePrefixLen))
}

func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// IsBlogDuplicate compares a proposed title with one existing post title.
func IsBlogDuplicate(candidate, existing string) bool {
	return KeywordOverlap(candidate, existing) > keywordThreshold || SameTitle(candidate, existing)
}

// CheckBlogTopic builds the topic for title and flags it when one of the
// project's existing posts already covers it.
func CheckBlogTopic(title string, project model.Project, posts []model.ExistingBlogPost) model.BlogTopic {
	topic := model.BlogTopic{
		Title:          title,
		TargetKeywords: TopicKeywords(title),
		Project:        project,
		Status:         model.TopicNew,
	}

	for _, post := range posts {
		if post.Project != "" && post.Project != project {
			continue
		}
		if IsBlogDuplicate(title, post.Title) {
			topic.IsDuplicate = true
			topic.ExistingPostTitle = post.Title
			topic.Status = model.TopicDuplicate
			break
		}
	}

	return topic
}

// UncheckedBlogTopic is used when existing posts could not be loaded.
func UncheckedBlogTopic(title string, project model.Project) model.BlogTopic {
	return model.BlogTopic{
		Title:          title,
		TargetKeywords: TopicKeywords(title),
		Project:        project,
		Status:         model.TopicSkip,
	}
}
