package model

import (
	"strings"
	"time"
)

// Project is one of the tracked subjects research is collected for.
type Project string

const (
	ProjectCreatorKit Project = "creatorkit"
	ProjectPodcastOps Project = "podcastops"
	ProjectNewsletter Project = "newsletter"
)

// Category tags what kind of research a query performs.
type Category string

const (
	CategoryPainPoints      Category = "pain_points"
	CategoryFeatureRequests Category = "feature_requests"
	CategoryCompetitors     Category = "competitors"
	CategoryTrends          Category = "trends"
	CategoryContentIdeas    Category = "content_ideas"
	CategoryMonitoring      Category = "monitoring"
)

// Priority is ordered: low < medium < high < urgent.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

var priorityNames = [...]string{"low", "medium", "high", "urgent"}

func (p Priority) String() string {
	if p < PriorityLow || p > PriorityUrgent {
		return priorityNames[PriorityLow]
	}
	return priorityNames[p]
}

// ParsePriority maps a name back to a level. Unknown names are low.
func ParsePriority(s string) Priority {
	for i, name := range priorityNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Priority(i)
		}
	}
	return PriorityLow
}

func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(b []byte) error {
	*p = ParsePriority(string(b))
	return nil
}

// IsUrgent reports whether a finding with this priority is tracked as an urgent item.
func (p Priority) IsUrgent() bool {
	return p >= PriorityHigh
}

// Query is one research request from the static query configuration.
type Query struct {
	Text     string
	Project  Project
	Category Category
	Evening  bool
}

// Finding is one structured research result derived from a single query's raw response.
type Finding struct {
	Query                string      `json:"query"`
	Project              Project     `json:"project"`
	Category             Category    `json:"category"`
	KeyFindings          []string    `json:"keyFindings"`
	MostImportantInsight string      `json:"mostImportantInsight"`
	PainPoints           []PainPoint `json:"painPoints"`
	SolutionRequests     []string    `json:"solutionRequests"`
	ActionItems          []string    `json:"actionItems"`
	Priority             Priority    `json:"priority"`
	Sources              []Source    `json:"sources"`
	RawText              string      `json:"rawText"`
	CreatedAt            time.Time   `json:"createdAt"`
}

// PainPoint is a quoted excerpt believed to express user frustration.
type PainPoint struct {
	Quote     string   `json:"quote"`
	Community string   `json:"community,omitempty"`
	Markers   []string `json:"markers,omitempty"`
}

// Source is a citation.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// HistoryEntry is the condensed projection of a Finding kept in the rolling window.
type HistoryEntry struct {
	Date        time.Time `json:"date"`
	Project     Project   `json:"project"`
	Category    Category  `json:"category"`
	Summary     string    `json:"summary"`
	KeyFindings []string  `json:"keyFindings"`
	Sources     []string  `json:"sources"`
}

// WeeklyHistory groups entries by the Monday-anchored week they were recorded in.
type WeeklyHistory struct {
	WeekStart time.Time      `json:"weekStart"`
	Entries   []HistoryEntry `json:"entries"`
}

// UrgentItem is a condensed high or urgent Finding tracked for same-day deduplication.
type UrgentItem struct {
	Project   Project   `json:"project"`
	Summary   string    `json:"summary"`
	SourceURL string    `json:"sourceUrl,omitempty"`
	Priority  Priority  `json:"priority"`
	Category  Category  `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

// DailyUrgentItems is the per-day record shared by the morning and evening runs.
type DailyUrgentItems struct {
	Date         string       `json:"date"`
	Morning      []UrgentItem `json:"morning"`
	Evening      []UrgentItem `json:"evening,omitempty"`
	MorningRunAt *time.Time   `json:"morningRunAt,omitempty"`
	EveningRunAt *time.Time   `json:"eveningRunAt,omitempty"`
}

// TopicStatus says whether a blog topic is worth writing.
type TopicStatus string

const (
	TopicNew       TopicStatus = "new"
	TopicDuplicate TopicStatus = "duplicate"
	// TopicSkip means existing posts were unavailable and the check is unresolved.
	TopicSkip TopicStatus = "skip"
)

// BlogTopic is a proposed post title checked against the project's existing posts.
type BlogTopic struct {
	Title             string      `json:"title"`
	TargetKeywords    []string    `json:"targetKeywords"`
	Project           Project     `json:"project"`
	IsDuplicate       bool        `json:"isDuplicate"`
	ExistingPostTitle string      `json:"existingPostTitle,omitempty"`
	Status            TopicStatus `json:"status"`
}

// ExistingBlogPost is a title scraped from a project's public blog.
type ExistingBlogPost struct {
	Title   string  `json:"title"`
	URL     string  `json:"url,omitempty"`
	Project Project `json:"project"`
}

// JobType names one of the two daily runs.
type JobType string

const (
	JobMorning JobType = "morning"
	JobEvening JobType = "evening"
)

// JobResult is reported by both HTTP triggers.
type JobResult struct {
	Success          bool      `json:"success"`
	JobType          JobType   `json:"jobType"`
	Timestamp        time.Time `json:"timestamp"`
	QueriesProcessed int       `json:"queriesProcessed"`
	UrgentItemsFound int       `json:"urgentItemsFound"`
	EmailSent        bool      `json:"emailSent"`
	Errors           []string  `json:"errors"`
}
