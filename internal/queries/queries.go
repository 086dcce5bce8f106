// Package queries holds the research questions asked on every run.
package queries

import (
	"github.com/samber/lo"

	"github.com/kovalyov-valentin/research-digest/internal/model"
)

var all = []model.Query{
	{
		Text:     "What are creators on Reddit complaining about when pitching brand deals and building media kits this week?",
		Project:  model.ProjectCreatorKit,
		Category: model.CategoryPainPoints,
	},
	{
		Text:     "Which features are influencers asking for in media kit and rate card tools?",
		Project:  model.ProjectCreatorKit,
		Category: model.CategoryFeatureRequests,
	},
	{
		Text:     "What have competing creator media kit tools launched or changed recently, including pricing?",
		Project:  model.ProjectCreatorKit,
		Category: model.CategoryCompetitors,
	},
	{
		Text:     "Which blog post topics about creator media kits and brand pitching are getting traction right now?",
		Project:  model.ProjectCreatorKit,
		Category: model.CategoryContentIdeas,
	},
	{
		Text:     "Are there urgent platform policy or API changes affecting creator sponsorship payouts today?",
		Project:  model.ProjectCreatorKit,
		Category: model.CategoryMonitoring,
		Evening:  true,
	},
	{
		Text:     "What are independent podcasters struggling with in hosting, distribution and analytics?",
		Project:  model.ProjectPodcastOps,
		Category: model.CategoryPainPoints,
	},
	{
		Text:     "What trends are shaping podcast production workflows and guest booking this month?",
		Project:  model.ProjectPodcastOps,
		Category: model.CategoryTrends,
	},
	{
		Text:     "Which blog post topics about running a podcast are readers searching for?",
		Project:  model.ProjectPodcastOps,
		Category: model.CategoryContentIdeas,
	},
	{
		Text:     "Are there outages or policy changes at podcast hosts or directories that need urgent attention?",
		Project:  model.ProjectPodcastOps,
		Category: model.CategoryMonitoring,
		Evening:  true,
	},
	{
		Text:     "What do newsletter writers dislike about their current publishing and email platforms?",
		Project:  model.ProjectNewsletter,
		Category: model.CategoryPainPoints,
	},
	{
		Text:     "What are newsletter operators asking for in growth, referral and monetization tooling?",
		Project:  model.ProjectNewsletter,
		Category: model.CategoryFeatureRequests,
	},
	{
		Text:     "What have newsletter platforms shipped or announced recently?",
		Project:  model.ProjectNewsletter,
		Category: model.CategoryCompetitors,
	},
	{
		Text:     "Are there deliverability incidents or platform changes hitting newsletter senders today?",
		Project:  model.ProjectNewsletter,
		Category: model.CategoryMonitoring,
		Evening:  true,
	},
}

// Morning returns every configured query.
func Morning() []model.Query {
	return append([]model.Query(nil), all...)
}

// Evening returns the queries flagged for the evening check.
func Evening() []model.Query {
	return lo.Filter(all, func(q model.Query, _ int) bool {
		return q.Evening
	})
}

// ForJob picks the query set of a run.
func ForJob(job model.JobType) []model.Query {
	if job == model.JobEvening {
		return Evening()
	}
	return Morning()
}
