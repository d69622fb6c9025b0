// Package scoring computes the aggregate trust/ranking score for a
// marketplace listing. The calculation is a pure function of its input so
// the same formula can be applied at publish time and whenever usage or
// moderation counters change.
package scoring

import "time"

// Point budget and penalties for the aggregate score.
const (
	verificationScore      = 20
	interfaceScore         = 15
	disclosureMax          = 10
	evaluationScore        = 15
	usageWeight            = 25
	newAgentPenalty        = 5
	featuredBonus          = 10
	flagPenalty            = 50
	flagIncrementalPenalty = 5
	newAgentWindowDays     = 7
)

// Input captures everything the scorer reads. MaxUsage is the usage
// normalization ceiling; when absent or non-positive, usage contributes
// nothing.
type Input struct {
	UsageCount           int
	MaxUsage             int
	EvaluationSummaryURL string
	DisclosureChecklist  map[string]bool
	HasValidInterface    bool
	IsVerified           bool
	Featured             bool
	IsFlagged            bool
	FlagCount            int
	PublishedAt          *time.Time
}

// AggregateScore computes the ranking score for a listing, floored at 0.
func AggregateScore(in Input) float64 {
	return aggregateScoreAt(in, time.Now())
}

func aggregateScoreAt(in Input, now time.Time) float64 {
	var score float64

	if in.IsVerified {
		score += verificationScore
	}
	if in.HasValidInterface {
		score += interfaceScore
	}
	if in.EvaluationSummaryURL != "" {
		score += evaluationScore
	}

	score += disclosureScore(in.DisclosureChecklist)
	score += usageScore(in.UsageCount, in.MaxUsage)
	score -= coolingPenalty(in.PublishedAt, now)

	if in.Featured {
		score += featuredBonus
	}

	penalties := float64(in.FlagCount) * flagIncrementalPenalty
	if in.IsFlagged {
		penalties += flagPenalty
	}

	return max(0, score-penalties)
}

// disclosureScore scales the fraction of completed disclosure items to the
// disclosure point budget. An empty checklist contributes 0, not a neutral
// default.
func disclosureScore(checklist map[string]bool) float64 {
	if len(checklist) == 0 {
		return 0
	}
	completed := 0
	for _, done := range checklist {
		if done {
			completed++
		}
	}
	return float64(completed) / float64(len(checklist)) * disclosureMax
}

func usageScore(usageCount, maxUsage int) float64 {
	if maxUsage <= 0 {
		return 0
	}
	normalized := min(float64(usageCount)/float64(maxUsage), 1)
	return normalized * usageWeight
}

// coolingPenalty is a flat deduction for listings published within the
// last week. It disappears entirely at the boundary rather than ramping.
func coolingPenalty(publishedAt *time.Time, now time.Time) float64 {
	if publishedAt == nil {
		return 0
	}
	if now.Sub(*publishedAt) < newAgentWindowDays*24*time.Hour {
		return newAgentPenalty
	}
	return 0
}
