package scheduler

import (
	"regexp"
	"strings"

	"github.com/xpanvictor/chrono/internal/domains/task"
)

// Response quality assessment. Five binary indicators, each worth 0.2 of
// the score; the score is a measurement for observability, never a retry
// gate.

const (
	// SubstantialLength is the minimum response length counted as
	// substantial.
	SubstantialLength = 240
	// HighQualityThreshold marks a response as high quality.
	HighQualityThreshold = 0.6
)

var (
	numberedListRe = regexp.MustCompile(`(?m)(^|\s)\d+[.)]\s`)
	bulletListRe   = regexp.MustCompile(`(?m)^\s*[-*•]\s`)
)

var acknowledgmentPhrases = []string{
	"acknowledg", "got it", "noted", "understood", "as requested",
	"you asked", "reminder", "here's your", "here is your",
}

var actionPhrases = []string{
	"next step", "you can", "you could", "try ", "consider",
	"i recommend", "recommended", "make sure", "don't forget", "be sure to",
}

var summaryPhrases = []string{
	"summary", "in short", "overall", "to recap", "in summary",
}

var encouragementPhrases = []string{
	"i'm here to help", "i am here to help", "let's", "we can",
	"happy to help", "you've got this", "good luck",
}

// Assessment is the scored view of one agent response.
type Assessment struct {
	Score             float64
	HighQuality       bool
	HasAcknowledgment bool
	ActionableAdvice  bool
	StructuredFormat  bool
	SupportiveTone    bool
	Substantial       bool
	HasSummary        bool
	ResponseLength    int
}

// Flags converts the assessment into the persisted machine-readable record.
func (a Assessment) Flags() task.QualityFlags {
	return task.QualityFlags{
		HasAcknowledgment: a.HasAcknowledgment,
		HasActions:        a.ActionableAdvice,
		HasSummary:        a.HasSummary,
		HasEncouragement:  a.SupportiveTone,
		IsStructured:      a.StructuredFormat,
		ResponseLength:    a.ResponseLength,
	}
}

// Assess scores an agent response. Deterministic: same input, same output.
func Assess(response string) Assessment {
	lower := strings.ToLower(response)

	a := Assessment{
		HasAcknowledgment: containsAny(lower, acknowledgmentPhrases),
		StructuredFormat:  numberedListRe.MatchString(response) || bulletListRe.MatchString(response),
		SupportiveTone:    containsAny(lower, encouragementPhrases),
		Substantial:       len(response) >= SubstantialLength,
		HasSummary:        containsAny(lower, summaryPhrases),
		ResponseLength:    len(response),
	}
	// A numbered list is actionable advice even without imperative phrasing.
	a.ActionableAdvice = containsAny(lower, actionPhrases) || numberedListRe.MatchString(response)

	hits := 0
	for _, hit := range []bool{a.HasAcknowledgment, a.ActionableAdvice, a.StructuredFormat, a.SupportiveTone, a.Substantial} {
		if hit {
			hits++
		}
	}
	a.Score = float64(hits) / 5
	a.HighQuality = a.Score >= HighQualityThreshold
	return a
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
