// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quality computes topic-relevance metrics over extracted
// evidence and relabels supporting records that never touch the
// condition's endpoint vocabulary. Records are relabeled, never
// deleted, so every decision stays traceable.
package quality

import (
	"log/slog"
	"strings"

	"github.com/pdiddy/repurpose-engine/internal/queryplan"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// Result carries the gated records and the metrics the gate produced.
// Records preserves the input order; relabeled records stay in place
// with Supports cleared and a reason code set.
type Result struct {
	Records []types.EvidenceRecord

	TopicMatchRatio      float64
	TopicMismatch        bool
	RemovedEvidenceCount int
}

// Gate applies the topic gate for one candidate.
type Gate struct {
	topicMin float64
	logger   *slog.Logger
}

func New(topicMin float64) *Gate {
	return &Gate{
		topicMin: topicMin,
		logger:   slog.Default().With("component", "quality"),
	}
}

// Apply computes the dossier-level topic match ratio over the window of
// supporting claim texts plus top-document abstracts, and relabels
// supporting records with no topical hit of their own. Categories
// without specific vocabulary carry no penalty: the ratio is 1 and no
// record is relabeled.
func (g *Gate) Apply(records []types.EvidenceRecord, topDocs []types.Document, category types.EndpointCategory) Result {
	out := Result{Records: make([]types.EvidenceRecord, len(records))}
	copy(out.Records, records)

	keywords := queryplan.Keywords(category)
	if len(keywords) == 0 {
		out.TopicMatchRatio = 1.0
		return out
	}

	var window []string
	for i := range out.Records {
		rec := &out.Records[i]
		if !rec.Supports {
			continue
		}
		window = append(window, rec.Claim)
		if !hitsAny(rec.Claim, keywords) {
			rec.Supports = false
			rec.Direction = types.DirectionNeutral
			rec.RelabelReason = types.ReasonOffTopic
			out.RemovedEvidenceCount++
			g.logger.Debug("relabeled off-topic record",
				"pmid", rec.PMID, "category", category)
		}
	}
	for _, d := range topDocs {
		window = append(window, d.Text())
	}

	out.TopicMatchRatio = ratio(window, keywords)
	if out.TopicMatchRatio < g.topicMin {
		out.TopicMismatch = true
		g.logger.Warn("topic mismatch",
			"ratio", out.TopicMatchRatio, "min", g.topicMin, "category", category)
	}
	return out
}

// ratio is the fraction of window texts containing at least one
// endpoint keyword. An empty window counts as a full mismatch.
func ratio(window, keywords []string) float64 {
	if len(window) == 0 {
		return 0
	}
	hits := 0
	for _, text := range window {
		if hitsAny(text, keywords) {
			hits++
		}
	}
	return float64(hits) / float64(len(window))
}

func hitsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
