// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// Gate applies the hard and soft gates to a dossier and its score card.
//
// Hard gates are all evaluated and their reasons accumulated before the
// decision is taken; any hit forces NO-GO regardless of score. With no
// hard hit the total score picks the band, and a safety_fit below the
// policy floor independently forces NO-GO. The same inputs always yield
// the same decision and reason list.
func (s *Scorer) Gate(d types.Dossier, card types.ScoreCard) types.GateDecision {
	var reasons []string

	if d.QC.UniqueSupportingPMIDs < s.policy.MinUniquePMIDs {
		reasons = append(reasons, types.ReasonFewPMIDs)
	}
	if d.QC.TopicMatchRatio < s.policy.TopicMin {
		reasons = append(reasons, types.ReasonTopicRatio)
	}
	if s.policy.HardSafety && s.Blacklisted(d.CandidateName) {
		reasons = append(reasons, types.ReasonSafetyBlacklist)
	}
	if d.SupportingCount() < s.policy.MinSupporting {
		reasons = append(reasons, types.ReasonFewSupporting)
	}
	if len(reasons) > 0 {
		return types.GateDecision{Decision: types.DecisionNoGo, Reasons: reasons}
	}

	decision := types.DecisionGo
	switch {
	case card.Total >= s.policy.GoScore:
	case card.Total >= s.policy.MaybeScore:
		decision = types.DecisionMaybe
		reasons = append(reasons, types.ReasonScoreBelowGo)
	default:
		decision = types.DecisionNoGo
		reasons = append(reasons, types.ReasonScoreBelowMaybe)
	}

	if card.SafetyFit < s.policy.SafetyFloor {
		decision = types.DecisionNoGo
		reasons = append(reasons, types.ReasonSafetyConcern)
	}

	return types.GateDecision{Decision: decision, Reasons: reasons}
}

// Evaluate scores and gates a dossier in one step.
func (s *Scorer) Evaluate(d types.Dossier) (types.ScoreCard, types.GateDecision) {
	card := s.Score(d)
	return card, s.Gate(d, card)
}
