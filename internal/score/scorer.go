// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score turns an assembled dossier into a bounded score card
// and a terminal GO/MAYBE/NO-GO decision. Every computation here is a
// pure function of the dossier and the policy: rescoring the same
// dossier yields bit-identical numbers.
package score

import (
	"strings"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// mechanismClasses groups mechanism vocabulary into pharmacological
// classes. Plausibility rewards distinct classes over repeated mentions
// of the same one.
var mechanismClasses = map[string][]string{
	"anti-inflammatory": {
		"anti-inflammatory", "inflammation", "inflammatory", "cytokine",
		"il-6", "tnf", "crp",
	},
	"lipid modulation": {
		"lipid", "cholesterol", "ldl", "hdl", "statin", "triglyceride",
		"hmg-coa",
	},
	"calcification inhibition": {
		"calcification", "mineralization", "osteogenic", "pyrophosphate",
		"matrix gla",
	},
	"antifibrotic": {
		"fibrosis", "fibrotic", "collagen", "tgf-beta", "smad",
	},
	"antioxidant": {
		"oxidative", "antioxidant", "reactive oxygen", "ros", "nrf2",
	},
	"metabolic regulation": {
		"metabolic", "glucose", "insulin", "ampk", "mtor", "autophagy",
	},
	"immune modulation": {
		"immune", "immunomodulat", "t cell", "macrophage", "complement",
	},
	"vascular function": {
		"endothelial", "nitric oxide", "vasodilat", "smooth muscle",
		"angiogen",
	},
}

// modelWeight ranks evidence models by how directly they translate to
// human outcomes.
func modelWeight(m types.EvidenceModel) float64 {
	switch m {
	case types.ModelHuman:
		return 1.0
	case types.ModelAnimal:
		return 0.5
	case types.ModelComputational:
		return 0.1
	default:
		return 0.25
	}
}

// Scorer computes score cards under one policy.
type Scorer struct {
	policy types.Policy
}

func NewScorer(policy types.Policy) *Scorer {
	return &Scorer{policy: policy}
}

// Score computes the five dimension scores and their capped total.
func (s *Scorer) Score(d types.Dossier) types.ScoreCard {
	support := float64(d.SupportingCount())
	harm := float64(d.HarmCount())
	unique := float64(d.QC.UniquePMIDs)

	card := types.ScoreCard{
		EvidenceStrength:      evidenceStrength(support, unique, harm),
		MechanismPlausibility: mechanismPlausibility(d.Evidence),
		Translatability:       translatability(d.Supporting()),
		SafetyFit:             s.safetyFit(d, harm),
		Practicality:          practicality(support, unique),
	}
	card.Total = min(100,
		card.EvidenceStrength+card.MechanismPlausibility+
			card.Translatability+card.SafetyFit+card.Practicality)
	return card
}

// evidenceStrength grows with supporting count and document diversity
// and shrinks with harm reports, bounded to [0,30].
func evidenceStrength(support, unique, harm float64) float64 {
	return clamp(2.0*support+0.5*unique-1.5*harm, 0, 30)
}

// mechanismPlausibility rewards distinct mechanism classes across the
// stated mechanisms, plus a smaller credit per record that matched any
// class, capped at 20.
func mechanismPlausibility(records []types.EvidenceRecord) float64 {
	classes := map[string]bool{}
	matched := 0
	for _, rec := range records {
		mech := strings.ToLower(rec.Mechanism)
		if mech == "" {
			continue
		}
		hit := false
		for class, keywords := range mechanismClasses {
			for _, kw := range keywords {
				if strings.Contains(mech, kw) {
					classes[class] = true
					hit = true
					break
				}
			}
		}
		if hit {
			matched++
		}
	}
	return min(20, 4.0*float64(len(classes))+0.5*float64(matched))
}

// translatability is 20 times the mean model weight over supporting
// records. No supporting evidence means nothing to translate.
func translatability(supporting []types.EvidenceRecord) float64 {
	if len(supporting) == 0 {
		return 0
	}
	sum := 0.0
	for _, rec := range supporting {
		sum += modelWeight(rec.Model)
	}
	return 20 * sum / float64(len(supporting))
}

// safetyFit starts at the maximum and loses 2.5 per harm record. A
// blacklist hit zeroes it in hard-safety mode and costs a flat 10
// otherwise.
func (s *Scorer) safetyFit(d types.Dossier, harm float64) float64 {
	if s.Blacklisted(d.CandidateName) {
		if s.policy.HardSafety {
			return 0
		}
		return clamp(20-2.5*harm-10, 0, 20)
	}
	return clamp(20-2.5*harm, 0, 20)
}

// practicality is a volume heuristic bounded to [0,10].
func practicality(support, unique float64) float64 {
	return min(10, 2+0.1*unique+0.5*support)
}

// Blacklisted reports whether the candidate name appears on the policy's
// safety blacklist.
func (s *Scorer) Blacklisted(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, entry := range s.policy.SafetyBlacklist {
		if lower == entry {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
