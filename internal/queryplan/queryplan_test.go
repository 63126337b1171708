// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package queryplan

import (
	"strings"
	"testing"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		want      types.EndpointCategory
	}{
		{"imaging surrogate", "coronary artery calcification", types.EndpointImaging},
		{"imaging plaque", "carotid plaque burden", types.EndpointImaging},
		{"functional", "cognitive decline and quality of life", types.EndpointFunctional},
		{"hard event", "all-cause mortality after stroke", types.EndpointEvent},
		{"no category keywords", "hypercholesterolemia", types.EndpointOther},
		{"empty", "", types.EndpointOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.condition); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.condition, got, tt.want)
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	// A condition with keywords from two categories must classify the
	// same way every time.
	condition := "stroke with cognitive decline and mortality"
	first := Classify(condition)
	for i := 0; i < 50; i++ {
		if got := Classify(condition); got != first {
			t.Fatalf("Classify not deterministic: %q then %q", first, got)
		}
	}
}

func TestPlanVariantCount(t *testing.T) {
	c := types.NewCandidate("pravastatin", "coronary artery calcification")
	variants := Plan(c, "")

	if len(variants) < 2 || len(variants) > 4 {
		t.Fatalf("len(variants) = %d, want 2-4", len(variants))
	}

	kinds := map[types.VariantKind]bool{}
	for _, v := range variants {
		kinds[v.Kind] = true
		if v.Query == "" {
			t.Errorf("variant %s has empty query", v.Kind)
		}
		if v.Category != types.EndpointImaging {
			t.Errorf("variant %s category = %q, want imaging", v.Kind, v.Category)
		}
	}
	for _, want := range []types.VariantKind{
		types.VariantEndpoint, types.VariantMechanism, types.VariantCrossCondition,
	} {
		if !kinds[want] {
			t.Errorf("missing variant kind %q", want)
		}
	}
}

func TestPlanEndpointVariantNarrowsQuery(t *testing.T) {
	c := types.NewCandidate("pravastatin", "coronary artery calcification")
	variants := Plan(c, "")

	for _, v := range variants {
		if v.Kind != types.VariantEndpoint {
			continue
		}
		if !strings.Contains(v.Query, "pravastatin") {
			t.Errorf("endpoint query missing candidate name: %q", v.Query)
		}
		if !strings.Contains(v.Query, "calcification") {
			t.Errorf("endpoint query missing condition: %q", v.Query)
		}
		if !strings.Contains(v.Query, " OR ") {
			t.Errorf("endpoint query not narrowed by keywords: %q", v.Query)
		}
	}
}

func TestPlanOtherCategoryFallsBackToPlainQuery(t *testing.T) {
	c := types.NewCandidate("metformin", "hypercholesterolemia")
	variants := Plan(c, "")

	for _, v := range variants {
		if v.Category != types.EndpointOther {
			t.Errorf("variant %s category = %q, want other", v.Kind, v.Category)
		}
		if v.Kind == types.VariantEndpoint && strings.Contains(v.Query, " OR ") && strings.Contains(v.Query, "(") && !strings.Contains(v.Query, "mechanism") {
			t.Errorf("other category should not have a keyword-narrowed endpoint query: %q", v.Query)
		}
	}
}

func TestPlanHintOverridesClassification(t *testing.T) {
	c := types.NewCandidate("metformin", "hypercholesterolemia")
	variants := Plan(c, types.EndpointEvent)

	for _, v := range variants {
		if v.Category != types.EndpointEvent {
			t.Fatalf("variant %s category = %q, want event (hinted)", v.Kind, v.Category)
		}
	}
}

func TestPlanDeterministic(t *testing.T) {
	c := types.NewCandidate("pravastatin", "coronary artery calcification")
	a := Plan(c, "")
	b := Plan(c, "")

	if len(a) != len(b) {
		t.Fatalf("variant counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("variant %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestKeywordsOtherIsEmpty(t *testing.T) {
	if kws := Keywords(types.EndpointOther); len(kws) != 0 {
		t.Errorf("Keywords(other) = %v, want empty", kws)
	}
	if kws := Keywords(types.EndpointImaging); len(kws) == 0 {
		t.Error("Keywords(imaging) is empty")
	}
}
