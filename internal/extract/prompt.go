// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// evidencePromptTmpl is the fixed extraction contract sent to the
// inference service for each document. It demands a single strict JSON
// object; any text outside the object is a contract violation handled by
// the repair loop.
var evidencePromptTmpl = template.Must(template.New("evidence").Parse(`You are a biomedical evidence extraction system. Read the abstract below and extract the single most relevant evidence record about {{.Drug}} in relation to {{.Condition}}.

Respond with exactly one JSON object and no other text:
- "pmid": the PubMed ID of this abstract ("{{.PMID}}")
- "direction": one of "benefit", "harm", "neutral", "unknown": the effect of {{.Drug}} on {{.Condition}} reported here
- "model": one of "human", "animal", "cell", "computational", "unknown": the study model
- "endpoint": the outcome measure the finding concerns, in a few words
- "mechanism": the proposed mechanism of action in a few words, or "" if none is stated
- "confidence": one of "HIGH", "MED", "LOW": how directly the abstract supports the record
- "supports": true only if this abstract supports repurposing {{.Drug}} for {{.Condition}}
- "claim": one sentence quoted or minimally adapted from the abstract that states the finding; it must mention {{.Drug}}

If the abstract says nothing about {{.Drug}}, use direction "unknown", supports false, and an empty claim.

Title: {{.Title}}

Abstract:
{{.Abstract}}
{{if .ParseError}}
Your previous response could not be parsed ({{.ParseError}}). Respond again with only the JSON object.{{end}}`))

// promptData feeds the extraction template.
type promptData struct {
	Drug       string
	Condition  string
	PMID       string
	Title      string
	Abstract   string
	ParseError string
}

// renderPrompt builds the extraction prompt for one document, carrying
// the previous parse error on repair attempts.
func renderPrompt(cand types.Candidate, doc types.Document, parseErr string) (string, error) {
	var buf bytes.Buffer
	err := evidencePromptTmpl.Execute(&buf, promptData{
		Drug:       cand.Name,
		Condition:  cand.Condition,
		PMID:       doc.PMID,
		Title:      doc.Title,
		Abstract:   doc.Abstract,
		ParseError: parseErr,
	})
	if err != nil {
		return "", fmt.Errorf("rendering extraction prompt: %w", err)
	}
	return buf.String(), nil
}

// mentionsAny reports whether text contains any of the names,
// case-insensitively. Names are expected lowercased.
func mentionsAny(text string, names []string) bool {
	lower := strings.ToLower(text)
	for _, name := range names {
		if name != "" && strings.Contains(lower, name) {
			return true
		}
	}
	return false
}
