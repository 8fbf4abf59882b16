// Package concept is the PHI de-identification layer. It turns patient
// facts into generic clinical keywords safe to send off-premises: no names,
// no identifiers, no numeric values, no raw note text.
package concept

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
)

// Builder constructs de-identified concept queries. It is stateless and
// safe for concurrent use.
type Builder struct{}

// New creates a new concept query builder
func New() *Builder {
	return &Builder{}
}

// Input collects the PHI-safe signals a query may be built from. Booleans
// stand in for values: the query records that an A1C exists, never what it is.
type Input struct {
	Diagnoses         []string
	HasA1C            bool
	HasBloodPressure  bool
	Medications       []string
	MissingMedClasses []string
	GapTypes          []types.GapType
}

// BuildQuery assembles a concept query from the input signals. Concepts are
// deduplicated and sorted so the same input always yields the same query
// text.
func (b *Builder) BuildQuery(input Input) *model.ConceptQuery {
	concepts := map[string]struct{}{}
	var sourceConditions []string

	for _, diagnosis := range input.Diagnoses {
		normalized := strings.ToLower(strings.TrimSpace(diagnosis))
		sourceConditions = append(sourceConditions, "diagnosis:"+normalized)

		matched := false
		for _, entry := range diagnosisConcepts {
			if strings.Contains(normalized, entry.key) || strings.Contains(entry.key, normalized) {
				for _, c := range entry.concepts {
					concepts[c] = struct{}{}
				}
				matched = true
				break
			}
		}
		if !matched {
			// Unknown diagnosis: fall back to individually scrubbed terms
			for _, term := range extractSafeTerms(normalized) {
				concepts[term] = struct{}{}
			}
		}
	}

	if input.HasA1C {
		for _, c := range metricConcepts["a1c"] {
			concepts[c] = struct{}{}
		}
		sourceConditions = append(sourceConditions, "metric:a1c_present")
	}

	if input.HasBloodPressure {
		for _, c := range metricConcepts["blood_pressure"] {
			concepts[c] = struct{}{}
		}
		sourceConditions = append(sourceConditions, "metric:bp_present")
	}

	for _, medClass := range input.MissingMedClasses {
		normalized := strings.ToLower(strings.TrimSpace(medClass))
		sourceConditions = append(sourceConditions, "missing_med:"+normalized)

		for _, c := range medicationClassConcepts[normalized] {
			concepts[c] = struct{}{}
		}
	}

	for _, gapType := range input.GapTypes {
		sourceConditions = append(sourceConditions, "gap:"+gapType.String())

		for _, c := range gapTypeConcepts[gapType.String()] {
			concepts[c] = struct{}{}
		}
	}

	conceptList := make([]string, 0, len(concepts))
	for c := range concepts {
		conceptList = append(conceptList, c)
	}
	sort.Strings(conceptList)

	return &model.ConceptQuery{
		QueryText:        strings.Join(conceptList, " ") + " guidelines clinical recommendations",
		Concepts:         conceptList,
		SourceConditions: sourceConditions,
		IsPHISafe:        true,
	}
}

// ace/arb and statin name fragments used to detect missing medication
// classes. Deliberately a smaller list than the rule engine's: the query
// only needs a hint, not a verdict.
var (
	aceARBKeywords = []string{"lisinopril", "enalapril", "ramipril", "losartan", "valsartan", "irbesartan"}
	statinKeywords = []string{"atorvastatin", "simvastatin", "rosuvastatin", "pravastatin"}
)

// BuildFromFacts is the primary entry point for the extraction pipeline.
// Only the presence of metrics crosses into the query, never their values.
func (b *Builder) BuildFromFacts(facts *model.ExtractedFacts) *model.ConceptQuery {
	var missingClasses []string
	if len(facts.Medications) > 0 {
		hasACEARB := matchesAny(facts.Medications, aceARBKeywords)
		hasStatin := matchesAny(facts.Medications, statinKeywords)

		hasDiabetes := facts.HasDiagnosis("diabetes")
		hasHTN := facts.HasDiagnosis("hypertension") || facts.HasDiagnosis("htn")

		if hasDiabetes && hasHTN && !hasACEARB {
			missingClasses = append(missingClasses, "ace_arb")
		}
		if hasDiabetes && !hasStatin {
			missingClasses = append(missingClasses, "statin")
		}
	}

	return b.BuildQuery(Input{
		Diagnoses:         facts.Diagnoses,
		HasA1C:            facts.A1C != nil,
		HasBloodPressure:  facts.BloodPressure != nil,
		Medications:       facts.Medications,
		MissingMedClasses: missingClasses,
	})
}

// BuildFromGaps builds a query targeting guidelines for detected gaps only.
func (b *Builder) BuildFromGaps(gaps []model.GapResult) *model.ConceptQuery {
	var gapTypes []types.GapType
	var diagnoses []string
	seen := map[string]struct{}{}

	for _, gap := range gaps {
		if !gap.GapDetected {
			continue
		}
		gapTypes = append(gapTypes, gap.GapType)

		name := gap.GapType.String()
		if strings.Contains(name, "A1C") {
			if _, ok := seen["diabetes"]; !ok {
				seen["diabetes"] = struct{}{}
				diagnoses = append(diagnoses, "diabetes")
			}
		}
		if strings.Contains(name, "HTN") || strings.Contains(name, "BP") {
			if _, ok := seen["hypertension"]; !ok {
				seen["hypertension"] = struct{}{}
				diagnoses = append(diagnoses, "hypertension")
			}
		}
	}

	return b.BuildQuery(Input{
		Diagnoses: diagnoses,
		GapTypes:  gapTypes,
	})
}

// extractSafeTerms scrubs free text down to lowercase clinical-looking
// words: no digits, no short tokens, no all-caps identifiers.
func extractSafeTerms(text string) []string {
	replaced := strings.NewReplacer(",", " ", ".", " ").Replace(text)

	var safe []string
	for _, word := range strings.Fields(replaced) {
		if containsDigit(word) {
			continue
		}
		if len(word) < 3 {
			continue
		}
		if word == strings.ToUpper(word) {
			continue
		}
		safe = append(safe, strings.ToLower(word))
	}
	return safe
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func matchesAny(medications, keywords []string) bool {
	for _, med := range medications {
		lower := strings.ToLower(med)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}
