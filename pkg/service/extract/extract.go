package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/m-mizutani/gollem"

	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
	"github.com/kmufti7/careflow/pkg/utils/logging"
)

// Extractor pulls structured clinical facts out of free-text notes. It is
// regex-first: the LLM is consulted only for fields the patterns missed,
// and regex results always win over LLM results on merge.
type Extractor struct {
	llmClient gollem.LLMClient
}

// Option is a functional option for Extractor configuration
type Option func(*Extractor)

// WithLLMClient enables the LLM fallback for fields the regex pass missed.
// Without it the extractor is regex-only.
func WithLLMClient(client gollem.LLMClient) Option {
	return func(e *Extractor) {
		e.llmClient = client
	}
}

// New creates a new fact extractor
func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var (
	// "A1C: 8.2%", "A1C 8.2", "HbA1c: 8.2%", "A1C of 8.2%"
	a1cPattern = regexp.MustCompile(`(?i)(?:A1C|HbA1c|Hemoglobin A1c)[\s:]*(?:of\s+)?(\d+\.?\d*)\s*%?`)

	// "BP: 140/90", "BP 140/90 mmHg", "Blood Pressure: 140/90"
	bpPattern = regexp.MustCompile(`(?i)(?:BP|Blood\s*Pressure)[\s:]*(\d{2,3})\s*/\s*(\d{2,3})(?:\s*mmHg)?`)

	// Section headings and the headings that terminate them. The boundary
	// sets are intentionally asymmetric: an Assessment section ends at
	// Plan or Medications, a Medications section ends at Plan or
	// Assessment.
	assessmentHeading  = regexp.MustCompile(`(?i)(?:Assessment|Dx|Diagnosis|Diagnoses|A/P)[\s:]*\n?`)
	assessmentBoundary = regexp.MustCompile(`(?i)\n\s*(?:Plan|Current Medications|Medications)`)
	medsHeading        = regexp.MustCompile(`(?i)(?:Current\s+Medications|Medications|Meds)[\s:]*\n?`)
	medsBoundary       = regexp.MustCompile(`(?i)\n\s*(?:Plan|Assessment)`)

	// Bullet lines within a section. The diagnosis pattern drops a
	// trailing "- qualifier" clause.
	diagnosisLine  = regexp.MustCompile(`(?m)[-•]\s*(.+?)(?:\s*[-–]\s*.+)?$`)
	medicationLine = regexp.MustCompile(`(?m)[-•]\s*(.+?)$`)

	negationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^no\s+`),
		regexp.MustCompile(`^no\s+evidence\s+of\s+`),
		regexp.MustCompile(`^denies\s+`),
		regexp.MustCompile(`^negative\s+for\s+`),
		regexp.MustCompile(`^without\s+`),
		regexp.MustCompile(`^ruled\s+out\s+`),
	}

	diagnosisSuffix = regexp.MustCompile(`(?i)\s*[-–]\s*(?:controlled|at goal|not at goal|suboptimally controlled|poorly controlled|well controlled|stable|new diagnosis.*?)$`)

	parenthetical = regexp.MustCompile(`\s*\([^)]+\)\s*`)
)

// diagnosisKeywords maps substrings to canonical diagnosis names. Order
// matters: entries are checked first to last and the first hit wins.
var diagnosisKeywords = []struct {
	keyword    string
	normalized string
}{
	{"diabetes", "Type 2 Diabetes Mellitus"},
	{"type 2 diabetes", "Type 2 Diabetes Mellitus"},
	{"dm", "Type 2 Diabetes Mellitus"},
	{"t2dm", "Type 2 Diabetes Mellitus"},
	{"hypertension", "Essential Hypertension"},
	{"htn", "Essential Hypertension"},
	{"essential hypertension", "Essential Hypertension"},
	{"ckd", "Chronic Kidney Disease"},
	{"chronic kidney disease", "Chronic Kidney Disease"},
}

// Extract pulls clinical facts from a note. If the regex pass is incomplete
// and an LLM client is configured, the missing fields are requested from the
// LLM and merged in. An LLM failure degrades the result instead of failing
// the extraction: the regex facts are kept with confidence zero.
func (e *Extractor) Extract(ctx context.Context, noteText string) *model.ExtractedFacts {
	facts := e.extractWithRegex(noteText)

	if facts.IsComplete() || e.llmClient == nil {
		return facts
	}

	missing := facts.MissingFields()
	llmFacts, err := e.extractWithLLM(ctx, noteText, missing)
	if err != nil {
		logging.From(ctx).Warn("LLM fallback extraction failed, keeping regex results",
			"missing", missing,
			"error", err,
		)
		facts.ExtractionMethod = types.ExtractionLLMFailed
		facts.Confidence = 0.0
		if facts.RawExtractions == nil {
			facts.RawExtractions = map[string]string{}
		}
		facts.RawExtractions["llm_error"] = err.Error()
		return facts
	}

	return mergeFacts(facts, llmFacts)
}

func (e *Extractor) extractWithRegex(noteText string) *model.ExtractedFacts {
	raw := map[string]string{}

	var a1c *float64
	if m := a1cPattern.FindStringSubmatch(noteText); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			a1c = &v
			raw["a1c_match"] = m[0]
		}
	}

	var bp *model.BloodPressure
	if m := bpPattern.FindStringSubmatch(noteText); m != nil {
		sys, errS := strconv.Atoi(m[1])
		dia, errD := strconv.Atoi(m[2])
		if errS == nil && errD == nil {
			bp = &model.BloodPressure{Systolic: sys, Diastolic: dia}
			raw["bp_match"] = m[0]
		}
	}

	var diagnoses []string
	if section, ok := extractSection(noteText, assessmentHeading, assessmentBoundary); ok {
		raw["assessment_section"] = strings.TrimSpace(section)
		for _, m := range diagnosisLine.FindAllStringSubmatch(section, -1) {
			dx := strings.TrimSpace(m[1])
			if dx == "" {
				continue
			}
			normalized := normalizeDiagnosis(dx)
			if normalized != "" && !contains(diagnoses, normalized) {
				diagnoses = append(diagnoses, normalized)
			}
		}
	}

	var medications []string
	if section, ok := extractSection(noteText, medsHeading, medsBoundary); ok {
		raw["medications_section"] = strings.TrimSpace(section)
		for _, m := range medicationLine.FindAllStringSubmatch(section, -1) {
			med := strings.TrimSpace(m[1])
			if med == "" {
				continue
			}
			cleaned := cleanMedication(med)
			if cleaned != "" && !contains(medications, cleaned) {
				medications = append(medications, cleaned)
			}
		}
	}

	confidence := 0.7
	if a1c != nil && bp != nil && len(diagnoses) > 0 && len(medications) > 0 {
		confidence = 1.0
	}

	return &model.ExtractedFacts{
		A1C:              a1c,
		BloodPressure:    bp,
		Diagnoses:        diagnoses,
		Medications:      medications,
		ExtractionMethod: types.ExtractionRegex,
		Confidence:       confidence,
		RawExtractions:   raw,
	}
}

// extractSection returns the text between a section heading and the next
// terminating heading (or end of note). The first heading occurrence wins,
// even when it appears mid-sentence.
func extractSection(text string, heading, boundary *regexp.Regexp) (string, bool) {
	loc := heading.FindStringIndex(text)
	if loc == nil {
		return "", false
	}

	rest := text[loc[1]:]
	if b := boundary.FindStringIndex(rest); b != nil {
		rest = rest[:b[0]]
	}

	return rest, true
}

// normalizeDiagnosis maps a raw diagnosis line to its canonical name.
// Negated mentions return empty. Negation is checked against the line
// before qualifier suffixes are stripped.
func normalizeDiagnosis(dx string) string {
	lower := strings.ToLower(dx)
	for _, p := range negationPatterns {
		if p.MatchString(lower) {
			return ""
		}
	}

	cleaned := strings.TrimSpace(diagnosisSuffix.ReplaceAllString(dx, ""))

	lower = strings.ToLower(cleaned)
	for _, kw := range diagnosisKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.normalized
		}
	}

	return cleaned
}

// cleanMedication strips parenthetical notes and normalizes whitespace.
func cleanMedication(med string) string {
	cleaned := parenthetical.ReplaceAllString(med, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}

// mergeFacts overlays LLM results onto regex results. Regex wins wherever
// it found something.
func mergeFacts(regexFacts, llmFacts *model.ExtractedFacts) *model.ExtractedFacts {
	merged := &model.ExtractedFacts{
		A1C:              regexFacts.A1C,
		BloodPressure:    regexFacts.BloodPressure,
		Diagnoses:        regexFacts.Diagnoses,
		Medications:      regexFacts.Medications,
		ExtractionMethod: types.ExtractionHybrid,
		Confidence:       0.85,
		RawExtractions:   map[string]string{},
	}

	if merged.A1C == nil {
		merged.A1C = llmFacts.A1C
	}
	if merged.BloodPressure == nil {
		merged.BloodPressure = llmFacts.BloodPressure
	}
	if len(merged.Diagnoses) == 0 {
		merged.Diagnoses = llmFacts.Diagnoses
	}
	if len(merged.Medications) == 0 {
		merged.Medications = llmFacts.Medications
	}

	for k, v := range regexFacts.RawExtractions {
		merged.RawExtractions[k] = v
	}
	for k, v := range llmFacts.RawExtractions {
		merged.RawExtractions[k] = v
	}

	return merged
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
