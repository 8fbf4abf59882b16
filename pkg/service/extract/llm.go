package extract

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
)

const extractionSystemPrompt = "You are a clinical data extraction assistant. Extract structured data from clinical notes. Return only valid JSON."

type llmExtraction struct {
	A1C           *float64             `json:"a1c"`
	BloodPressure *model.BloodPressure `json:"blood_pressure"`
	Diagnoses     []string             `json:"diagnoses"`
	Medications   []string             `json:"medications"`
}

// extractWithLLM asks the LLM for only the fields the regex pass missed.
func (e *Extractor) extractWithLLM(ctx context.Context, noteText string, missingFields []string) (*model.ExtractedFacts, error) {
	session, err := e.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(buildExtractionSchema(missingFields)),
		gollem.WithSessionSystemPrompt(extractionSystemPrompt),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buildExtractionPrompt(noteText, missingFields)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content from LLM")
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.New("empty LLM response")
	}

	var result llmExtraction
	if err := json.Unmarshal([]byte(resp.Texts[0]), &result); err != nil {
		return nil, goerr.Wrap(err, "failed to parse LLM response", goerr.V("response", resp.Texts[0]))
	}

	return &model.ExtractedFacts{
		A1C:              result.A1C,
		BloodPressure:    result.BloodPressure,
		Diagnoses:        result.Diagnoses,
		Medications:      result.Medications,
		ExtractionMethod: types.ExtractionLLM,
		Confidence:       0.8,
		RawExtractions:   map[string]string{"llm_response": resp.Texts[0]},
	}, nil
}

func buildExtractionPrompt(noteText string, missingFields []string) string {
	var instructions []string
	for _, field := range missingFields {
		switch field {
		case "a1c":
			instructions = append(instructions, "- a1c: The A1C/HbA1c value as a number (e.g., 8.2)")
		case "blood_pressure":
			instructions = append(instructions, `- blood_pressure: Object with "systolic" and "diastolic" integer values`)
		case "diagnoses":
			instructions = append(instructions, "- diagnoses: Array of diagnosis strings from the assessment")
		case "medications":
			instructions = append(instructions, "- medications: Array of medication strings with dosages")
		}
	}

	var sb strings.Builder
	sb.WriteString("Extract the following clinical data from this patient note. Return ONLY a JSON object with the requested fields. If a field cannot be found, use null for single values or empty array for lists.\n\n")
	sb.WriteString("Fields to extract:\n")
	sb.WriteString(strings.Join(instructions, "\n"))
	sb.WriteString("\n\nPatient Note:\n")
	sb.WriteString(noteText)
	sb.WriteString("\n\nReturn only valid JSON, no markdown formatting.")
	return sb.String()
}

func buildExtractionSchema(missingFields []string) *gollem.Parameter {
	properties := map[string]*gollem.Parameter{}
	for _, field := range missingFields {
		switch field {
		case "a1c":
			properties["a1c"] = &gollem.Parameter{
				Type:        gollem.TypeNumber,
				Description: "The A1C/HbA1c value as a number",
			}
		case "blood_pressure":
			properties["blood_pressure"] = &gollem.Parameter{
				Type:        gollem.TypeObject,
				Description: "Blood pressure reading in mmHg",
				Properties: map[string]*gollem.Parameter{
					"systolic":  {Type: gollem.TypeInteger, Required: true},
					"diastolic": {Type: gollem.TypeInteger, Required: true},
				},
			}
		case "diagnoses":
			properties["diagnoses"] = &gollem.Parameter{
				Type:        gollem.TypeArray,
				Description: "Diagnosis strings from the assessment",
				Items:       &gollem.Parameter{Type: gollem.TypeString},
			}
		case "medications":
			properties["medications"] = &gollem.Parameter{
				Type:        gollem.TypeArray,
				Description: "Medication strings with dosages",
				Items:       &gollem.Parameter{Type: gollem.TypeString},
			}
		}
	}

	return &gollem.Parameter{
		Title:       "ClinicalFactExtraction",
		Description: "Structured clinical data extracted from a patient note",
		Type:        gollem.TypeObject,
		Properties:  properties,
	}
}
