package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	cliv3 "github.com/urfave/cli/v3"

	"github.com/kmufti7/careflow/pkg/cli/config"
	"github.com/kmufti7/careflow/pkg/domain/types"
	"github.com/kmufti7/careflow/pkg/usecase"
	"github.com/kmufti7/careflow/pkg/utils/safe"
)

func cmdAnalyze() *cliv3.Command {
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var retrievalCfg config.Retrieval
	var all bool
	var book bool
	var seedFirst bool

	flags := []cliv3.Flag{
		&cliv3.BoolFlag{
			Name:        "all",
			Usage:       "Analyze every patient",
			Destination: &all,
		},
		&cliv3.BoolFlag{
			Name:        "book",
			Usage:       "Book referral appointments for detected gaps",
			Destination: &book,
		},
		&cliv3.BoolFlag{
			Name:        "seed",
			Usage:       "Load the demo knowledge base first (for the memory backend)",
			Destination: &seedFirst,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, retrievalCfg.Flags()...)

	return &cliv3.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Run care-gap analysis on a patient's latest note",
		ArgsUsage: "[patient ID]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cliv3.Command) error {
			if !all && c.Args().Len() == 0 {
				return goerr.New("patient ID is required (or use --all)")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure Gemini client")
			}

			retriever, err := retrievalCfg.Configure(llmClient, repo.Guideline(), nil)
			if err != nil {
				return goerr.Wrap(err, "failed to configure guideline retrieval")
			}

			if seedFirst {
				if err := seed(ctx, repo, llmClient, false); err != nil {
					return goerr.Wrap(err, "failed to seed demo data")
				}
			}

			ucOpts := []usecase.Option{}
			if llmClient != nil {
				ucOpts = append(ucOpts, usecase.WithLLMClient(llmClient))
			}
			if retriever != nil {
				ucOpts = append(ucOpts, usecase.WithRetriever(retriever))
			}
			uc := usecase.New(repo, ucOpts...)

			var analyzeOpts []usecase.AnalyzeOption
			if retriever != nil {
				analyzeOpts = append(analyzeOpts, usecase.WithGuidelines(retrievalCfg.TopK()))
			}
			if book {
				analyzeOpts = append(analyzeOpts, usecase.WithBooking())
			}

			if all {
				results, err := uc.AnalyzeAll(ctx, analyzeOpts...)
				if err != nil {
					return err
				}
				for _, result := range results {
					printAnalysis(result)
				}
				return nil
			}

			result, err := uc.Analyze(ctx, types.PatientID(c.Args().First()), analyzeOpts...)
			if err != nil {
				return err
			}
			printAnalysis(result)
			return nil
		},
	}
}

var (
	headerColor   = color.New(color.FgCyan, color.Bold)
	highColor     = color.New(color.FgRed, color.Bold)
	moderateColor = color.New(color.FgYellow)
	lowColor      = color.New(color.FgGreen)
	dimColor      = color.New(color.Faint)
)

func severityColor(s types.Severity) *color.Color {
	switch s {
	case types.SeverityHigh:
		return highColor
	case types.SeverityModerate:
		return moderateColor
	default:
		return lowColor
	}
}

func printAnalysis(result *usecase.AnalysisResult) {
	headerColor.Printf("Patient %s - Care Gap Analysis\n", result.PatientID)
	fmt.Println(strings.Repeat("=", 50))

	facts := result.Facts
	fmt.Println("Extracted facts:")
	if facts.A1C != nil {
		fmt.Printf("  A1C: %.1f%%\n", *facts.A1C)
	}
	if facts.BloodPressure != nil {
		fmt.Printf("  BP: %d/%d mmHg\n", facts.BloodPressure.Systolic, facts.BloodPressure.Diastolic)
	}
	if len(facts.Diagnoses) > 0 {
		fmt.Printf("  Diagnoses: %s\n", strings.Join(facts.Diagnoses, ", "))
	}
	if len(facts.Medications) > 0 {
		fmt.Printf("  Medications: %s\n", strings.Join(facts.Medications, ", "))
	}
	dimColor.Printf("  (method: %s, confidence: %.0f%%)\n", facts.ExtractionMethod, facts.Confidence*100)

	rr := result.Reasoning
	detected := rr.Detected()
	if len(detected) > 0 {
		fmt.Printf("\nGaps identified (%d):\n", len(detected))
		for _, gap := range detected {
			severityColor(gap.Severity).Printf("  [%s] %s\n", strings.ToUpper(gap.Severity.String()), gap.GapType)
			fmt.Printf("    %s\n", gap.Therefore)
			fmt.Printf("    Recommendation: %s\n", gap.Recommendation)
			dimColor.Printf("    Guideline: %s\n", gap.GuidelineID)
		}
	} else {
		lowColor.Println("\nNo care gaps identified.")
	}

	if closed := rr.Closed(); len(closed) > 0 {
		fmt.Printf("\nGaps closed (%d):\n", len(closed))
		for _, gap := range closed {
			fmt.Printf("  - %s: %s\n", gap.GapType, gap.Therefore)
		}
	}

	if len(result.Guidelines) > 0 {
		fmt.Println("\nRelevant guidelines:")
		for _, g := range result.Guidelines {
			fmt.Printf("  - %s (score %.2f): %s\n", g.Guideline.ID, g.Score, g.Guideline.Title)
		}
	}

	for _, b := range result.Bookings {
		if b.Success {
			lowColor.Printf("\nBooked: %s\n", b.Message)
		} else {
			moderateColor.Printf("\nBooking failed: %s\n", b.Message)
		}
	}

	fmt.Printf("\nOverall Status: %s\n\n", rr.OverallStatus)
}
