package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	cliv3 "github.com/urfave/cli/v3"

	"github.com/kmufti7/careflow/pkg/cli/config"
	"github.com/kmufti7/careflow/pkg/domain/types"
	"github.com/kmufti7/careflow/pkg/usecase"
	"github.com/kmufti7/careflow/pkg/utils/safe"
)

func cmdQuery() *cliv3.Command {
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var retrievalCfg config.Retrieval
	var patientID string
	var seedFirst bool

	flags := []cliv3.Flag{
		&cliv3.StringFlag{
			Name:        "patient",
			Aliases:     []string{"p"},
			Usage:       "Patient ID the query refers to",
			Destination: &patientID,
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
		Name:      "query",
		Aliases:   []string{"q"},
		Usage:     "Ask a clinical question about a patient",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cliv3.Command) error {
			if c.Args().Len() == 0 {
				return goerr.New("a question is required")
			}
			question := strings.Join(c.Args().Slice(), " ")

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

			result, err := uc.ProcessQuery(ctx, usecase.QueryInput{
				Query:     question,
				PatientID: types.PatientID(patientID),
			})
			if err != nil {
				return err
			}

			dimColor.Printf("plan %s (%s)\n", result.PlanID, result.Intent)
			for _, step := range result.Steps {
				status := "ok"
				if step.Skipped {
					status = "skipped"
				} else if !step.Success {
					status = "failed"
				}
				dimColor.Printf("  %d. %s [%s] %s\n", step.Step, step.Action, status, step.Detail)
			}

			fmt.Println()
			fmt.Println(result.Response)
			return nil
		},
	}
}
