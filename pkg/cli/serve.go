package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/kmufti7/careflow/pkg/cli/config"
	httpctrl "github.com/kmufti7/careflow/pkg/controller/http"
	"github.com/kmufti7/careflow/pkg/domain/interfaces"
	"github.com/kmufti7/careflow/pkg/usecase"
	"github.com/kmufti7/careflow/pkg/utils/logging"
	"github.com/kmufti7/careflow/pkg/utils/safe"
)

func cmdServe() *cli.Command {
	var addr string
	var seedFirst bool
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var retrievalCfg config.Retrieval

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("CAREFLOW_ADDR"),
			Destination: &addr,
		},
		&cli.BoolFlag{
			Name:        "seed",
			Usage:       "Load the demo knowledge base on startup (for the memory backend)",
			Sources:     cli.EnvVars("CAREFLOW_SEED"),
			Destination: &seedFirst,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, retrievalCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure Gemini client")
			}
			if llmClient == nil {
				logging.Default().Warn("Gemini not configured, running without LLM fallback and retrieval")
			}

			var cloud interfaces.GuidelineRepository
			if repoCfg.Backend() == "firestore" {
				cloud = repo.Guideline()
			}
			retriever, err := retrievalCfg.Configure(llmClient, repo.Guideline(), cloud)
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

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
