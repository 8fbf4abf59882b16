package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/urfave/cli/v3"

	"github.com/kmufti7/careflow/pkg/domain/interfaces"
	"github.com/kmufti7/careflow/pkg/service/guideline"
)

// Retrieval holds CLI flags for guideline retrieval configuration
type Retrieval struct {
	mode     string
	topK     int
	fallback bool
}

// Flags returns CLI flags for retrieval configuration
func (r *Retrieval) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "retrieval-mode",
			Usage:       "Guideline retrieval mode (local or cloud)",
			Value:       "local",
			Sources:     cli.EnvVars("CAREFLOW_RETRIEVAL_MODE"),
			Destination: &r.mode,
		},
		&cli.IntFlag{
			Name:        "retrieval-top-k",
			Usage:       "Number of guidelines to retrieve per query",
			Value:       guideline.DefaultTopK,
			Sources:     cli.EnvVars("CAREFLOW_RETRIEVAL_TOP_K"),
			Destination: &r.topK,
		},
		&cli.BoolFlag{
			Name:        "retrieval-fallback",
			Usage:       "Fall back to the local index when the cloud backend fails",
			Value:       true,
			Sources:     cli.EnvVars("CAREFLOW_RETRIEVAL_FALLBACK"),
			Destination: &r.fallback,
		},
	}
}

// TopK returns the configured retrieval depth
func (r *Retrieval) TopK() int {
	return r.topK
}

// LogAttrs returns log attributes for the retrieval configuration
func (r *Retrieval) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("mode", r.mode),
		slog.Int("top_k", r.topK),
		slog.Bool("fallback", r.fallback),
	}
}

// Configure builds the retriever. Returns nil when no LLM client is
// available, since queries cannot be embedded without one. In cloud mode the
// cloud repository is required.
func (r *Retrieval) Configure(llmClient gollem.LLMClient, local, cloud interfaces.GuidelineRepository) (*guideline.Retriever, error) {
	if llmClient == nil {
		return nil, nil
	}

	var opts []guideline.Option
	switch r.mode {
	case "local", "":
	case "cloud":
		if cloud == nil {
			return nil, goerr.New("cloud retrieval mode requires the firestore backend")
		}
		opts = append(opts, guideline.WithCloud(cloud))
		if !r.fallback {
			opts = append(opts, guideline.WithoutFallback())
		}
	default:
		return nil, goerr.New("invalid retrieval mode", goerr.V("mode", r.mode))
	}

	return guideline.New(llmClient, local, opts...)
}
