package cli

import (
	"context"
	_ "embed"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/pelletier/go-toml/v2"
	cliv3 "github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/kmufti7/careflow/pkg/cli/config"
	"github.com/kmufti7/careflow/pkg/domain/interfaces"
	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
	"github.com/kmufti7/careflow/pkg/utils/logging"
	"github.com/kmufti7/careflow/pkg/utils/safe"
)

//go:embed seed/knowledge.toml
var knowledgeBase []byte

type seedData struct {
	Patients []struct {
		ID       string `toml:"id"`
		Name     string `toml:"name"`
		DOB      string `toml:"dob"`
		NoteDate string `toml:"note_date"`
		Note     string `toml:"note"`
	} `toml:"patient"`
	Doctors []struct {
		ID        string `toml:"id"`
		Name      string `toml:"name"`
		Specialty string `toml:"specialty"`
	} `toml:"doctor"`
	Guidelines []struct {
		ID        string `toml:"id"`
		Title     string `toml:"title"`
		Condition string `toml:"condition"`
		Source    string `toml:"source"`
		Text      string `toml:"text"`
	} `toml:"guideline"`
}

func cmdSeed() *cliv3.Command {
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var force bool

	flags := []cliv3.Flag{
		&cliv3.BoolFlag{
			Name:        "force",
			Usage:       "Seed even when the repository already contains patients",
			Destination: &force,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)

	return &cliv3.Command{
		Name:  "seed",
		Usage: "Load the demo knowledge base (patients, doctors, slots, guidelines)",
		Flags: flags,
		Action: func(ctx context.Context, c *cliv3.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure Gemini client")
			}

			return seed(ctx, repo, llmClient, force)
		},
	}
}

func seed(ctx context.Context, repo interfaces.Repository, llmClient gollem.LLMClient, force bool) error {
	existing, err := repo.Patient().List(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to check for existing data")
	}
	if len(existing) > 0 && !force {
		logging.From(ctx).Info("repository already contains patients, skipping seed", "count", len(existing))
		return nil
	}

	var data seedData
	if err := toml.Unmarshal(knowledgeBase, &data); err != nil {
		return goerr.Wrap(err, "failed to parse knowledge base")
	}

	for _, p := range data.Patients {
		if _, err := repo.Patient().Create(ctx, &model.Patient{
			ID:   types.PatientID(p.ID),
			Name: p.Name,
			DOB:  p.DOB,
		}); err != nil {
			return goerr.Wrap(err, "failed to create patient", goerr.V("patientID", p.ID))
		}
		if _, err := repo.Note().Create(ctx, &model.Note{
			PatientID: types.PatientID(p.ID),
			NoteDate:  p.NoteDate,
			Text:      strings.TrimSpace(p.Note),
		}); err != nil {
			return goerr.Wrap(err, "failed to create note", goerr.V("patientID", p.ID))
		}
	}
	logging.From(ctx).Info("seeded patients", "count", len(data.Patients))

	for _, d := range data.Doctors {
		if _, err := repo.Doctor().Create(ctx, &model.Doctor{
			ID:        types.DoctorID(d.ID),
			Name:      d.Name,
			Specialty: types.Specialty(d.Specialty),
		}); err != nil {
			return goerr.Wrap(err, "failed to create doctor", goerr.V("doctorID", d.ID))
		}
	}
	logging.From(ctx).Info("seeded doctors", "count", len(data.Doctors))

	slotCount, err := seedSlots(ctx, repo, data)
	if err != nil {
		return err
	}
	logging.From(ctx).Info("seeded appointment slots", "count", slotCount)

	if err := seedGuidelines(ctx, repo, llmClient, data); err != nil {
		return err
	}
	logging.From(ctx).Info("seeded guidelines", "count", len(data.Guidelines))

	return nil
}

// seedSlots spreads weekday slots over the next two weeks, rotating through
// the doctors, capped at 30.
func seedSlots(ctx context.Context, repo interfaces.Repository, data seedData) (int, error) {
	const maxSlots = 30
	base := time.Now().UTC().Truncate(24 * time.Hour).Add(9 * time.Hour)

	count := 0
	for dayOffset := 1; dayOffset <= 14 && count < maxSlots; dayOffset++ {
		day := base.AddDate(0, 0, dayOffset)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}

		for _, hourOffset := range []int{0, 2, 4} { // 9am, 11am, 1pm
			if count >= maxSlots {
				break
			}
			doctor := data.Doctors[count%len(data.Doctors)]
			if err := repo.Doctor().AddSlot(ctx, &model.Slot{
				DoctorID: types.DoctorID(doctor.ID),
				StartsAt: day.Add(time.Duration(hourOffset) * time.Hour),
			}); err != nil {
				return count, goerr.Wrap(err, "failed to create slot", goerr.V("doctorID", doctor.ID))
			}
			count++
		}
	}

	return count, nil
}

// seedEmbeddingConcurrency bounds parallel embedding requests at seed time.
const seedEmbeddingConcurrency = 4

// seedGuidelines indexes the guideline snippets. Without an LLM client the
// snippets are stored unembedded and vector search stays empty until a
// re-seed with embeddings.
func seedGuidelines(ctx context.Context, repo interfaces.Repository, llmClient gollem.LLMClient, data seedData) error {
	if llmClient == nil {
		logging.From(ctx).Warn("Gemini not configured, storing guidelines without embeddings")
	}

	embeddings := make([][]float32, len(data.Guidelines))
	if llmClient != nil {
		var eg errgroup.Group
		eg.SetLimit(seedEmbeddingConcurrency)
		for i, g := range data.Guidelines {
			eg.Go(func() error {
				text := g.Title + "\n" + strings.TrimSpace(g.Text)
				vectors, err := llmClient.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{text})
				if err != nil {
					return goerr.Wrap(err, "failed to embed guideline", goerr.V("guidelineID", g.ID))
				}
				if len(vectors) == 0 {
					return goerr.New("no embedding returned", goerr.V("guidelineID", g.ID))
				}
				embedding := make([]float32, len(vectors[0]))
				for j, v := range vectors[0] {
					embedding[j] = float32(v)
				}
				embeddings[i] = embedding
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
	}

	for i, g := range data.Guidelines {
		if _, err := repo.Guideline().Put(ctx, &model.Guideline{
			ID:        types.GuidelineID(g.ID),
			Title:     g.Title,
			Text:      strings.TrimSpace(g.Text),
			Source:    g.Source,
			Condition: g.Condition,
			Embedding: embeddings[i],
		}); err != nil {
			return goerr.Wrap(err, "failed to store guideline", goerr.V("guidelineID", g.ID))
		}
	}

	return nil
}
