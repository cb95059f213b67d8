package app

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/assay/internal/artifact"
	"github.com/blackwell-systems/assay/internal/config"
	"github.com/blackwell-systems/assay/internal/evaluation"
	"github.com/blackwell-systems/assay/internal/output"
	"github.com/blackwell-systems/assay/internal/replay"
	"github.com/blackwell-systems/assay/internal/session"
	"github.com/blackwell-systems/assay/internal/store"
	"github.com/blackwell-systems/assay/internal/stream"
)

// runtime wires the configured services for a command invocation.
type runtime struct {
	cfg       *config.Config
	db        *store.DB
	backend   *artifact.FSBackend
	artifacts *artifact.Store
	sessions  *session.Service
	replay    *replay.Service
	engine    *evaluation.Engine
}

// openRuntime loads config and opens the database and services. Callers
// must Close when done.
func openRuntime() (*runtime, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if flagNoColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		output.SetNoColor(true)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	secret := cfg.Artifacts.SigningSecret
	if secret == "" {
		// Local-only fallback: URLs minted with it are only honored by a
		// server configured with the same empty secret.
		secret = "assay-local"
	}
	backend := artifact.NewFSBackend(cfg.ArtifactRoot(), artifact.NewSigner(secret))
	artifacts := artifact.NewStore(backend, db)

	replaySvc := replay.New(db, artifacts)
	return &runtime{
		cfg:       cfg,
		db:        db,
		backend:   backend,
		artifacts: artifacts,
		sessions:  session.NewService(db, artifacts, cfg.Backoff.Policy(), cfg.Artifacts.InlineLimit),
		replay:    replaySvc,
		engine:    evaluation.NewEngine(db, replaySvc, cfg.Weights, cfg.Analyzer),
	}, nil
}

// broadcaster creates the live fan-out hub and installs it as the store's
// append hook. Used by serve, which owns the only long-lived process.
func (rt *runtime) broadcaster() *stream.Broadcaster {
	b := stream.New(rt.db, rt.cfg.Stream.Buffer)
	rt.db.SetAppendHook(b.Publish)
	return b
}

func (rt *runtime) Close() error {
	return rt.db.Close()
}
