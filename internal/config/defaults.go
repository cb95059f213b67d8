// Package config provides configuration loading and defaults for assay.
package config

import (
	"time"

	"github.com/blackwell-systems/assay/internal/analyzer"
	"github.com/blackwell-systems/assay/internal/backoff"
	"github.com/blackwell-systems/assay/internal/evaluation"
	"github.com/blackwell-systems/assay/internal/session"
	"github.com/blackwell-systems/assay/internal/stream"
)

// DefaultConfigDir is the default location for assay configuration.
const DefaultConfigDir = "~/.config/assay"

// DefaultDataDir is the default location for the database and artifacts.
const DefaultDataDir = "~/.local/share/assay"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "assay.db"

// DefaultArtifactDir is the artifact root, relative to the data directory.
const DefaultArtifactDir = "artifacts"

// DefaultServeAddr is the default listen address for the serve command.
const DefaultServeAddr = "localhost:7381"

// DefaultURLTTL is the default lifetime of signed artifact URLs.
const DefaultURLTTL = 15 * time.Minute

// DefaultArtifacts holds the default artifact store settings. The signing
// secret has no default: URL signing requires one from the config file or
// ASSAY_ARTIFACTS_SIGNING_SECRET.
var DefaultArtifacts = Artifacts{
	InlineLimit: session.DefaultInlineLimit,
	URLTTL:      DefaultURLTTL,
}

// DefaultStream holds the default live-streaming settings.
var DefaultStream = Stream{
	Buffer: stream.DefaultBuffer,
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}

// DefaultWeights is the stock dimension weighting policy.
var DefaultWeights = evaluation.DefaultWeights

// DefaultTunables are the stock analyzer settings.
var DefaultTunables = analyzer.DefaultTunables

// DefaultBackoff is the stock append retry schedule.
var DefaultBackoff = backoff.Default
