package api

import (
	"context"

	"github.com/ritzau/coupling-analyzer/pkg/config"
	"github.com/ritzau/coupling-analyzer/pkg/model"
)

// Source represents a provider of the pre-parsed program model.
// Implementations encapsulate how the model is obtained (a model file, a
// parser, a remote index) and hand it over as a model.Project.
type Source interface {
	// Name returns the unique name of the source (e.g., "ModelFile").
	Name() string

	// Load returns the project model.
	// It should respect the context for cancellation.
	Load(ctx context.Context, cfg *config.Config) (*model.Project, error)
}
