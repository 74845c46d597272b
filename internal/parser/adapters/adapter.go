// Package adapters defines the source adapter contract and registry.
//
// An adapter owns one provider's endpoint configuration and turns its wire
// format into validated canonical Match records. All shared concerns
// (rate limiting, retry, proxying, identity rotation) live in the injected
// HTTP client, so a concrete adapter is endpoint templates plus a mapping
// function.
package adapters

import (
	"context"

	"github.com/MinorTermite/prizmbet-v2/internal/pkg/config"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/httpclient"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/models"
)

// Adapter is one upstream odds source.
type Adapter interface {
	// Name returns the adapter's registry name; it also prefixes every
	// ExternalID the adapter emits.
	Name() string

	// FetchAndParse performs the provider's fetch sequence and maps raw
	// events into Match records. A missing credential is reported as
	// apperrors.ErrConfigMissing with an empty result; malformed individual
	// events are skipped, never failing the whole batch.
	FetchAndParse(ctx context.Context) ([]models.Match, error)

	// Close releases adapter-held resources. Called exactly once per run
	// for every adapter, including failed ones.
	Close() error
}

// Deps are the shared services injected into every adapter.
type Deps struct {
	Config *config.Config
	Client *httpclient.Client
}
