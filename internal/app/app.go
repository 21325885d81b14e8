// Package app wires configuration into the concrete stores, feed clients,
// and pipeline shared by the server and sync binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	blopadapter "github.com/couchcryptid/protest-map-etl/internal/adapter/blop"
	"github.com/couchcryptid/protest-map-etl/internal/adapter/fsblob"
	kafkaadapter "github.com/couchcryptid/protest-map-etl/internal/adapter/kafka"
	"github.com/couchcryptid/protest-map-etl/internal/adapter/mapbox"
	mobilizeadapter "github.com/couchcryptid/protest-map-etl/internal/adapter/mobilize"
	s3adapter "github.com/couchcryptid/protest-map-etl/internal/adapter/s3"
	"github.com/couchcryptid/protest-map-etl/internal/config"
	"github.com/couchcryptid/protest-map-etl/internal/domain"
	"github.com/couchcryptid/protest-map-etl/internal/observability"
	"github.com/couchcryptid/protest-map-etl/internal/pipeline"
	"github.com/couchcryptid/protest-map-etl/internal/store"
)

// App holds the wired collaborators.
type App struct {
	Pipeline   *pipeline.Pipeline
	Manual     *store.ManualStore
	Overrides  *store.OverrideStore
	Suppressed *store.SuppressionStore
	Geocoder   domain.Geocoder // nil when geocoding is disabled

	publisher *kafkaadapter.Publisher
	logger    *slog.Logger
}

// Build constructs every collaborator from config.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*App, error) {
	blob, err := newBlob(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		geocoder = mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger)
		logger.Info("mapbox geocoding enabled", "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	manual := store.NewManualStore(blob)
	overrides := store.NewOverrideStore(blob)
	suppressed := store.NewSuppressionStore(blob)

	var publisher *kafkaadapter.Publisher
	deps := pipeline.Deps{
		Mobilize:     mobilizeadapter.NewClient(cfg.MobilizeBaseURL, cfg.MobilizeOrgIDs, cfg.MobilizeTimeout, logger),
		Blop:         blopadapter.NewClient(cfg.BlopCSVURL, cfg.BlopTimeout, logger),
		Geocoder:     geocoder,
		BlopGeocoder: store.NewGeocache(blob, domain.SourceBlop, geocoder, logger),
		MobilizeSnap: store.NewSnapshotStore(blob, domain.SourceMobilize),
		BlopSnap:     store.NewSnapshotStore(blob, domain.SourceBlop),
		Manual:       manual,
		Overrides:    overrides,
		Suppressed:   suppressed,
	}
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		deps.Publisher = publisher
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	}

	opts := pipeline.Options{
		IncludeMobilize: cfg.IncludeMobilize,
		IncludeBlop:     cfg.IncludeBlop,
		IncludeManual:   cfg.IncludeManual,
		StartDate:       cfg.StartDate,
		Bounds:          cfg.Bounds,
		BlopTimezone:    cfg.BlopTimezone,
		SyncInterval:    cfg.SyncInterval,
	}

	return &App{
		Pipeline:   pipeline.New(deps, opts, logger, metrics),
		Manual:     manual,
		Overrides:  overrides,
		Suppressed: suppressed,
		Geocoder:   geocoder,
		publisher:  publisher,
		logger:     logger,
	}, nil
}

// Close releases held connections.
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("kafka publisher close error", "error", err)
		}
	}
}

func newBlob(ctx context.Context, cfg *config.Config) (store.Blob, error) {
	switch cfg.StorageBackend {
	case "s3":
		return s3adapter.NewBlobStore(ctx, s3adapter.Options{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
		})
	case "file":
		return fsblob.New(cfg.DataDir), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}
