package bootstrap

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"

	vertexclient "github.com/jackjack22202/carbonweb-sales-dashboard/internal/client/vertex"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/config"
	"github.com/jackjack22202/carbonweb-sales-dashboard/pkg/logger"
)

type Bootstrap struct {
	Log           *slog.Logger
	Firestore     *firestore.Client
	VertexAdapter *vertexclient.Adapter

	// MondayToken is the effective CRM token after secret resolution.
	// Empty means the dashboard endpoint answers 503.
	MondayToken string
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx := context.Background()
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewCloudRunHandler)

	bs.MondayToken = cfg.MondayToken
	if cfg.MondayTokenSecret != "" {
		bs.MondayToken, err = ResolveSecret(applicationCtx, cfg.MondayTokenSecret)
		if err != nil {
			return bs, err
		}
	}

	if cfg.SettingsBackend == "firestore" {
		bs.Firestore, err = InitFirestore(applicationCtx, cfg.ProjectID)
		if err != nil {
			return bs, err
		}
	}

	// Enrichment is optional: no model configured means the deterministic
	// news copy is served as-is.
	if cfg.VertexModel != "" && cfg.ProjectID != "" {
		bs.VertexAdapter, err = vertexclient.NewAdapter(applicationCtx, bs.Log, cfg.ProjectID, cfg.Region, cfg.VertexModel)
		if err != nil {
			return bs, err
		}
	}

	return bs, nil
}

func (bs *Bootstrap) Close() {
	if bs.VertexAdapter != nil {
		_ = bs.VertexAdapter.Close()
	}
	if bs.Firestore != nil {
		if err := bs.Firestore.Close(); err != nil && bs.Log != nil {
			bs.Log.Error("firestore close failed", "error", err)
		}
	}
}
