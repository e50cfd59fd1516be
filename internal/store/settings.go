package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/errs"
)

// settingsStore keeps the dashboard settings in a single Firestore
// document. The service layer owns merge semantics; this layer only
// moves the raw document.
type settingsStore struct {
	client *firestore.Client
}

func NewSettingsStore(client *firestore.Client) *settingsStore {
	return &settingsStore{client: client}
}

func (s *settingsStore) doc() *firestore.DocumentRef {
	return s.client.Collection("dashboard").Doc("settings")
}

func (s *settingsStore) Get(ctx context.Context) (map[string]any, error) {
	doc, err := s.doc().Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("settings not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get settings", err)
	}
	return doc.Data(), nil
}

func (s *settingsStore) Set(ctx context.Context, values map[string]any) error {
	data := make(map[string]any, len(values)+1)
	for k, v := range values {
		data[k] = v
	}
	data["updatedAt"] = time.Now()

	if _, err := s.doc().Set(ctx, data); err != nil {
		return errs.NewDatabaseError("write", "failed to store settings", err)
	}
	return nil
}
