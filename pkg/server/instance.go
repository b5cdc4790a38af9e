package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mquery-dev/api/pkg/logging"
	"github.com/mquery-dev/api/pkg/store"
	"go.uber.org/zap"
)

const (
	// instanceDocumentID cannot collide with an image reference
	instanceDocumentID = "_mquery/instance-id"
)

type instanceDocument struct {
	InstanceID string `json:"instanceId"`
}

// GetOrCreateInstanceID retrieves or creates a unique instance ID for this API.
// The ID is stored in the document store to persist across restarts.
func GetOrCreateInstanceID(ctx context.Context, s store.Store) (string, error) {
	id, err := loadInstanceID(ctx, s)
	if err == nil {
		logging.Logger.Info("Loaded existing API instance ID", zap.String("id", id))
		return id, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	// Generate new instance ID
	instanceID := uuid.New().String()
	logging.Logger.Info("Generated new API instance ID", zap.String("id", instanceID))

	body, err := json.Marshal(instanceDocument{InstanceID: instanceID})
	if err != nil {
		return "", fmt.Errorf("failed to encode instance ID: %w", err)
	}

	_, err = s.Insert(ctx, &store.Document{ID: instanceDocumentID, Body: body})
	if errors.Is(err, store.ErrConflict) {
		// Another replica created it first
		return loadInstanceID(ctx, s)
	}
	if err != nil {
		return "", fmt.Errorf("failed to save instance ID: %w", err)
	}

	logging.Logger.Info("Saved instance ID to document store")
	return instanceID, nil
}

func loadInstanceID(ctx context.Context, s store.Store) (string, error) {
	doc, err := s.Get(ctx, instanceDocumentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to read instance ID: %w", err)
	}

	var stored instanceDocument
	if err := json.Unmarshal(doc.Body, &stored); err != nil {
		return "", fmt.Errorf("invalid instance ID document: %w", err)
	}
	if stored.InstanceID == "" {
		return "", errors.New("instance ID document is empty")
	}
	return stored.InstanceID, nil
}
