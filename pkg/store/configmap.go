package store

import (
	"context"
	"fmt"

	"github.com/mquery-dev/api/pkg/k8s"
	"github.com/mquery-dev/api/pkg/logging"
	"github.com/opencontainers/go-digest"
	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	configMapPrefix    = "archlist-"
	configMapDataKey   = "document"
	documentIDAnnot    = "mquery.dev/document-id"
	managedByLabel     = "app.kubernetes.io/managed-by"
	managedByLabelName = "mquery"
)

// ConfigMapStore keeps each document in its own ConfigMap.
// The ConfigMap resourceVersion is the document revision.
type ConfigMapStore struct {
	client    *k8s.Client
	namespace string
}

// NewConfigMapStore creates a store writing ConfigMaps into namespace
func NewConfigMapStore(client *k8s.Client, namespace string) *ConfigMapStore {
	return &ConfigMapStore{
		client:    client,
		namespace: namespace,
	}
}

// ConfigMapName derives a valid object name from an arbitrary document ID
func ConfigMapName(id string) string {
	return configMapPrefix + digest.FromString(id).Encoded()
}

// Get retrieves the document stored under id
func (s *ConfigMapStore) Get(ctx context.Context, id string) (*Document, error) {
	cm, err := s.client.GetConfigMap(ctx, s.namespace, ConfigMapName(id))
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get configmap for %s: %w", id, err)
	}

	body, ok := cm.Data[configMapDataKey]
	if !ok {
		return nil, fmt.Errorf("configmap %s has no %s key", cm.Name, configMapDataKey)
	}

	return &Document{
		ID:   id,
		Rev:  cm.ResourceVersion,
		Body: []byte(body),
	}, nil
}

// Insert creates the ConfigMap when doc has no revision, otherwise updates it
// guarded by the revision as resourceVersion
func (s *ConfigMapStore) Insert(ctx context.Context, doc *Document) (string, error) {
	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:            ConfigMapName(doc.ID),
			Namespace:       s.namespace,
			ResourceVersion: doc.Rev,
			Labels: map[string]string{
				managedByLabel: managedByLabelName,
			},
			Annotations: map[string]string{
				documentIDAnnot: doc.ID,
			},
		},
		Data: map[string]string{
			configMapDataKey: string(doc.Body),
		},
	}

	if doc.Rev == "" {
		if err := s.client.CreateConfigMap(ctx, cm); err != nil {
			if apierrors.IsAlreadyExists(err) {
				return "", ErrConflict
			}
			return "", fmt.Errorf("failed to create configmap for %s: %w", doc.ID, err)
		}
	} else {
		if err := s.client.UpdateConfigMap(ctx, cm); err != nil {
			if apierrors.IsConflict(err) || apierrors.IsNotFound(err) {
				return "", ErrConflict
			}
			return "", fmt.Errorf("failed to update configmap for %s: %w", doc.ID, err)
		}
	}

	logging.Logger.Debug("Stored document in configmap",
		zap.String("id", doc.ID),
		zap.String("configmap", cm.Name),
		zap.String("resource_version", cm.ResourceVersion))

	return cm.ResourceVersion, nil
}
