// Package inspector fetches raw manifest data for images from registries
// or a local Docker daemon.
package inspector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/mquery-dev/api/pkg/archlist"
	"github.com/mquery-dev/api/pkg/logging"
	"go.uber.org/zap"
)

// RegistryInspector reads manifests straight from the image registry
type RegistryInspector struct {
	keychain authn.Keychain
	timeout  time.Duration
	fallback archlist.Inspector
}

// RegistryOption configures a RegistryInspector
type RegistryOption func(*RegistryInspector)

// WithKeychain sets the credentials used for registry access
func WithKeychain(kc authn.Keychain) RegistryOption {
	return func(ri *RegistryInspector) {
		ri.keychain = kc
	}
}

// WithTimeout bounds each inspection
func WithTimeout(timeout time.Duration) RegistryOption {
	return func(ri *RegistryInspector) {
		ri.timeout = timeout
	}
}

// WithFallback sets the inspector tried when the registry lookup fails
func WithFallback(fallback archlist.Inspector) RegistryOption {
	return func(ri *RegistryInspector) {
		ri.fallback = fallback
	}
}

// NewRegistryInspector creates a registry inspector using the default keychain
func NewRegistryInspector(opts ...RegistryOption) *RegistryInspector {
	ri := &RegistryInspector{
		keychain: authn.DefaultKeychain,
	}
	for _, opt := range opts {
		opt(ri)
	}
	return ri
}

// Inspect returns a manifest-list marker followed by one entry per platform
// for multi-arch images, or a single entry carrying the config's platform.
// The registry attempt and the fallback each get their own timeout.
func (ri *RegistryInspector) Inspect(ctx context.Context, image string) (archlist.RawManifestData, error) {
	raw, err := ri.withTimeout(ctx, image, ri.inspectRemote)
	if err == nil {
		return raw, nil
	}
	if ri.fallback == nil {
		return nil, err
	}

	logging.Logger.Debug("Registry inspection failed, falling back",
		zap.String("image", image),
		zap.Error(err))
	raw, fbErr := ri.withTimeout(ctx, image, ri.fallback.Inspect)
	if fbErr != nil {
		return nil, errors.Join(err, fbErr)
	}
	return raw, nil
}

func (ri *RegistryInspector) withTimeout(ctx context.Context, image string, fn func(context.Context, string) (archlist.RawManifestData, error)) (archlist.RawManifestData, error) {
	if ri.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ri.timeout)
		defer cancel()
	}
	return fn(ctx, image)
}

func (ri *RegistryInspector) inspectRemote(ctx context.Context, image string) (archlist.RawManifestData, error) {
	ref, err := name.ParseReference(image)
	if err != nil {
		return nil, fmt.Errorf("failed to parse image reference: %w", err)
	}

	opts := []remote.Option{
		remote.WithContext(ctx),
		remote.WithAuthFromKeychain(ri.keychain),
	}

	desc, err := remote.Get(ref, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image descriptor: %w", err)
	}

	repoTags := ri.listTags(ref, opts)
	tag := referenceTag(ref)

	logging.Logger.Debug("Fetched image descriptor",
		zap.String("image", image),
		zap.String("digest", desc.Digest.String()),
		zap.String("media_type", string(desc.MediaType)))

	if desc.MediaType.IsIndex() {
		idx, err := desc.ImageIndex()
		if err != nil {
			return nil, fmt.Errorf("failed to read image index: %w", err)
		}
		indexManifest, err := idx.IndexManifest()
		if err != nil {
			return nil, fmt.Errorf("failed to read index manifest: %w", err)
		}

		raw := archlist.RawManifestData{{
			MediaType: string(desc.MediaType),
			RepoTags:  repoTags,
			Tag:       tag,
		}}
		for _, m := range indexManifest.Manifests {
			raw = append(raw, archlist.ManifestEntry{
				MediaType: string(m.MediaType),
				RepoTags:  repoTags,
				Tag:       tag,
				Platform:  toManifestPlatform(m.Platform),
			})
		}
		return raw, nil
	}

	img, err := desc.Image()
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	configFile, err := img.ConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to read image config: %w", err)
	}

	return archlist.RawManifestData{{
		MediaType:    string(desc.MediaType),
		RepoTags:     repoTags,
		Tag:          tag,
		Architecture: configFile.Architecture,
		Os:           configFile.OS,
	}}, nil
}

// listTags is best effort; registries that refuse tag listing still answer the query
func (ri *RegistryInspector) listTags(ref name.Reference, opts []remote.Option) []string {
	tags, err := remote.List(ref.Context(), opts...)
	if err != nil {
		logging.Logger.Debug("Failed to list repository tags",
			zap.String("repository", ref.Context().String()),
			zap.Error(err))
		return nil
	}
	return tags
}

func referenceTag(ref name.Reference) string {
	if tagged, ok := ref.(name.Tag); ok {
		return tagged.TagStr()
	}
	return ""
}

func toManifestPlatform(p *v1.Platform) *archlist.ManifestPlatform {
	if p == nil {
		return nil
	}
	return &archlist.ManifestPlatform{
		Architecture: p.Architecture,
		OS:           p.OS,
		Variant:      p.Variant,
	}
}
