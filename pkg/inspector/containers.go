package inspector

import (
	"context"
	"fmt"

	"github.com/containers/image/v5/docker"
	"github.com/containers/image/v5/docker/reference"
	"github.com/containers/image/v5/image"
	"github.com/containers/image/v5/manifest"
	"github.com/containers/image/v5/types"
	"github.com/mquery-dev/api/pkg/archlist"
	"github.com/mquery-dev/api/pkg/logging"
	imgspecv1 "github.com/opencontainers/image-spec/specs-go/v1"
	"go.uber.org/zap"
)

// ContainersInspector reads manifests through containers/image, which
// honours registries.conf mirrors and the local auth files
type ContainersInspector struct {
	systemContext *types.SystemContext
}

// NewContainersInspector creates an inspector with default TLS settings
func NewContainersInspector() *ContainersInspector {
	return &ContainersInspector{
		systemContext: &types.SystemContext{
			DockerInsecureSkipTLSVerify: types.OptionalBoolFalse,
		},
	}
}

// Inspect fetches the manifest of image and expands manifest lists into per-platform entries
func (ci *ContainersInspector) Inspect(ctx context.Context, imageRef string) (archlist.RawManifestData, error) {
	ref, err := docker.ParseReference("//" + imageRef)
	if err != nil {
		return nil, fmt.Errorf("failed to parse image reference: %w", err)
	}

	source, err := ref.NewImageSource(ctx, ci.systemContext)
	if err != nil {
		return nil, fmt.Errorf("failed to create image source: %w", err)
	}
	defer source.Close()

	manifestBytes, manifestType, err := source.GetManifest(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get manifest: %w", err)
	}

	repoTags := ci.listTags(ctx, ref)
	var tag string
	if tagged, ok := ref.DockerReference().(reference.NamedTagged); ok {
		tag = tagged.Tag()
	}

	if manifest.MIMETypeIsMultiImage(manifestType) {
		list, err := manifest.ListFromBlob(manifestBytes, manifestType)
		if err != nil {
			return nil, fmt.Errorf("failed to parse manifest list: %w", err)
		}

		raw := archlist.RawManifestData{{
			MediaType: manifestType,
			RepoTags:  repoTags,
			Tag:       tag,
		}}
		for _, instanceDigest := range list.Instances() {
			instance, err := list.Instance(instanceDigest)
			if err != nil {
				return nil, fmt.Errorf("failed to read manifest list instance %s: %w", instanceDigest, err)
			}
			raw = append(raw, archlist.ManifestEntry{
				MediaType: instance.MediaType,
				RepoTags:  repoTags,
				Tag:       tag,
				Platform:  fromOCIPlatform(instance.ReadOnly.Platform),
			})
		}
		return raw, nil
	}

	img, err := image.FromUnparsedImage(ctx, ci.systemContext, image.UnparsedInstance(source, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create image from source: %w", err)
	}
	info, err := img.Inspect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect image: %w", err)
	}

	logging.Logger.Debug("Inspected single manifest",
		zap.String("image", imageRef),
		zap.String("manifest_type", manifestType),
		zap.String("platform", info.Os+"/"+info.Architecture))

	return archlist.RawManifestData{{
		MediaType:    manifestType,
		RepoTags:     repoTags,
		Tag:          tag,
		Architecture: info.Architecture,
		Os:           info.Os,
	}}, nil
}

func (ci *ContainersInspector) listTags(ctx context.Context, ref types.ImageReference) []string {
	tags, err := docker.GetRepositoryTags(ctx, ci.systemContext, ref)
	if err != nil {
		logging.Logger.Debug("Failed to list repository tags",
			zap.String("image", ref.StringWithinTransport()),
			zap.Error(err))
		return nil
	}
	return tags
}

func fromOCIPlatform(p *imgspecv1.Platform) *archlist.ManifestPlatform {
	if p == nil {
		return nil
	}
	return &archlist.ManifestPlatform{
		Architecture: p.Architecture,
		OS:           p.OS,
		Variant:      p.Variant,
	}
}
