package inspector

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/mquery-dev/api/pkg/archlist"
	"github.com/mquery-dev/api/pkg/logging"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"go.uber.org/zap"
)

// Docker schema 2 single-manifest media type, used for list children the daemon does not describe
const dockerManifestMediaType = "application/vnd.docker.distribution.manifest.v2+json"

// distributionClient is the part of the Docker API the daemon inspector needs
type distributionClient interface {
	DistributionInspect(ctx context.Context, imageRef, encodedRegistryAuth string) (registry.DistributionInspect, error)
}

// DaemonInspector asks the local Docker daemon to resolve manifests, reusing its registry credentials
type DaemonInspector struct {
	cli distributionClient
}

// NewDaemonInspector connects to the daemon configured by the DOCKER_* environment
func NewDaemonInspector() (*DaemonInspector, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &DaemonInspector{cli: cli}, nil
}

// Inspect resolves image through the daemon's distribution endpoint.
// The daemon cannot list repository tags, so RepoTags is always empty.
func (di *DaemonInspector) Inspect(ctx context.Context, image string) (archlist.RawManifestData, error) {
	inspect, err := di.cli.DistributionInspect(ctx, image, "")
	if err != nil {
		return nil, fmt.Errorf("distribution inspect failed: %w", err)
	}

	var tag string
	if ref, err := name.ParseReference(image); err == nil {
		tag = referenceTag(ref)
	}

	mediaType := inspect.Descriptor.MediaType
	logging.Logger.Debug("Daemon distribution inspect",
		zap.String("image", image),
		zap.String("media_type", mediaType),
		zap.Int("platforms", len(inspect.Platforms)))

	if archlist.IsManifestListMediaType(mediaType) {
		childType := ocispec.MediaTypeImageManifest
		if mediaType != ocispec.MediaTypeImageIndex {
			childType = dockerManifestMediaType
		}

		raw := archlist.RawManifestData{{MediaType: mediaType, Tag: tag}}
		for i := range inspect.Platforms {
			raw = append(raw, archlist.ManifestEntry{
				MediaType: childType,
				Tag:       tag,
				Platform:  fromOCIPlatform(&inspect.Platforms[i]),
			})
		}
		return raw, nil
	}

	entry := archlist.ManifestEntry{MediaType: mediaType, Tag: tag}
	if len(inspect.Platforms) > 0 {
		entry.Architecture = inspect.Platforms[0].Architecture
		entry.Os = inspect.Platforms[0].OS
	}
	return archlist.RawManifestData{entry}, nil
}
