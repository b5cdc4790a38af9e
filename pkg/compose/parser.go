// Package compose extracts image references from Docker Compose files.
package compose

import (
	"context"
	"fmt"
	"sort"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
)

// ServiceImage is the image a compose service runs
type ServiceImage struct {
	Service string `json:"service"`
	Image   string `json:"image"`
}

// ComposeImages holds the images referenced by a compose file
type ComposeImages struct {
	Images []ServiceImage `json:"images"`
	// Skipped lists services that only declare a build and no image
	Skipped []string `json:"skipped,omitempty"`
}

// LoadProject parses compose content without resolving paths or validating the schema
func LoadProject(ctx context.Context, composeContent string) (*types.Project, error) {
	project, err := loader.LoadWithContext(
		ctx,
		types.ConfigDetails{
			ConfigFiles: []types.ConfigFile{
				{
					Filename: "docker-compose.yml",
					Content:  []byte(composeContent),
				},
			},
			WorkingDir: "/tmp",
		},
		loader.WithSkipValidation,
		func(o *loader.Options) {
			o.SetProjectName("mquery", false)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Docker Compose: %w", err)
	}
	return project, nil
}

// ParseImages returns the image of every service, ordered by service name
func ParseImages(ctx context.Context, composeContent string) (*ComposeImages, error) {
	project, err := LoadProject(ctx, composeContent)
	if err != nil {
		return nil, err
	}
	return ExtractImages(project), nil
}

// ExtractImages collects service images from a loaded project
func ExtractImages(project *types.Project) *ComposeImages {
	names := make([]string, 0, len(project.Services))
	for name := range project.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	result := &ComposeImages{Images: []ServiceImage{}}
	for _, name := range names {
		service := project.Services[name]
		if service.Image == "" {
			result.Skipped = append(result.Skipped, name)
			continue
		}
		result.Images = append(result.Images, ServiceImage{
			Service: name,
			Image:   service.Image,
		})
	}
	return result
}
