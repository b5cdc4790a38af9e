package archlist_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mquery-dev/api/pkg/archlist"
	"github.com/mquery-dev/api/pkg/store"
)

// mockStore mocks the document store
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, id string) (*store.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Document), args.Error(1)
}

func (m *mockStore) Insert(ctx context.Context, doc *store.Document) (string, error) {
	args := m.Called(ctx, doc)
	return args.String(0), args.Error(1)
}

// mockInspector mocks the manifest inspector
type mockInspector struct {
	mock.Mock
}

func (m *mockInspector) Inspect(ctx context.Context, image string) (archlist.RawManifestData, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(archlist.RawManifestData), args.Error(1)
}

func multiArchData() archlist.RawManifestData {
	tags := []string{"3.19", "3.20", "latest"}
	return archlist.RawManifestData{
		{MediaType: "application/vnd.docker.distribution.manifest.list.v2+json", RepoTags: tags, Tag: "latest"},
		{MediaType: "application/vnd.docker.distribution.manifest.v2+json", RepoTags: tags, Tag: "latest",
			Platform: &archlist.ManifestPlatform{Architecture: "amd64", OS: "linux"}},
		{MediaType: "application/vnd.docker.distribution.manifest.v2+json", RepoTags: tags, Tag: "latest",
			Platform: &archlist.ManifestPlatform{Architecture: "arm", OS: "linux", Variant: "v7"}},
		{MediaType: "application/vnd.docker.distribution.manifest.v2+json", RepoTags: tags, Tag: "latest",
			Platform: &archlist.ManifestPlatform{Architecture: "arm64", OS: "linux"}},
	}
}

func singleArchData() archlist.RawManifestData {
	return archlist.RawManifestData{
		{MediaType: "application/vnd.docker.distribution.manifest.v2+json", RepoTags: []string{"1.0"}, Tag: "1.0",
			Architecture: "amd64", Os: "linux"},
	}
}
