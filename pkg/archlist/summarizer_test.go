package archlist_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"

	"github.com/mquery-dev/api/pkg/archlist"
	"github.com/mquery-dev/api/pkg/store"
)

var _ = Describe("Manifest Summarizer", func() {
	now := time.UnixMilli(1_700_000_000_000)

	Describe("BuildSummary", func() {
		It("should list every platform of a manifest list", func() {
			entry := archlist.BuildSummary("alpine:latest", multiArchData(), "", now)

			Expect(entry.ID).To(Equal("alpine:latest"))
			Expect(entry.CacheTime).To(Equal(now.UnixMilli()))
			Expect(entry.ManifestList).To(Equal(archlist.YesNo(true)))
			Expect(entry.ArchList).To(Equal([]string{
				"amd64/linux",
				"arm/linux (variant: v7)",
				"arm64/linux",
			}))
			Expect(entry.Platform).To(BeEmpty())
			Expect(entry.Tag).To(Equal("latest"))
			Expect(entry.RepoTags).To(Equal([]string{"3.19", "3.20", "latest"}))
		})

		It("should treat an OCI index like a Docker manifest list", func() {
			raw := multiArchData()
			raw[0].MediaType = "application/vnd.oci.image.index.v1+json"

			entry := archlist.BuildSummary("alpine:latest", raw, "", now)
			Expect(entry.ManifestList).To(Equal(archlist.YesNo(true)))
			Expect(entry.ArchList).To(HaveLen(3))
		})

		It("should set a single platform for a plain manifest", func() {
			entry := archlist.BuildSummary("myapp:1.0", singleArchData(), "", now)

			Expect(entry.ManifestList).To(Equal(archlist.YesNo(false)))
			Expect(entry.Platform).To(Equal("amd64/linux"))
			Expect(entry.ArchList).To(BeNil())
			Expect(entry.Tag).To(Equal("1.0"))
		})

		It("should let the last entry win for tags and platform", func() {
			raw := archlist.RawManifestData{
				{MediaType: "application/vnd.docker.distribution.manifest.v2+json", Tag: "a", RepoTags: []string{"a"}, Architecture: "amd64", Os: "linux"},
				{MediaType: "application/vnd.docker.distribution.manifest.v2+json", Tag: "b", RepoTags: []string{"b"}, Architecture: "s390x", Os: "linux"},
			}
			entry := archlist.BuildSummary("x", raw, "", now)
			Expect(entry.Tag).To(Equal("b"))
			Expect(entry.RepoTags).To(Equal([]string{"b"}))
			Expect(entry.Platform).To(Equal("s390x/linux"))
		})

		It("should emit an empty platform list for a marker without children", func() {
			raw := archlist.RawManifestData{{MediaType: "application/vnd.docker.distribution.manifest.list.v2+json"}}
			entry := archlist.BuildSummary("x", raw, "", now)

			Expect(entry.ManifestList).To(Equal(archlist.YesNo(true)))
			Expect(entry.ArchList).NotTo(BeNil())
			Expect(entry.ArchList).To(BeEmpty())

			data, err := json.Marshal(entry)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`"archList":[]`))
		})

		It("should carry the given revision", func() {
			entry := archlist.BuildSummary("x", singleArchData(), "3-abc", now)
			Expect(entry.Rev).To(Equal("3-abc"))
		})

		It("should produce empty components for list entries without a platform", func() {
			raw := archlist.RawManifestData{
				{MediaType: "application/vnd.docker.distribution.manifest.list.v2+json"},
				{MediaType: "application/vnd.docker.distribution.manifest.v2+json"},
			}
			entry := archlist.BuildSummary("x", raw, "", now)
			Expect(entry.ArchList).To(Equal([]string{"/"}))
		})
	})

	DescribeTable("FormatListPlatform",
		func(p *archlist.ManifestPlatform, expected string) {
			Expect(archlist.FormatListPlatform(p)).To(Equal(expected))
		},
		Entry("plain amd64", &archlist.ManifestPlatform{Architecture: "amd64", OS: "linux"}, "amd64/linux"),
		Entry("arm with variant", &archlist.ManifestPlatform{Architecture: "arm", OS: "linux", Variant: "v6"}, "arm/linux (variant: v6)"),
		Entry("arm64 with variant", &archlist.ManifestPlatform{Architecture: "arm64", OS: "linux", Variant: "v8"}, "arm64/linux (variant: v8)"),
		Entry("arm64 without variant", &archlist.ManifestPlatform{Architecture: "arm64", OS: "linux"}, "arm64/linux"),
		Entry("variant ignored off arm", &archlist.ManifestPlatform{Architecture: "ppc64le", OS: "linux", Variant: "power9"}, "ppc64le/linux"),
		Entry("windows", &archlist.ManifestPlatform{Architecture: "amd64", OS: "windows"}, "amd64/windows"),
		Entry("nil platform", nil, "/"),
	)

	Describe("Summarize", func() {
		var (
			ctx        context.Context
			st         *mockStore
			summarizer *archlist.Summarizer
		)

		BeforeEach(func() {
			ctx = context.Background()
			st = &mockStore{}
			summarizer = archlist.NewSummarizer(st).WithClock(func() time.Time { return now })
		})

		It("should persist the summary without a revision for a new image", func() {
			st.On("Insert", ctx, mock.MatchedBy(func(doc *store.Document) bool {
				return doc.ID == "alpine:latest" && doc.Rev == ""
			})).Return("1-a", nil).Once()

			entry := summarizer.Summarize(ctx, "alpine:latest", multiArchData(), nil)
			Expect(entry.Rev).To(BeEmpty())
			st.AssertExpectations(GinkgoT())
		})

		It("should carry the prior revision forward", func() {
			prior := &archlist.CacheEntry{ID: "alpine:latest", Rev: "4-old"}
			st.On("Insert", ctx, mock.MatchedBy(func(doc *store.Document) bool {
				return doc.Rev == "4-old"
			})).Return("5-new", nil).Once()

			entry := summarizer.Summarize(ctx, "alpine:latest", multiArchData(), prior)
			Expect(entry.Rev).To(Equal("4-old"))
			st.AssertExpectations(GinkgoT())
		})

		It("should keep the revision out of the stored body", func() {
			var stored *store.Document
			st.On("Insert", ctx, mock.Anything).Run(func(args mock.Arguments) {
				stored = args.Get(1).(*store.Document)
			}).Return("2-b", nil).Once()

			summarizer.Summarize(ctx, "alpine:latest", multiArchData(), &archlist.CacheEntry{Rev: "1-a"})

			var body map[string]any
			Expect(json.Unmarshal(stored.Body, &body)).To(Succeed())
			Expect(body).NotTo(HaveKey("_rev"))
			Expect(body).To(HaveKeyWithValue("manifestList", "Yes"))
			Expect(body).To(HaveKeyWithValue("_id", "alpine:latest"))
		})

		It("should return the same entry when persisting fails", func() {
			st.On("Insert", ctx, mock.Anything).Return("", errors.New("connection reset")).Once()
			failed := summarizer.Summarize(ctx, "alpine:latest", multiArchData(), nil)

			ok := &mockStore{}
			ok.On("Insert", ctx, mock.Anything).Return("1-a", nil).Once()
			succeeded := archlist.NewSummarizer(ok).WithClock(func() time.Time { return now }).
				Summarize(ctx, "alpine:latest", multiArchData(), nil)

			Expect(failed).To(Equal(succeeded))
		})

		It("should swallow revision conflicts", func() {
			st.On("Insert", ctx, mock.Anything).Return("", store.ErrConflict).Once()
			entry := summarizer.Summarize(ctx, "alpine:latest", singleArchData(), &archlist.CacheEntry{Rev: "1-stale"})
			Expect(entry.Platform).To(Equal("amd64/linux"))
		})
	})
})
