package archlist_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mquery-dev/api/pkg/archlist"
)

var _ = Describe("Cache entry", func() {
	It("should serialize the discriminator as Yes or No", func() {
		data, err := json.Marshal(&archlist.CacheEntry{ID: "x", ManifestList: true, ArchList: []string{"amd64/linux"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"manifestList":"Yes"`))
		Expect(string(data)).NotTo(ContainSubstring(`"Platform"`))
	})

	It("should keep an empty archList for a manifest list", func() {
		data, err := json.Marshal(&archlist.CacheEntry{ID: "x", ManifestList: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"archList":[]`))

		data, err = json.Marshal(archlist.CacheEntry{ID: "x", Platform: "amd64/linux"})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).NotTo(ContainSubstring(`"archList"`))
		Expect(string(data)).To(ContainSubstring(`"manifestList":"No"`))
	})

	It("should reject an unknown discriminator value", func() {
		var entry archlist.CacheEntry
		Expect(json.Unmarshal([]byte(`{"manifestList":"Maybe"}`), &entry)).NotTo(Succeed())
	})

	It("should return platforms for either shape", func() {
		list := &archlist.CacheEntry{ManifestList: true, ArchList: []string{"amd64/linux", "arm64/linux"}}
		single := &archlist.CacheEntry{Platform: "amd64/windows"}
		Expect(list.Platforms()).To(HaveLen(2))
		Expect(single.Platforms()).To(Equal([]string{"amd64/windows"}))
		Expect((&archlist.CacheEntry{}).Platforms()).To(BeEmpty())
	})

	DescribeTable("manifest list media types",
		func(mediaType string, expected bool) {
			Expect(archlist.IsManifestListMediaType(mediaType)).To(Equal(expected))
		},
		Entry("docker list", "application/vnd.docker.distribution.manifest.list.v2+json", true),
		Entry("oci index", "application/vnd.oci.image.index.v1+json", true),
		Entry("docker manifest", "application/vnd.docker.distribution.manifest.v2+json", false),
		Entry("empty", "", false),
	)
})
