package compose_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mquery-dev/api/pkg/compose"
)

var _ = Describe("Parser", func() {
	ctx := context.Background()

	Describe("ParseImages", func() {
		It("should return service images ordered by service name", func() {
			composeContent := `
services:
  web:
    image: nginx:1.27
  db:
    image: postgres:16
  cache:
    image: redis:7-alpine
`
			result, err := compose.ParseImages(ctx, composeContent)
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Images).To(Equal([]compose.ServiceImage{
				{Service: "cache", Image: "redis:7-alpine"},
				{Service: "db", Image: "postgres:16"},
				{Service: "web", Image: "nginx:1.27"},
			}))
			Expect(result.Skipped).To(BeEmpty())
		})

		It("should skip build-only services", func() {
			composeContent := `
services:
  app:
    build: .
  db:
    image: postgres:16
`
			result, err := compose.ParseImages(ctx, composeContent)
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Images).To(HaveLen(1))
			Expect(result.Skipped).To(Equal([]string{"app"}))
		})

		It("should keep the image of services that also build", func() {
			composeContent := `
services:
  app:
    build: .
    image: registry.example.com/team/app:dev
`
			result, err := compose.ParseImages(ctx, composeContent)
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Images).To(ConsistOf(compose.ServiceImage{Service: "app", Image: "registry.example.com/team/app:dev"}))
		})

		It("should fail on malformed YAML", func() {
			_, err := compose.ParseImages(ctx, "services: [\n")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to parse Docker Compose"))
		})
	})
})
