package compose_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mquery-dev/api/pkg/compose"
)

var _ = Describe("Validator", func() {
	ctx := context.Background()

	Describe("ValidateCompose", func() {
		Context("with valid compose file", func() {
			It("should return valid result with images", func() {
				validCompose := `
version: "3.8"
services:
  web:
    image: nginx:latest
    ports:
      - "80:80"
  db:
    image: postgres:13
    volumes:
      - db-data:/var/lib/postgresql/data

volumes:
  db-data:
`
				result := compose.ValidateCompose(ctx, validCompose)
				Expect(result.Valid).To(BeTrue())
				Expect(result.Errors).To(BeEmpty())
				Expect(result.Images.Images).To(HaveLen(2))
			})
		})

		Context("with invalid compose file", func() {
			It("should return the parse error", func() {
				result := compose.ValidateCompose(ctx, "services:\n  web: [oops\n")
				Expect(result.Valid).To(BeFalse())
				Expect(result.Images).To(BeNil())
				Expect(result.Errors).To(HaveLen(1))
			})
		})

		It("should always return a non-nil warnings slice", func() {
			result := compose.ValidateCompose(ctx, "services:\n  web:\n    image: nginx\n")
			Expect(result.Warnings).NotTo(BeNil())
		})
	})
})
