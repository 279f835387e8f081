package image_test

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/scribe/pkg/llm"
	"github.com/papercomputeco/scribe/pkg/llm/image"
)

var _ = Describe("IsUnsupportedImageURL", func() {
	statusErr := func(body string) error {
		return fmt.Errorf("send: %w", &llm.StatusError{Provider: llm.OpenAICompatible, StatusCode: 400, Body: body})
	}

	DescribeTable("matches known signatures case-insensitively",
		func(body string) {
			Expect(image.IsUnsupportedImageURL(statusErr(body))).To(BeTrue())
		},
		Entry("unsupported", `{"error":{"message":"Unsupported image URL"}}`),
		Entry("download", `{"error":"Failed to download image from url"}`),
		Entry("image_url", `image_url is not supported by this model`),
		Entry("fetch", `FAILED TO FETCH IMAGE`),
	)

	It("ignores other bodies", func() {
		Expect(image.IsUnsupportedImageURL(statusErr(`{"error":"context length exceeded"}`))).To(BeFalse())
	})

	It("ignores non-status errors", func() {
		Expect(image.IsUnsupportedImageURL(errors.New("unsupported image url"))).To(BeFalse())
	})
})
