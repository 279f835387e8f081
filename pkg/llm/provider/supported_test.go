package provider_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/scribe/pkg/llm"
	"github.com/papercomputeco/scribe/pkg/llm/provider"
	"github.com/papercomputeco/scribe/pkg/llm/provider/transport"
)

var _ = Describe("New", func() {
	client := transport.New()

	DescribeTable("builds the adapter for each kind",
		func(kind llm.ProviderKind, name string) {
			p, err := provider.New(kind, client)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Kind()).To(Equal(kind))
			Expect(p.Name()).To(Equal(name))
		},
		Entry("openai", llm.OpenAICompatible, "openai"),
		Entry("anthropic", llm.Anthropic, "anthropic"),
		Entry("google", llm.Google, "gemini"),
	)

	It("rejects unknown kinds", func() {
		_, err := provider.New("cohere", client)
		Expect(err).To(MatchError(llm.ErrUnknownProvider))
	})

	It("lists supported providers", func() {
		Expect(provider.SupportedProviders()).To(Equal([]string{"openai", "anthropic", "google"}))
	})
})

var _ = Describe("Registry", func() {
	It("resolves every supported kind", func() {
		reg := provider.NewRegistry(transport.New())
		for _, kind := range llm.SupportedKinds() {
			p, err := reg.For(kind)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Kind()).To(Equal(kind))
		}
	})

	It("errors on unknown kinds", func() {
		_, err := provider.NewRegistry(transport.New()).For("cohere")
		Expect(err).To(MatchError(llm.ErrUnknownProvider))
	})
})

var _ = Describe("DefaultBaseURL", func() {
	It("knows the public endpoint of each kind", func() {
		Expect(provider.DefaultBaseURL(llm.OpenAICompatible)).To(Equal("https://api.openai.com/v1"))
		Expect(provider.DefaultBaseURL(llm.Anthropic)).To(Equal("https://api.anthropic.com"))
		Expect(provider.DefaultBaseURL(llm.Google)).To(Equal("https://generativelanguage.googleapis.com"))
		Expect(provider.DefaultBaseURL("cohere")).To(BeEmpty())
	})
})
