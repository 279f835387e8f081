package params_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/scribe/pkg/llm"
	"github.com/papercomputeco/scribe/pkg/llm/params"
)

func ptr[T any](v T) *T { return &v }

var _ = Describe("Resolve", func() {
	agent := llm.AgentConfig{Model: "gpt-4o", Temperature: 0.7, MaxTokens: 2048}

	withOverride := func(o llm.ParameterOverride) llm.ProviderConfig {
		return llm.ProviderConfig{Models: map[string]llm.ParameterOverride{"gpt-4o": o}}
	}

	Context("without an override record", func() {
		It("uses the agent defaults and omits top-p", func() {
			r := params.Resolve(llm.ProviderConfig{}, agent)
			Expect(*r.Temperature).To(Equal(0.7))
			Expect(*r.MaxTokens).To(Equal(2048))
			Expect(r.TopP).To(BeNil())
		})

		It("omits max tokens when the agent has none", func() {
			r := params.Resolve(llm.ProviderConfig{}, llm.AgentConfig{Model: "gpt-4o", Temperature: 0.2})
			Expect(r.MaxTokens).To(BeNil())
		})

		It("ignores overrides for other models", func() {
			cfg := llm.ProviderConfig{Models: map[string]llm.ParameterOverride{"other": {Temperature: ptr(0.1)}}}
			Expect(*params.Resolve(cfg, agent).Temperature).To(Equal(0.7))
		})
	})

	Context("with legacy records without enabled flags", func() {
		It("enables parameters that have a value", func() {
			r := params.Resolve(withOverride(llm.ParameterOverride{Temperature: ptr(0.1), TopP: ptr(0.8)}), agent)
			Expect(*r.Temperature).To(Equal(0.1))
			Expect(*r.TopP).To(Equal(0.8))
		})

		It("omits parameters without a value", func() {
			r := params.Resolve(withOverride(llm.ParameterOverride{Temperature: ptr(0.1)}), agent)
			Expect(r.TopP).To(BeNil())
			Expect(r.MaxTokens).To(BeNil())
		})
	})

	Context("with explicit flags", func() {
		It("omits explicitly disabled parameters even when a value is stored", func() {
			r := params.Resolve(withOverride(llm.ParameterOverride{
				Temperature:        ptr(0.1),
				TemperatureEnabled: ptr(false),
				MaxTokens:          ptr(100),
				MaxTokensEnabled:   ptr(true),
			}), agent)
			Expect(r.Temperature).To(BeNil())
			Expect(*r.MaxTokens).To(Equal(100))
		})

		It("omits enabled parameters that carry no value", func() {
			r := params.Resolve(withOverride(llm.ParameterOverride{TopPEnabled: ptr(true)}), agent)
			Expect(r.TopP).To(BeNil())
		})

		It("decides each parameter independently", func() {
			r := params.Resolve(withOverride(llm.ParameterOverride{
				Temperature:        ptr(0.0),
				TemperatureEnabled: ptr(true),
				TopP:               ptr(0.5),
				TopPEnabled:        ptr(false),
				MaxTokens:          ptr(64),
			}), agent)
			Expect(*r.Temperature).To(Equal(0.0))
			Expect(r.TopP).To(BeNil())
			Expect(*r.MaxTokens).To(Equal(64))
		})
	})

	It("returns copies that do not alias the config", func() {
		o := llm.ParameterOverride{Temperature: ptr(0.3)}
		r := params.Resolve(withOverride(o), agent)
		*r.Temperature = 9
		Expect(*o.Temperature).To(Equal(0.3))
	})
})

var _ = Describe("Apply", func() {
	It("copies the resolved values onto a call", func() {
		r := params.Resolved{Temperature: ptr(0.4), MaxTokens: ptr(10)}
		call := llm.Call{TopP: ptr(0.9)}
		r.Apply(&call)
		Expect(*call.Temperature).To(Equal(0.4))
		Expect(call.TopP).To(BeNil())
		Expect(*call.MaxTokens).To(Equal(10))
	})
})
