package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/scribe/pkg/llm"
	"github.com/papercomputeco/scribe/pkg/llm/provider"
	"github.com/papercomputeco/scribe/pkg/llm/provider/openai"
	"github.com/papercomputeco/scribe/pkg/llm/provider/transport"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

var _ = Describe("OpenAI Provider", func() {
	var (
		server   *httptest.Server
		status   int
		reply    string
		lastPath string
		lastAuth string
		lastBody map[string]any
		cfg      llm.ProviderConfig
	)

	BeforeEach(func() {
		status = http.StatusOK
		reply = `{"choices":[{"index":0,"message":{"role":"assistant","content":"hello there"}}]}`
		lastBody = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastPath = r.URL.Path
			lastAuth = r.Header.Get("Authorization")
			raw, _ := io.ReadAll(r.Body)
			if len(raw) > 0 {
				Expect(json.Unmarshal(raw, &lastBody)).To(Succeed())
			}
			w.WriteHeader(status)
			_, _ = w.Write([]byte(reply))
		}))
		cfg = llm.ProviderConfig{ID: "oa", Kind: llm.OpenAICompatible, BaseURL: server.URL + "/v1", APIKey: "sk-test"}
	})

	AfterEach(func() {
		server.Close()
	})

	newProvider := func() provider.Provider {
		return openai.New(transport.New(transport.WithHTTPClient(server.Client())))
	}

	Describe("Name and Kind", func() {
		It("identifies as openai", func() {
			prov := newProvider()
			Expect(prov.Name()).To(Equal("openai"))
			Expect(prov.Kind()).To(Equal(llm.OpenAICompatible))
		})
	})

	Describe("Send", func() {
		It("posts system and user messages to chat/completions", func() {
			out, err := newProvider().Send(context.Background(), llm.Call{
				Config:       cfg,
				Model:        "gpt-4o",
				SystemPrompt: "be terse",
				UserText:     "hi",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Text).To(Equal("hello there"))
			Expect(out.Body).To(Equal(reply))
			Expect(out.Exchange).NotTo(BeNil())

			Expect(lastPath).To(Equal("/v1/chat/completions"))
			Expect(lastAuth).To(Equal("Bearer sk-test"))
			Expect(lastBody["model"]).To(Equal("gpt-4o"))

			messages := lastBody["messages"].([]any)
			Expect(messages).To(HaveLen(2))
			Expect(messages[0].(map[string]any)["role"]).To(Equal("system"))
			Expect(messages[1].(map[string]any)["content"]).To(Equal("hi"))
		})

		It("omits parameters that were not resolved", func() {
			_, err := newProvider().Send(context.Background(), llm.Call{Config: cfg, Model: "m", UserText: "hi"})
			Expect(err).NotTo(HaveOccurred())
			Expect(lastBody).NotTo(HaveKey("temperature"))
			Expect(lastBody).NotTo(HaveKey("top_p"))
			Expect(lastBody).NotTo(HaveKey("max_tokens"))
			Expect(lastBody).NotTo(HaveKey("response_format"))
		})

		It("sends resolved parameters and the JSON response format", func() {
			temp, topP, maxTokens := 0.3, 0.9, 512
			_, err := newProvider().Send(context.Background(), llm.Call{
				Config:      cfg,
				Model:       "m",
				UserText:    "hi",
				Temperature: &temp,
				TopP:        &topP,
				MaxTokens:   &maxTokens,
				RequireJSON: true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(lastBody["temperature"]).To(BeNumerically("==", 0.3))
			Expect(lastBody["top_p"]).To(BeNumerically("==", 0.9))
			Expect(lastBody["max_tokens"]).To(BeNumerically("==", 512))
			Expect(lastBody["response_format"]).To(Equal(map[string]any{"type": "json_object"}))
		})

		It("attaches inline images as a data URL content part", func() {
			_, err := newProvider().Send(context.Background(), llm.Call{
				Config:     cfg,
				Model:      "m",
				UserText:   "describe",
				ImageBytes: pngBytes,
			})
			Expect(err).NotTo(HaveOccurred())

			messages := lastBody["messages"].([]any)
			parts := messages[0].(map[string]any)["content"].([]any)
			Expect(parts).To(HaveLen(2))
			Expect(parts[0].(map[string]any)["text"]).To(Equal("describe"))
			url := parts[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
			Expect(url).To(HavePrefix("data:image/png;base64,"))
		})

		It("prefers a hosted image URL over inline bytes", func() {
			_, err := newProvider().Send(context.Background(), llm.Call{
				Config:     cfg,
				Model:      "m",
				UserText:   "describe",
				ImageBytes: pngBytes,
				ImageURL:   "https://tmpfiles.org/dl/1/page.png",
			})
			Expect(err).NotTo(HaveOccurred())

			messages := lastBody["messages"].([]any)
			parts := messages[0].(map[string]any)["content"].([]any)
			url := parts[1].(map[string]any)["image_url"].(map[string]any)["url"]
			Expect(url).To(Equal("https://tmpfiles.org/dl/1/page.png"))
		})

		It("concatenates structured content parts", func() {
			reply = `{"choices":[{"message":{"content":[{"type":"text","text":"{\"a\":"},{"type":"text","text":"1}"}]}}]}`
			out, err := newProvider().Send(context.Background(), llm.Call{Config: cfg, Model: "m", UserText: "hi"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Text).To(Equal(`{"a":1}`))
		})

		It("returns empty text when there are no choices", func() {
			reply = `{"choices":[]}`
			out, err := newProvider().Send(context.Background(), llm.Call{Config: cfg, Model: "m", UserText: "hi"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Text).To(BeEmpty())
		})

		It("returns a status error carrying the exchange", func() {
			status = http.StatusBadRequest
			reply = `{"error":{"message":"Unsupported image URL"}}`

			_, err := newProvider().Send(context.Background(), llm.Call{Config: cfg, Model: "m", UserText: "hi"})
			var se *llm.StatusError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.StatusCode).To(Equal(400))
			Expect(se.Exchange).NotTo(BeNil())
			Expect(se.Debug()).NotTo(ContainSubstring("sk-test"))
		})
	})

	Describe("ListModels", func() {
		It("reads data[].id", func() {
			reply = `{"object":"list","data":[{"id":"gpt-4o"},{"id":"gpt-4o-mini"}]}`
			models, err := newProvider().ListModels(context.Background(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(models).To(Equal([]string{"gpt-4o", "gpt-4o-mini"}))
			Expect(lastPath).To(Equal("/v1/models"))
		})

		It("falls back to models[].name", func() {
			reply = `{"models":[{"name":"qwen-vl-max"}]}`
			models, err := newProvider().ListModels(context.Background(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(models).To(Equal([]string{"qwen-vl-max"}))
		})

		It("degrades to an empty list on unexpected shapes", func() {
			reply = `["not","an","object"]`
			models, err := newProvider().ListModels(context.Background(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(models).To(BeEmpty())
		})
	})
})
