package gemini_test

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
	"github.com/papercomputeco/scribe/pkg/llm/image"
	"github.com/papercomputeco/scribe/pkg/llm/provider"
	"github.com/papercomputeco/scribe/pkg/llm/provider/gemini"
	"github.com/papercomputeco/scribe/pkg/llm/provider/transport"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

var _ = Describe("Gemini Provider", func() {
	var (
		server   *httptest.Server
		p        provider.Provider
		status   int
		reply    string
		lastPath string
		lastKey  string
		lastBody map[string]any
		cfg      llm.ProviderConfig
	)

	BeforeEach(func() {
		status = http.StatusOK
		reply = `{"candidates":[{"content":{"role":"model","parts":[{"text":"part one "},{"text":"part two"}]},"finishReason":"STOP"}]}`
		lastBody = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastPath = r.URL.Path
			lastKey = r.URL.Query().Get("key")
			raw, _ := io.ReadAll(r.Body)
			if len(raw) > 0 {
				Expect(json.Unmarshal(raw, &lastBody)).To(Succeed())
			}
			w.WriteHeader(status)
			_, _ = w.Write([]byte(reply))
		}))
		cfg = llm.ProviderConfig{ID: "g", Kind: llm.Google, BaseURL: server.URL, APIKey: "AIza-test"}
		p = gemini.New(transport.New(transport.WithHTTPClient(server.Client())))
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("Send", func() {
		It("posts to models/{model}:generateContent with the key", func() {
			out, err := p.Send(context.Background(), llm.Call{
				Config:       cfg,
				Model:        "gemini-2.0-flash",
				SystemPrompt: "be helpful",
				UserText:     "hi",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Text).To(Equal("part one part two"))

			Expect(lastPath).To(Equal("/v1beta/models/gemini-2.0-flash:generateContent"))
			Expect(lastKey).To(Equal("AIza-test"))
			Expect(out.Exchange.URL).NotTo(ContainSubstring("AIza-test"))
		})

		It("does not double the models/ prefix", func() {
			_, err := p.Send(context.Background(), llm.Call{Config: cfg, Model: "models/gemini-pro", UserText: "hi"})
			Expect(err).NotTo(HaveOccurred())
			Expect(lastPath).To(Equal("/v1beta/models/gemini-pro:generateContent"))
		})

		It("keeps an explicit API version in the base URL", func() {
			cfg.BaseURL = server.URL + "/v1"
			_, err := p.Send(context.Background(), llm.Call{Config: cfg, Model: "gemini-pro", UserText: "hi"})
			Expect(err).NotTo(HaveOccurred())
			Expect(lastPath).To(Equal("/v1/models/gemini-pro:generateContent"))
		})

		It("sends the system prompt as systemInstruction", func() {
			_, err := p.Send(context.Background(), llm.Call{Config: cfg, Model: "m", SystemPrompt: "sys", UserText: "hi"})
			Expect(err).NotTo(HaveOccurred())

			instruction := lastBody["systemInstruction"].(map[string]any)
			parts := instruction["parts"].([]any)
			Expect(parts[0].(map[string]any)["text"]).To(Equal("sys"))

			contents := lastBody["contents"].([]any)
			Expect(contents).To(HaveLen(1))
			Expect(contents[0].(map[string]any)["role"]).To(Equal("user"))
		})

		It("sends images as inline_data parts", func() {
			_, err := p.Send(context.Background(), llm.Call{Config: cfg, Model: "m", UserText: "describe", ImageBytes: pngBytes})
			Expect(err).NotTo(HaveOccurred())

			contents := lastBody["contents"].([]any)
			parts := contents[0].(map[string]any)["parts"].([]any)
			Expect(parts).To(HaveLen(2))
			inline := parts[1].(map[string]any)["inline_data"].(map[string]any)
			Expect(inline["mime_type"]).To(Equal("image/png"))
			Expect(inline["data"]).NotTo(BeEmpty())
		})

		It("refuses an image URL without bytes", func() {
			_, err := p.Send(context.Background(), llm.Call{
				Config:   cfg,
				Model:    "gemini-2.0-flash",
				UserText: "what is in the image",
				ImageURL: "https://example.com/page.png",
			})
			Expect(err).To(MatchError(image.ErrInvalidImage))
			Expect(lastBody).To(BeNil())
		})

		It("omits generationConfig when nothing was resolved", func() {
			_, err := p.Send(context.Background(), llm.Call{Config: cfg, Model: "m", UserText: "hi"})
			Expect(err).NotTo(HaveOccurred())
			Expect(lastBody).NotTo(HaveKey("generationConfig"))
		})

		It("maps parameters and requests JSON with an envelope schema", func() {
			temp, maxTokens := 0.5, 1024
			_, err := p.Send(context.Background(), llm.Call{
				Config:      cfg,
				Model:       "m",
				UserText:    "hi",
				Temperature: &temp,
				MaxTokens:   &maxTokens,
				RequireJSON: true,
				EnvelopeKey: "questions",
			})
			Expect(err).NotTo(HaveOccurred())

			gc := lastBody["generationConfig"].(map[string]any)
			Expect(gc["temperature"]).To(BeNumerically("==", 0.5))
			Expect(gc["maxOutputTokens"]).To(BeNumerically("==", 1024))
			Expect(gc).NotTo(HaveKey("topP"))
			Expect(gc["responseMimeType"]).To(Equal("application/json"))

			schema := gc["responseSchema"].(map[string]any)
			Expect(schema["properties"]).To(HaveKey("questions"))
		})

		It("skips thought parts", func() {
			reply = `{"candidates":[{"content":{"parts":[{"text":"reasoning","thought":true},{"text":"answer"}]}}]}`
			out, err := p.Send(context.Background(), llm.Call{Config: cfg, Model: "m", UserText: "hi"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Text).To(Equal("answer"))
		})

		It("returns empty text without candidates", func() {
			reply = `{"promptFeedback":{"blockReason":"SAFETY"}}`
			out, err := p.Send(context.Background(), llm.Call{Config: cfg, Model: "m", UserText: "hi"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Text).To(BeEmpty())
		})

		It("returns a status error", func() {
			status = http.StatusTooManyRequests
			reply = `{"error":{"code":429,"status":"RESOURCE_EXHAUSTED"}}`

			_, err := p.Send(context.Background(), llm.Call{Config: cfg, Model: "m", UserText: "hi"})
			var se *llm.StatusError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(llm.IsRateLimit(err)).To(BeTrue())
			Expect(se.Debug()).NotTo(ContainSubstring("AIza-test"))
		})

		It("keeps the key out of transport failures", func() {
			dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
			cfg.BaseURL = dead.URL
			cfg.APIKey = "AIza-SECRET-123"
			dead.Close()

			_, err := p.Send(context.Background(), llm.Call{Config: cfg, Model: "gemini-2.0-flash", UserText: "hi"})
			var re *llm.RequestError
			Expect(errors.As(err, &re)).To(BeTrue())
			Expect(err.Error()).NotTo(ContainSubstring("AIza-SECRET-123"))
			Expect(llm.ExchangeOf(err).String()).NotTo(ContainSubstring("AIza-SECRET-123"))
		})
	})

	Describe("ListModels", func() {
		It("strips the models/ prefix and skips non-generating models", func() {
			reply = `{"models":[
				{"name":"models/gemini-2.0-flash","supportedGenerationMethods":["generateContent","countTokens"]},
				{"name":"models/text-embedding-004","supportedGenerationMethods":["embedContent"]},
				{"name":"models/gemini-pro"}
			]}`
			models, err := p.ListModels(context.Background(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(models).To(Equal([]string{"gemini-2.0-flash", "gemini-pro"}))
			Expect(lastPath).To(Equal("/v1beta/models"))
			Expect(lastKey).To(Equal("AIza-test"))
		})

		It("degrades to an empty list on unexpected shapes", func() {
			reply = `{"models":42}`
			models, err := p.ListModels(context.Background(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(models).To(BeEmpty())
		})
	})

	Describe("NormalizeModel", func() {
		It("strips the resource prefix", func() {
			Expect(gemini.NormalizeModel(" models/gemini-pro ")).To(Equal("gemini-pro"))
			Expect(gemini.NormalizeModel("gemini-pro")).To(Equal("gemini-pro"))
		})
	})
})
