package api_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/scribe/api"
	scribemcp "github.com/papercomputeco/scribe/api/mcp"
	"github.com/papercomputeco/scribe/pkg/config"
	"github.com/papercomputeco/scribe/pkg/llm"
	"github.com/papercomputeco/scribe/pkg/orchestrator"
	testutils "github.com/papercomputeco/scribe/pkg/utils/test"
)

const twoQuestions = `{"questions":[{"title":"A","text":"1+1?"},{"title":"B","text":"2+2?"}]}`

func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Providers = []config.ProviderConfig{
		{ID: "main", Name: "Main", Kind: "openai", BaseURL: "https://api.openai.com/v1", APIKey: "sk-secret"},
	}
	cfg.Agents = []config.AgentConfig{
		{ID: "tutor", Provider: "main", Model: "gpt-4o", SystemPrompt: "Tutor.", MaxTokens: 512},
	}
	cfg.Defaults.Agent = "tutor"
	return cfg
}

type response struct {
	status int
	body   []byte
}

func (r response) decode(v any) {
	ExpectWithOffset(1, json.Unmarshal(r.body, v)).To(Succeed())
}

var _ = Describe("Server", func() {
	var (
		mock   *testutils.MockProvider
		server *api.Server
	)

	newServer := func(cfg api.Config, responders ...testutils.Responder) {
		mock = testutils.NewMockProvider(llm.OpenAICompatible, responders...)
		orch := orchestrator.New(testutils.Providers{llm.OpenAICompatible: mock})
		server = api.NewServer(cfg, config.NewStaticStore(testConfig()), orch, nil)
	}

	do := func(method, path string, body any) response {
		var reader io.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			ExpectWithOffset(1, err).NotTo(HaveOccurred())
			reader = bytes.NewReader(raw)
		}
		req := httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")

		resp, err := server.App().Test(req, -1)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		out, err := io.ReadAll(resp.Body)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		return response{status: resp.StatusCode, body: out}
	}

	Describe("GET /ping", func() {
		It("answers pong", func() {
			newServer(api.Config{})
			r := do(http.MethodGet, "/ping", nil)
			Expect(r.status).To(Equal(http.StatusOK))
			Expect(string(r.body)).To(Equal(`"pong"`))
		})
	})

	Describe("GET /v1/providers", func() {
		It("lists providers without their keys", func() {
			newServer(api.Config{})
			r := do(http.MethodGet, "/v1/providers", nil)
			Expect(r.status).To(Equal(http.StatusOK))
			Expect(string(r.body)).NotTo(ContainSubstring("sk-secret"))

			var providers []api.ProviderSummary
			r.decode(&providers)
			Expect(providers).To(Equal([]api.ProviderSummary{{
				ID: "main", Name: "Main", Kind: llm.OpenAICompatible, BaseURL: "https://api.openai.com/v1", HasAPIKey: true,
			}}))
		})

		It("lists agents", func() {
			newServer(api.Config{})
			var agents []api.AgentSummary
			do(http.MethodGet, "/v1/agents", nil).decode(&agents)
			Expect(agents).To(HaveLen(1))
			Expect(agents[0].Model).To(Equal("gpt-4o"))
		})
	})

	Describe("GET /v1/providers/:id/models", func() {
		It("returns the upstream models", func() {
			newServer(api.Config{})
			mock.Models = []string{"gpt-4o", "gpt-4o-mini"}

			var models api.ModelsResponse
			r := do(http.MethodGet, "/v1/providers/main/models", nil)
			Expect(r.status).To(Equal(http.StatusOK))
			r.decode(&models)
			Expect(models.Models).To(Equal([]string{"gpt-4o", "gpt-4o-mini"}))
		})

		It("404s for unknown providers", func() {
			newServer(api.Config{})
			r := do(http.MethodGet, "/v1/providers/ghost/models", nil)
			Expect(r.status).To(Equal(http.StatusNotFound))
		})

		It("502s with the exchange when the upstream fails", func() {
			newServer(api.Config{})
			mock.FailModels = &llm.StatusError{
				Provider:   llm.OpenAICompatible,
				StatusCode: 401,
				Body:       "bad key",
				Exchange:   testutils.NewExchange("models", "bad key", 401),
			}

			var e llm.ErrorResponse
			r := do(http.MethodGet, "/v1/providers/main/models", nil)
			Expect(r.status).To(Equal(http.StatusBadGateway))
			r.decode(&e)
			Expect(e.Debug).To(ContainSubstring("https://upstream.test/models"))
		})
	})

	Describe("POST /v1/questions", func() {
		It("returns validated items", func() {
			newServer(api.Config{}, testutils.Reply("first", twoQuestions))

			var res llm.ChatResult
			r := do(http.MethodPost, "/v1/questions", api.QuestionsRequest{Count: 2, Topic: "sums"})
			Expect(r.status).To(Equal(http.StatusOK))
			r.decode(&res)
			Expect(res.Items).To(HaveLen(2))
			Expect(res.Repaired).To(BeFalse())
			Expect(mock.Calls()[0].Model).To(Equal("gpt-4o"))
		})

		It("502s with both exchanges when the repair also fails", func() {
			newServer(api.Config{},
				testutils.Reply("first", "prose"),
				testutils.Reply("second", "more prose"),
			)

			var e llm.ErrorResponse
			r := do(http.MethodPost, "/v1/questions", api.QuestionsRequest{Count: 2, Topic: "sums"})
			Expect(r.status).To(Equal(http.StatusBadGateway))
			r.decode(&e)
			Expect(e.Error).To(ContainSubstring("after one repair attempt"))
			Expect(e.Debug).To(ContainSubstring("https://upstream.test/first"))
			Expect(e.Debug).To(ContainSubstring("https://upstream.test/second"))
		})

		It("400s on invalid input", func() {
			newServer(api.Config{})
			r := do(http.MethodPost, "/v1/questions", api.QuestionsRequest{Count: 0, Topic: "sums"})
			Expect(r.status).To(Equal(http.StatusBadRequest))
			Expect(mock.Calls()).To(BeEmpty())
		})

		It("400s on malformed JSON", func() {
			newServer(api.Config{})
			req := httptest.NewRequest(http.MethodPost, "/v1/questions", bytes.NewBufferString("{"))
			req.Header.Set("Content-Type", "application/json")
			resp, err := server.App().Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("404s for unknown agents", func() {
			newServer(api.Config{})
			r := do(http.MethodPost, "/v1/questions", api.QuestionsRequest{Agent: "ghost", Count: 1, Topic: "x"})
			Expect(r.status).To(Equal(http.StatusNotFound))
		})

		It("decodes data URL images", func() {
			newServer(api.Config{}, testutils.Reply("first", twoQuestions))
			png := []byte("\x89PNG\r\n\x1a\nfake")
			img := &api.ImagePayload{Base64: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)}

			r := do(http.MethodPost, "/v1/questions", api.QuestionsRequest{Count: 2, Image: img})
			Expect(r.status).To(Equal(http.StatusOK))
			Expect(mock.Calls()[0].ImageBytes).To(Equal(png))
		})

		It("400s on undecodable images", func() {
			newServer(api.Config{})
			r := do(http.MethodPost, "/v1/questions", api.QuestionsRequest{Count: 2, Image: &api.ImagePayload{Base64: "%%%"}})
			Expect(r.status).To(Equal(http.StatusBadRequest))
		})

		It("400s on a URL-only image for an Anthropic agent", func() {
			cfg := testConfig()
			cfg.Providers = append(cfg.Providers, config.ProviderConfig{ID: "claude", Kind: "anthropic", APIKey: "sk-ant"})
			cfg.Agents = append(cfg.Agents, config.AgentConfig{ID: "reader", Provider: "claude", Model: "claude-sonnet"})
			claude := testutils.NewMockProvider(llm.Anthropic, testutils.Reply("never", twoQuestions))
			orch := orchestrator.New(testutils.Providers{llm.Anthropic: claude})
			server = api.NewServer(api.Config{}, config.NewStaticStore(cfg), orch, nil)

			r := do(http.MethodPost, "/v1/questions", api.QuestionsRequest{
				Agent: "reader",
				Count: 2,
				Image: &api.ImagePayload{URL: "https://example.com/page.png"},
			})
			Expect(r.status).To(Equal(http.StatusBadRequest))
			var e llm.ErrorResponse
			r.decode(&e)
			Expect(e.Error).To(ContainSubstring("image bytes"))
			Expect(claude.Calls()).To(BeEmpty())
		})
	})

	Describe("POST /v1/pages", func() {
		It("returns titled pages", func() {
			newServer(api.Config{}, testutils.Reply("first", `{"pages":[{"title":"One","text":"Body"}]}`))

			var res llm.ChatResult
			r := do(http.MethodPost, "/v1/pages", api.PagesRequest{Count: 1, Text: "cells"})
			Expect(r.status).To(Equal(http.StatusOK))
			r.decode(&res)
			Expect(res.Items[0].Title).To(Equal("One"))
		})
	})

	Describe("POST /v1/explain", func() {
		It("degrades prose to a single item", func() {
			newServer(api.Config{}, testutils.Reply("first", "It is a cell."))

			var res llm.ChatResult
			r := do(http.MethodPost, "/v1/explain", api.ExplainRequest{Question: "What is a cell?"})
			Expect(r.status).To(Equal(http.StatusOK))
			r.decode(&res)
			Expect(res.Items).To(Equal([]llm.GeneratedItem{{Text: "It is a cell."}}))
		})
	})

	Describe("POST /v1/probe", func() {
		It("returns the raw reply and exchange", func() {
			newServer(api.Config{}, testutils.Reply("first", "pong"))

			var res llm.ChatResult
			r := do(http.MethodPost, "/v1/probe", api.ProbeRequest{Text: "ping"})
			Expect(r.status).To(Equal(http.StatusOK))
			r.decode(&res)
			Expect(res.Text).To(Equal("pong"))
			Expect(res.Exchange).To(ContainSubstring("https://upstream.test/first"))
		})

		It("504s when the request timeout elapses", func() {
			newServer(api.Config{RequestTimeout: 20 * time.Millisecond},
				func(ctx context.Context, _ llm.Call) (*llm.Reply, error) {
					<-ctx.Done()
					return nil, &llm.RequestError{Provider: llm.OpenAICompatible, Err: ctx.Err()}
				},
			)

			r := do(http.MethodPost, "/v1/probe", api.ProbeRequest{Text: "ping"})
			Expect(r.status).To(Equal(http.StatusGatewayTimeout))
		})

		It("serves MCP only when configured", func() {
			newServer(api.Config{})
			Expect(do(http.MethodPost, "/mcp", map[string]any{}).status).To(Equal(http.StatusNotFound))

			store := config.NewStaticStore(testConfig())
			m, err := scribemcp.NewServer(scribemcp.Config{
				Store:  store,
				Runner: orchestrator.New(testutils.Providers{}),
				Logger: zap.NewNop(),
			})
			Expect(err).NotTo(HaveOccurred())
			newServer(api.Config{MCP: m})
			Expect(do(http.MethodPost, "/mcp", map[string]any{}).status).NotTo(Equal(http.StatusNotFound))
		})

		It("maps upstream status errors to 502", func() {
			newServer(api.Config{}, testutils.Fail("first", 500, "overloaded"))

			var e llm.ErrorResponse
			r := do(http.MethodPost, "/v1/probe", api.ProbeRequest{Text: "ping"})
			Expect(r.status).To(Equal(http.StatusBadGateway))
			r.decode(&e)
			Expect(e.Debug).To(ContainSubstring("overloaded"))
		})
	})
})
