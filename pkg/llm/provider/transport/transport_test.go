package transport_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/scribe/pkg/llm"
	"github.com/papercomputeco/scribe/pkg/llm/provider/transport"
)

var _ = Describe("Client", func() {
	var (
		server *httptest.Server
		client *transport.Client
		status int
		reply  string
		seen   *http.Request
		body   string
	)

	BeforeEach(func() {
		status = http.StatusOK
		reply = `{"ok":true}`
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r
			b, _ := io.ReadAll(r.Body)
			body = string(b)
			w.WriteHeader(status)
			_, _ = w.Write([]byte(reply))
		}))
		client = transport.New(transport.WithHTTPClient(server.Client()))
	})

	AfterEach(func() {
		server.Close()
	})

	It("posts JSON with the extra headers", func() {
		header := http.Header{"X-Api-Key": []string{"secret"}}
		ex, resp, err := client.PostJSON(context.Background(), llm.Anthropic, server.URL+"/v1/messages", header, map[string]string{"model": "m"})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(resp)).To(Equal(`{"ok":true}`))
		Expect(seen.Header.Get("Content-Type")).To(Equal("application/json"))
		Expect(seen.Header.Get("X-Api-Key")).To(Equal("secret"))
		Expect(body).To(Equal(`{"model":"m"}`))
		Expect(ex.RequestHeaders.Get("X-Api-Key")).To(Equal("[REDACTED]"))
	})

	It("turns non-2xx answers into status errors", func() {
		status = http.StatusUnauthorized
		reply = `{"error":"invalid key"}`

		_, _, err := client.PostJSON(context.Background(), llm.OpenAICompatible, server.URL, nil, map[string]string{})
		Expect(err).To(HaveOccurred())

		var se *llm.StatusError
		Expect(errors.As(err, &se)).To(BeTrue())
		Expect(se.StatusCode).To(Equal(401))
		Expect(se.Body).To(ContainSubstring("invalid key"))
		Expect(se.Exchange).NotTo(BeNil())
		Expect(llm.IsAuth(err)).To(BeTrue())
	})

	It("issues GET requests", func() {
		_, _, err := client.Get(context.Background(), llm.Google, server.URL+"/v1beta/models?key=k", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(seen.Method).To(Equal(http.MethodGet))
		Expect(seen.URL.Query().Get("key")).To(Equal("k"))
	})

	It("wraps transport failures with the exchange", func() {
		url := server.URL
		server.Close()

		_, _, err := client.Get(context.Background(), llm.Google, url, nil)
		var re *llm.RequestError
		Expect(errors.As(err, &re)).To(BeTrue())
		Expect(llm.ExchangeOf(err)).NotTo(BeNil())
	})

	It("returns the context error when cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := client.Get(ctx, llm.Google, server.URL, nil)
		Expect(err).To(MatchError(context.Canceled))
	})

	It("attaches the exchange to decode failures", func() {
		ex, resp, err := client.Get(context.Background(), llm.OpenAICompatible, server.URL, nil)
		Expect(err).NotTo(HaveOccurred())

		var target []string
		err = client.Decode(llm.OpenAICompatible, ex, resp, &target)
		Expect(err).To(HaveOccurred())
		Expect(llm.ExchangeOf(err)).To(BeIdenticalTo(ex))
	})
})

var _ = Describe("JoinURL", func() {
	It("normalizes slashes", func() {
		Expect(transport.JoinURL("https://api.openai.com/v1/", "/chat/completions")).To(Equal("https://api.openai.com/v1/chat/completions"))
		Expect(transport.JoinURL("https://api.openai.com/v1", "models")).To(Equal("https://api.openai.com/v1/models"))
	})
})
