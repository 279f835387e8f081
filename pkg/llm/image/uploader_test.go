package image_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/scribe/pkg/llm/image"
)

var _ = Describe("DirectDownloadURL", func() {
	It("forces https and inserts /dl after the host", func() {
		got, err := image.DirectDownloadURL("http://tmpfiles.org/12345/page.png")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal("https://tmpfiles.org/dl/12345/page.png"))
	})

	It("leaves direct URLs alone", func() {
		got, err := image.DirectDownloadURL("https://tmpfiles.org/dl/12345/page.png")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal("https://tmpfiles.org/dl/12345/page.png"))
	})

	It("rejects URLs without a host", func() {
		_, err := image.DirectDownloadURL("not a url")
		Expect(err).To(MatchError(image.ErrUploadFailed))
	})
})

var _ = Describe("TmpfilesUploader", func() {
	var (
		server    *httptest.Server
		status    int
		reply     string
		fieldName string
		fileName  string
		fileBytes []byte
	)

	BeforeEach(func() {
		status = http.StatusOK
		reply = `{"status":"success","data":{"url":"http://tmpfiles.org/777/scribe.png"}}`
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reader, err := r.MultipartReader()
			if err == nil {
				part, perr := reader.NextPart()
				if perr == nil {
					fieldName = part.FormName()
					fileName = part.FileName()
					fileBytes, _ = io.ReadAll(part)
				}
			}
			w.WriteHeader(status)
			_, _ = w.Write([]byte(reply))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("uploads the file field and returns the direct URL", func() {
		u := image.NewTmpfilesUploader(server.URL, server.Client(), nil)
		got, err := u.Upload(context.Background(), pngBytes, "scribe.png")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal("https://tmpfiles.org/dl/777/scribe.png"))
		Expect(fieldName).To(Equal("file"))
		Expect(fileName).To(Equal("scribe.png"))
		Expect(fileBytes).To(Equal(pngBytes))
	})

	It("fails on non-2xx answers", func() {
		status = http.StatusServiceUnavailable
		u := image.NewTmpfilesUploader(server.URL, server.Client(), nil)
		_, err := u.Upload(context.Background(), pngBytes, "x.png")
		Expect(err).To(MatchError(image.ErrUploadFailed))
	})

	It("fails on an unexpected body", func() {
		reply = `{"status":"error"}`
		u := image.NewTmpfilesUploader(server.URL, server.Client(), nil)
		_, err := u.Upload(context.Background(), pngBytes, "x.png")
		Expect(err).To(MatchError(image.ErrUploadFailed))
	})
})
