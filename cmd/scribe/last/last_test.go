package lastcmder_test

import (
	"bytes"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	lastcmder "github.com/papercomputeco/scribe/cmd/scribe/last"
	"github.com/papercomputeco/scribe/pkg/dotdir"
)

var _ = Describe("Last command", func() {
	var (
		tmpDir string
		out    *bytes.Buffer
	)

	run := func(args ...string) error {
		cmd := lastcmder.NewLastCmd()
		cmd.PersistentFlags().String("config-dir", "", "Override path to .scribe/ config directory")
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(append(args, "--config-dir", tmpDir))
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "scribe-last-test-*")
		Expect(err).NotTo(HaveOccurred())
		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("says so when nothing was recorded", func() {
		Expect(run()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("No runs recorded yet."))
	})

	Context("with a recorded run", func() {
		BeforeEach(func() {
			Expect(dotdir.NewManager().SaveLastRun(&dotdir.LastRun{
				Command:  "questions",
				Provider: "main",
				Agent:    "tutor",
				Model:    "gpt-4o",
				At:       time.Now(),
				Error:    "upstream returned 500",
				Exchange: "POST https://api.openai.com/v1/chat/completions",
			}, tmpDir)).To(Succeed())
		})

		It("prints the summary", func() {
			Expect(run()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("questions"))
			Expect(out.String()).To(ContainSubstring("tutor"))
			Expect(out.String()).To(ContainSubstring("failed"))
			Expect(out.String()).To(ContainSubstring("upstream returned 500"))
			Expect(out.String()).NotTo(ContainSubstring("chat/completions"))
		})

		It("prints the exchange on request", func() {
			Expect(run("--exchange")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("POST https://api.openai.com/v1/chat/completions"))
		})

		It("clears the record", func() {
			Expect(run("--clear")).To(Succeed())

			got, err := dotdir.NewManager().LoadLastRun(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeNil())
		})
	})
})
