package dotdir_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/scribe/pkg/dotdir"
)

var _ = Describe("dotdir.Manager last run", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())
		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns nil when nothing was recorded", func() {
		run, err := m.LoadLastRun(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(run).To(BeNil())
	})

	It("round-trips a failed run", func() {
		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		saved := &dotdir.LastRun{
			Command:  "questions",
			Provider: "main",
			Agent:    "tutor",
			Model:    "gpt-4o",
			At:       at,
			Error:    "model did not return the required JSON",
			Exchange: "--> POST https://api.openai.com/v1/chat/completions",
		}
		Expect(m.SaveLastRun(saved, tmpDir)).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, "last_run.json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))

		loaded, err := m.LoadLastRun(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Command).To(Equal("questions"))
		Expect(loaded.At.Equal(at)).To(BeTrue())
		Expect(loaded.Succeeded()).To(BeFalse())
		Expect(loaded.Exchange).To(HavePrefix("--> POST"))
	})

	It("overwrites the previous record", func() {
		Expect(m.SaveLastRun(&dotdir.LastRun{Command: "probe", Error: "boom"}, tmpDir)).To(Succeed())
		Expect(m.SaveLastRun(&dotdir.LastRun{Command: "explain", Repaired: true}, tmpDir)).To(Succeed())

		loaded, err := m.LoadLastRun(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Command).To(Equal("explain"))
		Expect(loaded.Succeeded()).To(BeTrue())
		Expect(loaded.Repaired).To(BeTrue())
	})

	It("rejects a nil record", func() {
		Expect(m.SaveLastRun(nil, tmpDir)).To(MatchError(ContainSubstring("nil last run")))
	})

	It("reports corrupt records", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "last_run.json"), []byte("{not json"), 0o600)).To(Succeed())
		_, err := m.LoadLastRun(tmpDir)
		Expect(err).To(MatchError(ContainSubstring("parsing last run")))
	})

	It("clears the record and tolerates a missing file", func() {
		Expect(m.SaveLastRun(&dotdir.LastRun{Command: "probe"}, tmpDir)).To(Succeed())
		Expect(m.ClearLastRun(tmpDir)).To(Succeed())
		Expect(filepath.Join(tmpDir, "last_run.json")).NotTo(BeAnExistingFile())
		Expect(m.ClearLastRun(tmpDir)).To(Succeed())
	})
})
