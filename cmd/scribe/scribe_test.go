package scribecmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	scribecmder "github.com/papercomputeco/scribe/cmd/scribe"
	"github.com/papercomputeco/scribe/pkg/utils"
)

var _ = Describe("NewScribeCmd", func() {
	It("wires every subcommand", func() {
		cmd := scribecmder.NewScribeCmd()

		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements(
			"questions", "pages", "explain", "probe",
			"models", "serve", "config", "init", "last", "version",
		))
	})

	It("declares the global flags", func() {
		cmd := scribecmder.NewScribeCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	It("prints the version", func() {
		var out bytes.Buffer
		cmd := scribecmder.NewScribeCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"version"})
		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("scribe " + utils.Version))
	})

	It("shares the agent flag definition across request commands", func() {
		cmd := scribecmder.NewScribeCmd()
		for _, name := range []string{"questions", "pages", "explain", "probe", "models"} {
			sub, _, err := cmd.Find([]string{name})
			Expect(err).NotTo(HaveOccurred())
			f := sub.Flags().Lookup("agent")
			Expect(f).NotTo(BeNil(), name)
			Expect(f.Shorthand).To(Equal("a"))
		}
	})
})
