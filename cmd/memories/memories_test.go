package memoriescmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	memoriescmder "github.com/papercomputeco/memories/cmd/memories"
)

var _ = Describe("NewMemoriesCmd", func() {
	It("wires every subcommand", func() {
		cmd := memoriescmder.NewMemoriesCmd()
		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("serve", "search", "config", "init", "version"))
	})

	It("exposes the global flags", func() {
		cmd := memoriescmder.NewMemoriesCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	It("prints the version", func() {
		var out bytes.Buffer
		cmd := memoriescmder.NewMemoriesCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"version"})
		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Version: dev"))
	})

	It("routes --config-dir to config subcommands", func() {
		dir := GinkgoT().TempDir()
		var out bytes.Buffer
		cmd := memoriescmder.NewMemoriesCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"config", "list", "--config-dir", dir})
		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring(dir))
	})
})
