package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/memories/cmd/memories/config"
	"github.com/papercomputeco/memories/pkg/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		subcommands := []string{}
		for _, sub := range cmd.Commands() {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir string
		out    *bytes.Buffer
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "memories-config-test-*")
		Expect(err).NotTo(HaveOccurred())
		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	newCmd := func(args ...string) *cobra.Command {
		cmd := configcmder.NewConfigCmd()
		cmd.PersistentFlags().String("config-dir", "", "")
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(append(args, "--config-dir", tmpDir))
		return cmd
	}

	Describe("set subcommand", func() {
		It("writes config.toml", func() {
			Expect(newCmd("set", "vector_store.provider", "qdrant").Execute()).To(Succeed())
			Expect(filepath.Join(tmpDir, "config.toml")).To(BeAnExistingFile())
			Expect(out.String()).To(ContainSubstring("vector_store.provider"))

			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			cfg, err := cfger.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
		})

		It("rejects unknown keys", func() {
			err := newCmd("set", "proxy.provider", "anthropic").Execute()
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("requires exactly two arguments", func() {
			Expect(newCmd("set", "api.listen").Execute()).To(HaveOccurred())
			Expect(newCmd("set").Execute()).To(HaveOccurred())
		})

		It("rejects invalid values", func() {
			Expect(newCmd("set", "embedding.dimensions", "not-a-number").Execute()).To(HaveOccurred())
			Expect(newCmd("set", "search.top_k", "0").Execute()).To(HaveOccurred())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(newCmd("set", "events.topic", "notes").Execute()).To(Succeed())
			out.Reset()

			Expect(newCmd("get", "events.topic").Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("notes"))
		})

		It("prints defaults when nothing is set", func() {
			Expect(newCmd("get", "api.listen").Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring(":8000"))
		})

		It("rejects unknown keys", func() {
			Expect(newCmd("get", "nope").Execute()).To(HaveOccurred())
		})
	})

	Describe("list subcommand", func() {
		It("lists every key", func() {
			Expect(newCmd("list").Execute()).To(Succeed())
			for _, key := range config.ValidConfigKeys() {
				Expect(out.String()).To(ContainSubstring(key))
			}
			Expect(out.String()).To(ContainSubstring(`"memories.persisted"`))
		})

		It("rejects arguments", func() {
			Expect(newCmd("list", "extra").Execute()).To(HaveOccurred())
		})
	})
})
