package initcmder

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memories/pkg/config"
)

var _ = Describe("runInit", func() {
	var (
		dir string
		out bytes.Buffer
	)

	BeforeEach(func() {
		dir = filepath.Join(GinkgoT().TempDir(), ".memories")
		out.Reset()
	})

	load := func() *config.Config {
		cfger, err := config.NewConfiger(dir)
		Expect(err).NotTo(HaveOccurred())
		cfg, err := cfger.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		return cfg
	}

	It("creates the directory with the preset config", func() {
		Expect(runInit(&out, dir, "qdrant")).To(Succeed())
		Expect(filepath.Join(dir, "config.toml")).To(BeAnExistingFile())
		Expect(load().VectorStore.Provider).To(Equal("qdrant"))
		Expect(out.String()).To(ContainSubstring("Initialized"))
	})

	It("leaves an existing config alone", func() {
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[search]\ntop_k = 9\n"), 0o600)).To(Succeed())

		Expect(runInit(&out, dir, "local")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Already initialized"))
		Expect(load().Search.TopK).To(Equal(9))
	})

	It("rejects unknown presets without creating anything", func() {
		Expect(runInit(&out, dir, "nope")).To(MatchError(ContainSubstring("unknown preset")))
		Expect(dir).NotTo(BeADirectory())
	})
})
