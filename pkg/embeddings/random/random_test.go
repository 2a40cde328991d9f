package random_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memories/pkg/embeddings/random"
)

var _ = Describe("Embedder", func() {
	It("defaults to eight dimensions", func() {
		e := random.NewEmbedder(0)
		Expect(e.Dimensions()).To(Equal(uint(random.DefaultDimensions)))

		v, err := e.Embed(context.Background(), "hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(HaveLen(8))
	})

	It("produces vectors of the configured length within [0, 1)", func() {
		e := random.NewEmbedder(32)
		v, err := e.Embed(context.Background(), "hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(HaveLen(32))
		for _, f := range v {
			Expect(f).To(BeNumerically(">=", 0))
			Expect(f).To(BeNumerically("<", 1))
		}
	})

	It("returns the context error when cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := random.NewEmbedder(4).Embed(ctx, "hello")
		Expect(err).To(MatchError(context.Canceled))
	})

	It("closes without error", func() {
		Expect(random.NewEmbedder(4).Close()).To(Succeed())
	})
})
