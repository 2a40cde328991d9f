package qdrant

import (
	"context"
	"os"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memories/pkg/logger"
	"github.com/papercomputeco/memories/pkg/vector"
)

var _ = Describe("ParseTarget", func() {
	DescribeTable("splits targets",
		func(target, host string, port int, useTLS bool) {
			h, p, tls, err := ParseTarget(target)
			Expect(err).NotTo(HaveOccurred())
			Expect(h).To(Equal(host))
			Expect(p).To(Equal(port))
			Expect(tls).To(Equal(useTLS))
		},
		Entry("host and port", "localhost:6334", "localhost", 6334, false),
		Entry("host only", "qdrant", "qdrant", DefaultPort, false),
		Entry("http URL", "http://qdrant.local:7000", "qdrant.local", 7000, false),
		Entry("https URL", "https://cloud.qdrant.io:6334", "cloud.qdrant.io", 6334, true),
	)

	It("rejects an empty target", func() {
		_, _, _, err := ParseTarget("")
		Expect(err).To(HaveOccurred())
	})

	It("rejects a bad port", func() {
		_, _, _, err := ParseTarget("localhost:grpc")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("pointID", func() {
	It("keeps UUID document IDs", func() {
		id := uuid.NewString()
		Expect(pointID(id).GetUuid()).To(Equal(id))
	})

	It("hashes other IDs into a stable UUID", func() {
		first := pointID("memory-1").GetUuid()
		Expect(uuid.Parse(first)).Error().NotTo(HaveOccurred())
		Expect(pointID("memory-1").GetUuid()).To(Equal(first))
		Expect(pointID("memory-2").GetUuid()).NotTo(Equal(first))
	})
})

var _ = Describe("payload conversion", func() {
	It("round-trips metadata and the document ID", func() {
		payload, err := toPayload("doc-1", map[string]any{
			"type":  "text",
			"tags":  []string{"a", "b"},
			"count": 3,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(payload).To(HaveKey(idKey))

		id, metadata := fromPayload(payload)
		Expect(id).To(Equal("doc-1"))
		Expect(metadata).To(HaveKeyWithValue("type", "text"))
		Expect(metadata).To(HaveKeyWithValue("tags", []any{"a", "b"}))
		Expect(metadata).To(HaveKey("count"))
		Expect(metadata).NotTo(HaveKey(idKey))
	})

	It("handles nil metadata", func() {
		payload, err := toPayload("doc-1", nil)
		Expect(err).NotTo(HaveOccurred())

		id, metadata := fromPayload(payload)
		Expect(id).To(Equal("doc-1"))
		Expect(metadata).To(BeEmpty())
	})
})

var _ = Describe("toFilter", func() {
	It("returns nil for an empty filter", func() {
		f, err := toFilter(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(BeNil())
	})

	It("builds one must condition per key", func() {
		f, err := toFilter(vector.Filter{"type": "text", "pinned": true})
		Expect(err).NotTo(HaveOccurred())
		Expect(f.GetMust()).To(HaveLen(2))
		Expect(f.GetMust()[1].GetField().GetKey()).To(Equal("type"))
		Expect(f.GetMust()[1].GetField().GetMatch().GetKeyword()).To(Equal("text"))
	})

	It("rejects unsupported value types", func() {
		_, err := toFilter(vector.Filter{"tags": []string{"a"}})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Driver", func() {
	It("requires dimensions", func() {
		_, err := NewDriver(context.Background(), Config{Target: "localhost:6334"}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})

	Context("against a live server", func() {
		var driver *Driver

		BeforeEach(func() {
			target := os.Getenv("MEMORIES_TEST_QDRANT_TARGET")
			if target == "" {
				Skip("MEMORIES_TEST_QDRANT_TARGET not set, skipping Qdrant tests")
			}

			var err error
			driver, err = NewDriver(context.Background(), Config{
				Target:         target,
				CollectionName: "memories_test_" + uuid.NewString()[:8],
				Dimensions:     4,
			}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			if driver != nil {
				driver.Close()
			}
		})

		It("upserts, filters and deletes", func() {
			ctx := context.Background()
			Expect(driver.Upsert(ctx, []vector.Document{
				{ID: "a", Embedding: []float32{1, 0, 0, 0}, Metadata: map[string]any{"type": "text"}},
				{ID: "b", Embedding: []float32{0, 1, 0, 0}, Metadata: map[string]any{"type": "audio"}},
			})).To(Succeed())

			results, err := driver.Query(ctx, []float32{1, 0, 0, 0}, 5, vector.Filter{"type": "audio"})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].ID).To(Equal("b"))

			Expect(driver.Delete(ctx, []string{"a", "b"})).To(Succeed())
			docs, err := driver.Get(ctx, []string{"a", "b"})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(BeEmpty())
		})

		It("returns embeddings normalized to unit length", func() {
			ctx := context.Background()
			Expect(driver.Upsert(ctx, []vector.Document{
				{ID: "c", Embedding: []float32{3, 4, 0, 0}, Metadata: map[string]any{"type": "text"}},
			})).To(Succeed())

			docs, err := driver.Get(ctx, []string{"c"})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].Metadata).To(HaveKeyWithValue("type", "text"))
			Expect(docs[0].Embedding).To(HaveLen(4))
			Expect(docs[0].Embedding[0]).To(BeNumerically("~", 0.6, 1e-5))
			Expect(docs[0].Embedding[1]).To(BeNumerically("~", 0.8, 1e-5))
		})
	})
})
