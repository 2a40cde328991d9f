package pgvector

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memories/pkg/logger"
	"github.com/papercomputeco/memories/pkg/vector"
)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("MEMORIES_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("MEMORIES_TEST_POSTGRES_DSN not set, skipping pgvector tests")
	}
	return dsn
}

var _ = Describe("vector literals", func() {
	It("formats embeddings", func() {
		Expect(formatVector([]float32{0.5, -1, 2.25})).To(Equal("[0.5,-1,2.25]"))
		Expect(formatVector(nil)).To(Equal("[]"))
	})

	It("parses what it formats", func() {
		v, err := parseVector(formatVector([]float32{0.1, 0.2, 0.3}))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(HaveLen(3))
		Expect(v[1]).To(BeNumerically("~", 0.2, 0.0001))
	})

	It("rejects malformed literals", func() {
		_, err := parseVector("0.1,0.2")
		Expect(err).To(HaveOccurred())

		_, err = parseVector("[0.1,abc]")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("NewDriver", func() {
	It("requires a connection string", func() {
		_, err := NewDriver(context.Background(), Config{Dimensions: 4}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("connection string is required")))
	})

	It("requires dimensions", func() {
		_, err := NewDriver(context.Background(), Config{ConnString: "postgres://localhost/x"}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})

	It("rejects unsafe table names", func() {
		_, err := NewDriver(context.Background(), Config{
			ConnString: "postgres://localhost/x",
			TableName:  "memories; DROP TABLE x",
			Dimensions: 4,
		}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("invalid table name")))
	})
})

var _ = Describe("Driver", func() {
	var (
		driver *Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		dsn := connStr()

		var err error
		driver, err = NewDriver(ctx, Config{
			ConnString: dsn,
			TableName:  "memories_test",
			Dimensions: 4,
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		_, err = driver.pool.Exec(ctx, "TRUNCATE memories_test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if driver != nil {
			driver.Close()
		}
	})

	It("upserts and replaces by ID", func() {
		Expect(driver.Upsert(ctx, []vector.Document{
			{ID: "a", Embedding: []float32{1, 0, 0, 0}, Metadata: map[string]any{"title": "old"}},
		})).To(Succeed())
		Expect(driver.Upsert(ctx, []vector.Document{
			{ID: "a", Embedding: []float32{0, 1, 0, 0}, Metadata: map[string]any{"title": "new"}},
		})).To(Succeed())

		docs, err := driver.Get(ctx, []string{"a", "missing"})
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(1))
		Expect(docs[0].Metadata).To(HaveKeyWithValue("title", "new"))
		Expect(docs[0].Embedding).To(Equal([]float32{0, 1, 0, 0}))
	})

	It("ranks by cosine similarity and applies the filter", func() {
		Expect(driver.Upsert(ctx, []vector.Document{
			{ID: "a", Embedding: []float32{1, 0, 0, 0}, Metadata: map[string]any{"type": "text"}},
			{ID: "b", Embedding: []float32{0.9, 0.1, 0, 0}, Metadata: map[string]any{"type": "audio"}},
			{ID: "c", Embedding: []float32{0, 0, 1, 0}, Metadata: map[string]any{"type": "text"}},
		})).To(Succeed())

		results, err := driver.Query(ctx, []float32{1, 0, 0, 0}, 5, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		Expect(results[0].ID).To(Equal("a"))

		results, err = driver.Query(ctx, []float32{1, 0, 0, 0}, 5, vector.Filter{"type": "text"})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		for _, r := range results {
			Expect(r.Metadata).To(HaveKeyWithValue("type", "text"))
		}
	})

	It("deletes documents", func() {
		Expect(driver.Upsert(ctx, []vector.Document{
			{ID: "a", Embedding: []float32{1, 0, 0, 0}},
		})).To(Succeed())
		Expect(driver.Delete(ctx, []string{"a"})).To(Succeed())

		docs, err := driver.Get(ctx, []string{"a"})
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(BeEmpty())
	})
})
