package chroma_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memories/pkg/logger"
	"github.com/papercomputeco/memories/pkg/vector"
	"github.com/papercomputeco/memories/pkg/vector/chroma"
)

// fakeChroma records request bodies per operation and serves canned responses.
type fakeChroma struct {
	mu     sync.Mutex
	bodies map[string]map[string]any
	query  map[string]any
}

func (f *fakeChroma) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(map[string]string{"id": "col-1", "name": "memories"})
			return
		}

		op := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		f.bodies[op] = body
		f.mu.Unlock()

		switch op {
		case "query":
			json.NewEncoder(w).Encode(f.query)
		case "get":
			json.NewEncoder(w).Encode(map[string]any{
				"ids":        []string{"doc-1"},
				"metadatas":  []map[string]any{{"type": "text", "_metadata": `{"type":"text","tags":["a","b"]}`}},
				"embeddings": [][]float32{{0.1, 0.2}},
			})
		default:
			w.Write([]byte(`{}`))
		}
	})
}

func (f *fakeChroma) body(op string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[op]
}

var _ = Describe("Driver", func() {
	var log *slog.Logger

	BeforeEach(func() {
		log = logger.Nop()
	})

	Describe("NewDriver", func() {
		It("should return an error when URL is empty", func() {
			_, err := chroma.NewDriver(chroma.Config{URL: ""}, log)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("chroma URL is required"))
		})

		It("should succeed after retrying when Chroma becomes available", func() {
			var attempts atomic.Int32

			// Each attempt issues a GET for the collection and a POST to
			// create it. Fail the first two attempts.
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempt := attempts.Add(1)
				if attempt <= 4 {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{
					"id":   "test-collection-id",
					"name": "memories",
				})
			}))
			defer server.Close()

			driver, err := chroma.NewDriver(chroma.Config{
				URL:           server.URL,
				MaxRetries:    5,
				RetryDelay:    10 * time.Millisecond,
				MaxRetryDelay: 50 * time.Millisecond,
			}, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver).NotTo(BeNil())
			Expect(attempts.Load()).To(BeNumerically(">=", int32(5)))
		})

		It("should return an error after exhausting all retries", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			}))
			defer server.Close()

			_, err := chroma.NewDriver(chroma.Config{
				URL:           server.URL,
				MaxRetries:    3,
				RetryDelay:    10 * time.Millisecond,
				MaxRetryDelay: 50 * time.Millisecond,
			}, log)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("after 3 attempts"))
			Expect(err).To(MatchError(vector.ErrConnection))
		})
	})

	Describe("Operations", func() {
		var (
			fake   *fakeChroma
			server *httptest.Server
			driver *chroma.Driver
		)

		BeforeEach(func() {
			fake = &fakeChroma{
				bodies: map[string]map[string]any{},
				query: map[string]any{
					"ids":       [][]string{{"doc-1", "doc-2"}},
					"distances": [][]float32{{0, 1}},
					"metadatas": [][]map[string]any{{
						{"type": "text", "_metadata": `{"type":"text","title":"Groceries"}`},
						{"type": "text"},
					}},
				},
			}
			server = httptest.NewServer(fake.handler())

			var err error
			driver, err = chroma.NewDriver(chroma.Config{URL: server.URL}, log)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			server.Close()
		})

		It("should flatten scalar metadata and keep the full map as JSON", func() {
			err := driver.Upsert(context.Background(), []vector.Document{{
				ID:        "doc-1",
				Embedding: []float32{0.1, 0.2},
				Metadata:  map[string]any{"type": "text", "tags": []string{"a"}},
			}})
			Expect(err).NotTo(HaveOccurred())

			body := fake.body("upsert")
			Expect(body["ids"]).To(ConsistOf("doc-1"))

			metadatas := body["metadatas"].([]any)
			stored := metadatas[0].(map[string]any)
			Expect(stored).To(HaveKeyWithValue("type", "text"))
			Expect(stored).NotTo(HaveKey("tags"))
			Expect(stored["_metadata"]).To(ContainSubstring(`"tags":["a"]`))
		})

		It("should send a where clause for a single-key filter", func() {
			_, err := driver.Query(context.Background(), []float32{0.1, 0.2}, 5, vector.Filter{"type": "text"})
			Expect(err).NotTo(HaveOccurred())

			body := fake.body("query")
			Expect(body["n_results"]).To(BeEquivalentTo(5))
			Expect(body["where"]).To(Equal(map[string]any{"type": "text"}))
		})

		It("should combine multiple filter keys with $and", func() {
			_, err := driver.Query(context.Background(), []float32{0.1, 0.2}, 5, vector.Filter{"type": "text", "title": "x"})
			Expect(err).NotTo(HaveOccurred())

			where := fake.body("query")["where"].(map[string]any)
			Expect(where).To(HaveKey("$and"))
			Expect(where["$and"]).To(HaveLen(2))
		})

		It("should omit the where clause without a filter", func() {
			_, err := driver.Query(context.Background(), []float32{0.1, 0.2}, 0, nil)
			Expect(err).NotTo(HaveOccurred())

			body := fake.body("query")
			Expect(body).NotTo(HaveKey("where"))
			Expect(body["n_results"]).To(BeEquivalentTo(10))
		})

		It("should restore metadata and convert distances to scores", func() {
			results, err := driver.Query(context.Background(), []float32{0.1, 0.2}, 5, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].Metadata).To(HaveKeyWithValue("title", "Groceries"))
			Expect(results[0].Score).To(BeNumerically("~", 1.0, 0.001))
			Expect(results[1].Metadata).To(Equal(map[string]any{"type": "text"}))
			Expect(results[1].Score).To(BeNumerically("~", 0.5, 0.001))
		})

		It("should restore metadata on Get", func() {
			docs, err := driver.Get(context.Background(), []string{"doc-1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].Metadata).To(HaveKeyWithValue("tags", ConsistOf("a", "b")))
			Expect(docs[0].Embedding).To(HaveLen(2))
		})

		It("should send IDs on Delete", func() {
			Expect(driver.Delete(context.Background(), []string{"doc-1"})).To(Succeed())
			Expect(fake.body("delete")["ids"]).To(ConsistOf("doc-1"))
		})
	})

	Describe("Interface compliance", func() {
		It("should implement vector.Driver interface", func() {
			var _ vector.Driver = (*chroma.Driver)(nil)
		})
	})
})
