package eventstream_test

import (
	"encoding/json"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memories/pkg/eventstream"
	"github.com/papercomputeco/memories/pkg/memory"
)

var _ = Describe("Event", func() {
	var record *memory.Record

	BeforeEach(func() {
		record = memory.NewRecord("mem-1", memory.Image, []float32{0.1, 0.2}, map[string]any{
			"filename": "cat.png",
			"base64":   "aGVsbG8gd29ybGQ=",
		})
	})

	It("marshals MemoryPersistedEvent with expected top-level keys", func() {
		now := time.Unix(1735689600, 0).UTC()
		event := eventstream.NewMemoryPersistedEvent(record, eventstream.EventSource{VectorStore: "sqlite"}, now)

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKeyWithValue("schema_version", BeNumerically("==", eventstream.SchemaVersionV1)))
		Expect(got).To(HaveKeyWithValue("event_type", eventstream.EventTypeMemoryPersisted))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKeyWithValue("memory", map[string]any{"id": "mem-1", "type": "image"}))
		Expect(got).To(HaveKeyWithValue("metadata_keys", []any{"base64", "filename", "type"}))
		Expect(got).To(HaveKey("source"))
	})

	It("never carries metadata values", func() {
		event := eventstream.NewMemoryPersistedEvent(record, eventstream.EventSource{}, time.Now())

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(payload)).NotTo(ContainSubstring("aGVsbG8gd29ybGQ="))
		Expect(string(payload)).NotTo(ContainSubstring("cat.png"))
	})

	It("assigns unique event IDs", func() {
		a := eventstream.NewMemoryPersistedEvent(record, eventstream.EventSource{}, time.Now())
		b := eventstream.NewMemoryPersistedEvent(record, eventstream.EventSource{}, time.Now())
		Expect(strings.HasPrefix(a.EventID, "evt_")).To(BeTrue())
		Expect(a.EventID).NotTo(Equal(b.EventID))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeMemoryPersisted).To(Equal("memories.memory.persisted"))
	})

	It("provides ErrNilMemoryEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilMemoryEvent).To(MatchError("nil memory event"))
	})
})
