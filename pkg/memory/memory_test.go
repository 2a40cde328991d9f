package memory_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memories/pkg/memory"
	"github.com/papercomputeco/memories/pkg/vector"
)

var _ = Describe("Modality", func() {
	DescribeTable("ParseModality accepts known names case-insensitively",
		func(input string, expected memory.Modality) {
			m, err := memory.ParseModality(input)
			Expect(err).NotTo(HaveOccurred())
			Expect(m).To(Equal(expected))
		},
		Entry("text", "text", memory.Text),
		Entry("upper case audio", "AUDIO", memory.Audio),
		Entry("mixed case image", "Image", memory.Image),
		Entry("video", "video", memory.Video),
		Entry("spatial with spaces", " spatial ", memory.Spatial),
	)

	It("rejects unknown names and lists the valid ones", func() {
		_, err := memory.ParseModality("bogus")
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, memory.ErrInvalidModality)).To(BeTrue())
		Expect(errors.Is(err, memory.ErrInvalidInput)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("text, audio, image, video, spatial"))
	})

	It("returns a copy of the modality list", func() {
		mods := memory.Modalities()
		Expect(mods).To(HaveLen(5))
		mods[0] = "changed"
		Expect(memory.Modalities()[0]).To(Equal(memory.Text))
	})
})

var _ = Describe("Record", func() {
	It("always sets the type metadata from the modality", func() {
		rec := memory.NewRecord("id-1", memory.Audio, []float32{1, 2}, map[string]any{
			"type":          "text",
			"transcription": "hello",
		})
		Expect(rec.Type).To(Equal(memory.Audio))
		Expect(rec.Metadata).To(HaveKeyWithValue("type", "audio"))
		Expect(rec.Metadata).To(HaveKeyWithValue("transcription", "hello"))
	})

	It("does not alias the caller's metadata map", func() {
		md := map[string]any{"videoData": "http://example.com/v.mp4"}
		rec := memory.NewRecord("id-1", memory.Video, nil, md)
		Expect(md).NotTo(HaveKey("type"))
		Expect(rec.Metadata).To(HaveKey("type"))
	})

	It("converts to and from a vector document", func() {
		rec := memory.NewRecord("id-2", memory.Spatial, []float32{0.5}, map[string]any{"spatialData": "ref"})
		doc := rec.Document()
		Expect(doc.ID).To(Equal("id-2"))
		Expect(doc.Embedding).To(Equal([]float32{0.5}))

		back, err := memory.RecordFromDocument(doc)
		Expect(err).NotTo(HaveOccurred())
		Expect(back).To(Equal(rec))
	})

	It("fails to rebuild a record without a type", func() {
		_, err := memory.RecordFromDocument(vector.Document{ID: "x", Metadata: map[string]any{}})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("InputError", func() {
	It("reports its reason and matches ErrInvalidInput", func() {
		err := memory.NewInputError("No text content provided")
		Expect(err).To(MatchError("No text content provided"))
		Expect(errors.Is(err, memory.ErrInvalidInput)).To(BeTrue())
		Expect(errors.Is(err, memory.ErrInvalidModality)).To(BeFalse())
	})
})
