package memory

import (
	"fmt"
	"strings"
)

// Modality is the kind of content a memory holds.
type Modality string

const (
	Text    Modality = "text"
	Audio   Modality = "audio"
	Image   Modality = "image"
	Video   Modality = "video"
	Spatial Modality = "spatial"
)

// modalities is ordered the way valid values are reported to clients.
var modalities = []Modality{Text, Audio, Image, Video, Spatial}

// Modalities returns every known modality.
func Modalities() []Modality {
	out := make([]Modality, len(modalities))
	copy(out, modalities)
	return out
}

// ModalityNames returns the known modality names, comma separated.
func ModalityNames() string {
	names := make([]string, len(modalities))
	for i, m := range modalities {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// ParseModality parses a modality name case-insensitively.
func ParseModality(s string) (Modality, error) {
	m := Modality(strings.ToLower(strings.TrimSpace(s)))
	if m.Valid() {
		return m, nil
	}
	return "", fmt.Errorf("%w %q: must be one of: %s", ErrInvalidModality, s, ModalityNames())
}

// Valid reports whether m is one of the known modalities.
func (m Modality) Valid() bool {
	for _, known := range modalities {
		if m == known {
			return true
		}
	}
	return false
}

func (m Modality) String() string {
	return string(m)
}
