package pool

import (
	"fmt"
	"strings"
)

// Mode selects a pool's growth policy and backing layout.
type Mode uint8

const (
	DoublingIndividual Mode = iota // doubling growth, one block per object
	DoublingChunk                  // doubling growth, one block per growth step
	LinearIndividual               // linear growth, one block per object
	LinearChunk                    // linear growth, one block per growth step
)

var modeNames = [...]string{
	DoublingIndividual: "doubling-individual",
	DoublingChunk:      "doubling-chunk",
	LinearIndividual:   "linear-individual",
	LinearChunk:        "linear-chunk",
}

// Modes returns every supported mode.
func Modes() []Mode {
	return []Mode{DoublingIndividual, DoublingChunk, LinearIndividual, LinearChunk}
}

// Chunked reports whether growth steps materialize as one contiguous block.
func (m Mode) Chunked() bool { return m == DoublingChunk || m == LinearChunk }

// Linear reports whether capacity grows by the initial count rather than doubling.
func (m Mode) Linear() bool { return m == LinearIndividual || m == LinearChunk }

func (m Mode) valid() bool { return int(m) < len(modeNames) }

func (m Mode) String() string {
	if !m.valid() {
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
	return modeNames[m]
}

// ParseMode parses a mode name as printed by String. Underscores and case are
// ignored, so "LINEAR_CHUNK" is accepted too.
func ParseMode(s string) (Mode, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
	for i, name := range modeNames {
		if name == norm {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidArgument, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.valid() {
		return nil, fmt.Errorf("%w: unknown mode %d", ErrInvalidArgument, uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
