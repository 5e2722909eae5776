package comparison

import (
	"fmt"
	"strings"
)

// Mark classifies one copy of one differing chunk.
type Mark uint8

const (
	Undefined Mark = iota
	Good
	Bad
	Unsure
)

func (m Mark) String() string {
	switch m {
	case Undefined:
		return "undefined"
	case Good:
		return "good"
	case Bad:
		return "bad"
	case Unsure:
		return "unsure"
	default:
		return fmt.Sprintf("mark(%d)", uint8(m))
	}
}

// Next cycles Undefined, Good, Bad, Unsure and back to Undefined.
func (m Mark) Next() Mark {
	switch m {
	case Undefined:
		return Good
	case Good:
		return Bad
	case Bad:
		return Unsure
	default:
		return Undefined
	}
}

func (m Mark) valid() bool {
	return m <= Unsure
}

// ParseMark accepts a mark name or its first letter, in any case.
func ParseMark(s string) (Mark, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "undefined", "u", "?", "":
		return Undefined, nil
	case "good", "g":
		return Good, nil
	case "bad", "b":
		return Bad, nil
	case "unsure", "s":
		return Unsure, nil
	default:
		return Undefined, fmt.Errorf("unknown mark %q", s)
	}
}

func (m Mark) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mark) UnmarshalText(b []byte) error {
	v, err := ParseMark(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
