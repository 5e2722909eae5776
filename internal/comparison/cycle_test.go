package comparison

import (
	"reflect"
	"testing"
)

func TestCycle(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		repeat int
		want   []int
	}{
		{"repeat one", []int{4, 5, 6}, 1, []int{4, 5, 6, 4, 5, 6, 4}},
		{"repeat two", []int{1, 2}, 2, []int{1, 1, 2, 2, 1, 1, 2}},
		{"single value", []int{7}, 3, []int{7, 7, 7, 7}},
		{"empty", nil, 2, []int{0, 0, 0}},
		{"zero repeat", []int{1, 2}, 0, []int{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCycle(tt.values, tt.repeat)
			got := make([]int, len(tt.want))
			for i := range got {
				got[i] = c.next()
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMark_NextCycles(t *testing.T) {
	want := []Mark{Good, Bad, Unsure, Undefined, Good}
	m := Undefined
	for i, w := range want {
		m = m.Next()
		if m != w {
			t.Fatalf("step %d: got %v, want %v", i, m, w)
		}
	}
}

func TestParseMark(t *testing.T) {
	for _, m := range []Mark{Undefined, Good, Bad, Unsure} {
		got, err := ParseMark(m.String())
		if err != nil || got != m {
			t.Fatalf("ParseMark(%q) = %v, %v", m.String(), got, err)
		}
	}
	if got, _ := ParseMark("G"); got != Good {
		t.Fatalf("short form: got %v", got)
	}
	if _, err := ParseMark("excellent"); err == nil {
		t.Fatalf("expected error")
	}
}
