package digest

import "fmt"

// uniform wraps a digest and reports "0xNN" instead of the underlying
// value when every byte fed since the last reset was the same value NN.
// With nothing fed the underlying value is reported.
type uniform struct {
	inner Digest
	fed   bool
	first byte
	same  bool
}

func newUniform(inner Digest) *uniform {
	return &uniform{inner: inner, same: true}
}

func (u *uniform) Name() string { return u.inner.Name() }

func (u *uniform) Reset() {
	u.inner.Reset()
	u.fed = false
	u.first = 0
	u.same = true
}

func (u *uniform) Update(p []byte) {
	if len(p) == 0 {
		return
	}
	u.inner.Update(p)

	if !u.fed {
		u.fed = true
		u.first = p[0]
	}
	if !u.same {
		return
	}
	for _, b := range p {
		if b != u.first {
			u.same = false
			return
		}
	}
}

func (u *uniform) HexValue() string {
	if u.fed && u.same {
		return fmt.Sprintf("0x%02X", u.first)
	}
	return u.inner.HexValue()
}
