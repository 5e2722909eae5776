package digest

import "encoding/binary"

// crc16 is the bit-serial CRC-16 (polynomial 0x1021, zero initial value,
// no final augmentation).
type crc16 struct {
	value uint32
}

func (c *crc16) Write(p []byte) (int, error) {
	v := c.value
	for _, b := range p {
		a := uint32(b)
		for i := 0; i < 8; i++ {
			a <<= 1
			bit := (a >> 8) & 1
			if v&0x8000 != 0 {
				v = ((v << 1) + bit) ^ 0x1021
			} else {
				v = (v << 1) + bit
			}
		}
		v &= 0xffff
	}
	c.value = v
	return len(p), nil
}

func (c *crc16) Sum(b []byte) []byte { return binary.BigEndian.AppendUint16(b, uint16(c.value)) }
func (c *crc16) Reset()              { c.value = 0 }
func (c *crc16) Size() int           { return 2 }
func (c *crc16) BlockSize() int      { return 1 }

// bsdSum is the 16-bit rotating checksum of BSD sum(1).
type bsdSum struct {
	value uint16
}

func (s *bsdSum) Write(p []byte) (int, error) {
	v := s.value
	for _, b := range p {
		v = (v >> 1) | (v << 15)
		v += uint16(b)
	}
	s.value = v
	return len(p), nil
}

func (s *bsdSum) Sum(b []byte) []byte { return binary.BigEndian.AppendUint16(b, s.value) }
func (s *bsdSum) Reset()              { s.value = 0 }
func (s *bsdSum) Size() int           { return 2 }
func (s *bsdSum) BlockSize() int      { return 1 }

// sysvSum is the System V sum(1) -s algorithm: a plain byte sum folded
// into 16 bits.
type sysvSum struct {
	total uint32
}

func (s *sysvSum) Write(p []byte) (int, error) {
	for _, b := range p {
		s.total += uint32(b)
	}
	return len(p), nil
}

func (s *sysvSum) Sum(b []byte) []byte {
	r := (s.total & 0xffff) + (s.total >> 16)
	r = (r & 0xffff) + (r >> 16)
	return binary.BigEndian.AppendUint16(b, uint16(r))
}

func (s *sysvSum) Reset()         { s.total = 0 }
func (s *sysvSum) Size() int      { return 2 }
func (s *sysvSum) BlockSize() int { return 1 }

var cksumTable = func() [256]uint32 {
	const poly = 0x04C11DB7
	var t [256]uint32
	for i := range t {
		c := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if c&0x80000000 != 0 {
				c = (c << 1) ^ poly
			} else {
				c <<= 1
			}
		}
		t[i] = c
	}
	return t
}()

// cksum is the POSIX cksum(1) CRC: MSB-first CRC-32 over the data followed
// by the data length in little-endian bytes, complemented.
type cksum struct {
	crc    uint32
	length uint64
}

func (c *cksum) Write(p []byte) (int, error) {
	crc := c.crc
	for _, b := range p {
		crc = (crc << 8) ^ cksumTable[byte(crc>>24)^b]
	}
	c.crc = crc
	c.length += uint64(len(p))
	return len(p), nil
}

func (c *cksum) Sum(b []byte) []byte {
	crc := c.crc
	for n := c.length; n != 0; n >>= 8 {
		crc = (crc << 8) ^ cksumTable[byte(crc>>24)^byte(n)]
	}
	return binary.BigEndian.AppendUint32(b, ^crc)
}

func (c *cksum) Reset()         { c.crc, c.length = 0, 0 }
func (c *cksum) Size() int      { return 4 }
func (c *cksum) BlockSize() int { return 1 }
