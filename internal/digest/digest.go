// Package digest provides the named checksum variants used to fingerprint
// chunks, from CRC-32 and the classic Unix sums up to SHA-256, BLAKE3 and
// XXH64. New wraps every variant so that a span of one repeated byte b
// reports "0x" followed by b in upper-case hex instead of its checksum.
package digest

import (
	"crypto/md5"  // #nosec G501 -- used for corruption detection only
	"crypto/sha1" // #nosec G505 -- used for corruption detection only
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"hash/adler32"
	"hash/crc32"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

const (
	CRC32      = "CRC-32"
	CRC16      = "CRC-16"
	Adler32    = "Adler32"
	BSDSum     = "BSD sum"
	POSIXCksum = "POSIX cksum"
	SysVSum    = "Unix System V"
	MD5        = "MD5"
	SHA1       = "SHA-1"
	SHA256     = "SHA-256"
	BLAKE3     = "BLAKE3"
	XXH64      = "XXH64"

	// Default is used for empty and unrecognised algorithm names.
	Default = CRC32
)

// Digest is a resettable accumulator over a byte stream.
type Digest interface {
	Name() string
	Reset()
	Update(p []byte)
	HexValue() string
}

var constructors = map[string]func() hash.Hash{
	CRC32:      func() hash.Hash { return crc32.NewIEEE() },
	CRC16:      func() hash.Hash { return new(crc16) },
	Adler32:    func() hash.Hash { return adler32.New() },
	BSDSum:     func() hash.Hash { return new(bsdSum) },
	POSIXCksum: func() hash.Hash { return new(cksum) },
	SysVSum:    func() hash.Hash { return new(sysvSum) },
	MD5:        func() hash.Hash { return md5.New() },  // #nosec G401 -- used for corruption detection only
	SHA1:       func() hash.Hash { return sha1.New() }, // #nosec G401 -- used for corruption detection only
	SHA256:     func() hash.Hash { return sha256.New() },
	BLAKE3:     func() hash.Hash { return blake3.New() },
	XXH64:      func() hash.Hash { return xxhash.New() },
}

// aliases maps squashed names (upper case, no spaces or punctuation)
// to canonical names.
var aliases = func() map[string]string {
	m := make(map[string]string, len(constructors)+4)
	for name := range constructors {
		m[squash(name)] = name
	}
	m["SYSVSUM"] = SysVSum
	m["SYSV"] = SysVSum
	m["CKSUM"] = POSIXCksum
	m["SUM"] = BSDSum
	return m
}()

func squash(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(name)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Canonical returns the registered name for algorithm and whether it
// was recognised. Unrecognised names resolve to Default.
func Canonical(algorithm string) (string, bool) {
	if _, ok := constructors[algorithm]; ok {
		return algorithm, true
	}
	if name, ok := aliases[squash(algorithm)]; ok {
		return name, true
	}
	return Default, false
}

// New returns a digest for algorithm with the uniform-run shortcut
// applied. Unknown names fall back to CRC-32; Name reports the variant
// actually in use.
func New(algorithm string) Digest {
	return newUniform(newPlain(algorithm))
}

// NewPlain returns the digest for algorithm without the uniform-run
// shortcut.
func NewPlain(algorithm string) Digest {
	return newPlain(algorithm)
}

func newPlain(algorithm string) *hashDigest {
	name, _ := Canonical(algorithm)
	return &hashDigest{name: name, h: constructors[name]()}
}

// Supported returns all algorithm names, sorted.
func Supported() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type hashDigest struct {
	name string
	h    hash.Hash
}

func (d *hashDigest) Name() string { return d.name }
func (d *hashDigest) Reset()       { d.h.Reset() }

func (d *hashDigest) Update(p []byte) {
	_, _ = d.h.Write(p) // hash.Hash writes never fail
}

func (d *hashDigest) HexValue() string {
	return hex.EncodeToString(d.h.Sum(nil))
}
