// Package casenumber mints human-facing case numbers of the form
// CA-<year>-<8 digits>.
//
// The minter only produces candidates. Uniqueness is enforced by the store's
// case-number registry; the case service re-mints on conflict.
package casenumber

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	mathrand "math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	dErrors "pcms/pkg/domain-errors"
)

const (
	Prefix = "CA"

	// Digits is the width of the random sequence part.
	Digits = 8

	modulus = 100_000_000
	// rejectAbove is the largest multiple of modulus that fits in a uint32.
	// Draws at or above it are discarded so the reduction stays uniform.
	rejectAbove = (1 << 32) / modulus * modulus
)

// Minter draws case numbers from an entropy source. Safe for concurrent use.
type Minter struct {
	mu     sync.Mutex
	random io.Reader
	clock  func() time.Time
}

type Option func(*Minter)

// WithRandom replaces the entropy source. Tests use it to make draws
// reproducible; production keeps crypto/rand.
func WithRandom(r io.Reader) Option {
	return func(m *Minter) {
		if r != nil {
			m.random = r
		}
	}
}

// WithClock sets the clock the year is read from.
func WithClock(clock func() time.Time) Option {
	return func(m *Minter) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// New returns a minter backed by crypto/rand and the wall clock.
func New(opts ...Option) *Minter {
	m := &Minter{random: rand.Reader, clock: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewDeterministic returns a minter whose sequence is fully determined by seed.
// Never use it outside tests: the numbers are predictable.
func NewDeterministic(seed uint64, opts ...Option) *Minter {
	var key [32]byte
	binary.BigEndian.PutUint64(key[:8], seed)
	return New(append([]Option{WithRandom(mathrand.NewChaCha8(key))}, opts...)...)
}

// MintCaseNumber returns a fresh candidate such as "CA-2024-00412345",
// dated by the minter clock.
func (m *Minter) MintCaseNumber() string {
	return m.MintCaseNumberAt(m.clock())
}

// MintCaseNumberAt returns a fresh candidate whose year is the UTC year of at.
// Callers that stamp the record themselves pass the same instant so the
// number and the creation time never disagree.
// It panics if the entropy source fails; crypto/rand.Reader does not.
func (m *Minter) MintCaseNumberAt(at time.Time) string {
	n, err := m.draw()
	if err != nil {
		panic(fmt.Sprintf("casenumber: entropy source failed: %v", err))
	}
	return Format(at.UTC().Year(), n)
}

func (m *Minter) draw() (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var buf [4]byte
	for {
		if _, err := io.ReadFull(m.random, buf[:]); err != nil {
			return 0, err
		}
		v := binary.BigEndian.Uint32(buf[:])
		if v < rejectAbove {
			return v % modulus, nil
		}
	}
}

// Format renders a case number from its parts.
func Format(year int, sequence uint32) string {
	return fmt.Sprintf("%s-%04d-%0*d", Prefix, year, Digits, sequence)
}

// Parse splits a case number into year and sequence, rejecting anything that
// Format could not have produced.
func Parse(number string) (year int, sequence uint32, err error) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] != Prefix {
		return 0, 0, dErrors.New(dErrors.CodeInvalidInput, "case number must look like CA-<year>-<digits>")
	}
	if len(parts[1]) != 4 || !allDigits(parts[1]) {
		return 0, 0, dErrors.New(dErrors.CodeInvalidInput, "case number year must be four digits")
	}
	if len(parts[2]) != Digits || !allDigits(parts[2]) {
		return 0, 0, dErrors.New(dErrors.CodeInvalidInput, "case number sequence must be eight digits")
	}
	year, _ = strconv.Atoi(parts[1])
	seq, _ := strconv.ParseUint(parts[2], 10, 32)
	return year, uint32(seq), nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
