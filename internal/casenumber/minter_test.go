package casenumber

import (
	"bytes"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "pcms/pkg/domain-errors"
)

var caseNumberPattern = regexp.MustCompile(`^CA-\d{4}-\d{8}$`)

func fixedClock(year int) func() time.Time {
	return func() time.Time { return time.Date(year, time.June, 1, 12, 0, 0, 0, time.UTC) }
}

func TestMintCaseNumber(t *testing.T) {
	t.Run("matches format and current year", func(t *testing.T) {
		m := New(WithClock(fixedClock(2024)))
		for i := 0; i < 200; i++ {
			number := m.MintCaseNumber()
			require.Regexp(t, caseNumberPattern, number)
			year, _, err := Parse(number)
			require.NoError(t, err)
			assert.Equal(t, 2024, year)
		}
	})

	t.Run("zero pads small draws", func(t *testing.T) {
		m := New(WithRandom(bytes.NewReader([]byte{0, 0, 0, 42})), WithClock(fixedClock(2024)))
		assert.Equal(t, "CA-2024-00000042", m.MintCaseNumber())
	})

	t.Run("reduces draws modulo 10^8", func(t *testing.T) {
		// 0x05F5E164 = 100_000_100
		m := New(WithRandom(bytes.NewReader([]byte{0x05, 0xF5, 0xE1, 0x64})), WithClock(fixedClock(2025)))
		assert.Equal(t, "CA-2025-00000100", m.MintCaseNumber())
	})

	t.Run("discards draws above the uniform range", func(t *testing.T) {
		src := bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 7})
		m := New(WithRandom(src), WithClock(fixedClock(2024)))
		assert.Equal(t, "CA-2024-00000007", m.MintCaseNumber())
	})

	t.Run("dates by the given instant, not the clock", func(t *testing.T) {
		m := New(WithRandom(bytes.NewReader([]byte{0, 0, 0, 9})), WithClock(fixedClock(2026)))
		eve := time.Date(2024, time.December, 31, 23, 59, 59, 0, time.UTC)
		assert.Equal(t, "CA-2024-00000009", m.MintCaseNumberAt(eve))
	})

	t.Run("uses the UTC year of the instant", func(t *testing.T) {
		m := New(WithRandom(bytes.NewReader([]byte{0, 0, 0, 1})))
		// 2025-01-01 01:00 in UTC+3 is still 2024 in UTC.
		local := time.Date(2025, time.January, 1, 1, 0, 0, 0, time.FixedZone("MSK", 3*3600))
		assert.Equal(t, "CA-2024-00000001", m.MintCaseNumberAt(local))
	})

	t.Run("panics when entropy source fails", func(t *testing.T) {
		m := New(WithRandom(failingReader{}))
		assert.Panics(t, func() { m.MintCaseNumber() })
	})
}

func TestNewDeterministic(t *testing.T) {
	a := NewDeterministic(7, WithClock(fixedClock(2024)))
	b := NewDeterministic(7, WithClock(fixedClock(2024)))
	c := NewDeterministic(8, WithClock(fixedClock(2024)))

	seqA := []string{a.MintCaseNumber(), a.MintCaseNumber(), a.MintCaseNumber()}
	seqB := []string{b.MintCaseNumber(), b.MintCaseNumber(), b.MintCaseNumber()}
	seqC := []string{c.MintCaseNumber(), c.MintCaseNumber(), c.MintCaseNumber()}

	assert.Equal(t, seqA, seqB)
	assert.NotEqual(t, seqA, seqC)
}

func TestMintCaseNumber_Concurrent(t *testing.T) {
	m := NewDeterministic(1)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.Regexp(t, caseNumberPattern, m.MintCaseNumber())
			}
		}()
	}
	wg.Wait()
}

func TestParse(t *testing.T) {
	year, seq, err := Parse("CA-2024-00412345")
	require.NoError(t, err)
	assert.Equal(t, 2024, year)
	assert.Equal(t, uint32(412345), seq)

	for _, bad := range []string{"", "CA-2024-123", "XX-2024-00000001", "CA-24-00000001", "CA-2024-0000000a", "CA-2024-00000001-1"} {
		_, _, err := Parse(bad)
		require.Error(t, err, bad)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), bad)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }
