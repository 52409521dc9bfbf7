// Package idgen produces submission identifiers and registration numbers.
// Both combine the current millisecond clock with random base36 characters
// drawn from a v4 UUID, so collisions are improbable but not impossible.
package idgen

import (
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	SubmissionIDPrefix       = "sub_"
	RegistrationNumberPrefix = "UDYAM-"

	submissionSuffixLen   = 9
	registrationSuffixLen = 4
	registrationDigits    = 8
)

// Generator creates identifiers from an injectable clock.
type Generator struct {
	now func() time.Time
}

type Option func(*Generator)

// WithClock overrides the clock used for the timestamp part.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SubmissionID returns sub_<unix-ms>_<9 lowercase base36 chars>.
func (g *Generator) SubmissionID() string {
	ms := g.now().UnixMilli()
	return SubmissionIDPrefix + strconv.FormatInt(ms, 10) + "_" + randomBase36(submissionSuffixLen)
}

// RegistrationNumber returns UDYAM-<last 8 digits of unix-ms>-<4 uppercase base36 chars>.
func (g *Generator) RegistrationNumber() string {
	ms := strconv.FormatInt(g.now().UnixMilli(), 10)
	if len(ms) > registrationDigits {
		ms = ms[len(ms)-registrationDigits:]
	} else {
		ms = strings.Repeat("0", registrationDigits-len(ms)) + ms
	}
	return RegistrationNumberPrefix + ms + "-" + strings.ToUpper(randomBase36(registrationSuffixLen))
}

// randomBase36 returns n lowercase base36 characters taken from the tail of
// a random UUID's base36 encoding. A 128-bit value yields up to 25 digits.
func randomBase36(n int) string {
	u := uuid.New()
	s := new(big.Int).SetBytes(u[:]).Text(36)
	if len(s) < n {
		s = strings.Repeat("0", n-len(s)) + s
	}
	return s[len(s)-n:]
}
