package slug

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

const (
	DefaultSuffixLength = 6
	DefaultMaxAttempts  = 5

	fallbackBase = "wish"
	alphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
)

// ErrExhausted is returned when every candidate was rejected.
var ErrExhausted = errors.New("slug: all candidates collided")

// AcceptFunc decides whether a candidate is taken. Returning (false, nil)
// marks a collision; a non-nil error aborts generation.
type AcceptFunc func(ctx context.Context, candidate string) (bool, error)

// Reserver claims a candidate across processes before it is committed.
// The storage unique index remains the final arbiter.
type Reserver interface {
	Reserve(ctx context.Context, candidate string) (bool, error)
}

type Generator struct {
	MaxAttempts  int
	SuffixLength int

	// Rand defaults to crypto/rand.
	Rand io.Reader
}

func NewGenerator(maxAttempts, suffixLength int) *Generator {
	return &Generator{MaxAttempts: maxAttempts, SuffixLength: suffixLength}
}

// Result reports the accepted slug and the number of candidates tried.
type Result struct {
	Slug     string
	Attempts int
}

// Slugify normalizes a display name into the slug base: lower-cased and
// trimmed, each whitespace run replaced by "-", then anything outside
// [a-z0-9_-] dropped. Stripping happens after the whitespace pass, so
// "a & b" becomes "a--b".
func Slugify(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	b.Grow(len(name))
	inSpace := false
	for _, r := range name {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('-')
			}
			inSpace = true
			continue
		}
		inSpace = false
		if allowed(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allowed(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
}

// Candidate builds "<base>-<suffix>" for name with a fresh random suffix.
func (g *Generator) Candidate(name string) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = fallbackBase
	}
	suffix, err := g.suffix()
	if err != nil {
		return "", err
	}
	return base + "-" + suffix, nil
}

// Generate draws candidates for name until accept takes one or the attempt
// budget runs out.
func (g *Generator) Generate(ctx context.Context, name string, accept AcceptFunc) (Result, error) {
	if accept == nil {
		return Result{}, errors.New("slug: accept func is required")
	}
	max := g.maxAttempts()
	for attempt := 1; attempt <= max; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{Attempts: attempt - 1}, err
		}
		candidate, err := g.Candidate(name)
		if err != nil {
			return Result{Attempts: attempt}, err
		}
		ok, err := accept(ctx, candidate)
		if err != nil {
			return Result{Attempts: attempt}, err
		}
		if ok {
			return Result{Slug: candidate, Attempts: attempt}, nil
		}
	}
	return Result{Attempts: max}, fmt.Errorf("%w after %d attempts", ErrExhausted, max)
}

func (g *Generator) maxAttempts() int {
	if g == nil || g.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return g.MaxAttempts
}

func (g *Generator) suffix() (string, error) {
	n := DefaultSuffixLength
	var src io.Reader = rand.Reader
	if g != nil {
		if g.SuffixLength > 0 {
			n = g.SuffixLength
		}
		if g.Rand != nil {
			src = g.Rand
		}
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(src, buf); err != nil {
		return "", fmt.Errorf("slug: read random: %w", err)
	}
	// len(alphabet) is 64, so masking keeps the distribution uniform.
	for i := range buf {
		buf[i] = alphabet[buf[i]&63]
	}
	return string(buf), nil
}
