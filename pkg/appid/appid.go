package appid

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	base36Chars  = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffixLength = 5
)

// Generator produces short, human-shareable application identifiers.
// An identifier is the prefix followed by the base-36 encoded millisecond
// timestamp and a random base-36 suffix, all upper-cased. Suffixes issued
// within the same millisecond are tracked so a single process never hands
// out the same identifier twice; callers still check the store and
// regenerate when another writer got there first.
type Generator struct {
	prefix string
	now    func() time.Time

	mu        sync.Mutex
	lastStamp string
	issued    map[string]struct{}
}

// New constructs a Generator with the given identifier prefix.
func New(prefix string) *Generator {
	if prefix == "" {
		prefix = "APP"
	}
	return &Generator{prefix: prefix, now: time.Now}
}

// Generate returns a fresh identifier.
func (g *Generator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := strconv.FormatInt(g.now().UnixMilli(), 36)
	if ts != g.lastStamp {
		g.lastStamp = ts
		g.issued = make(map[string]struct{})
	}
	for {
		suffix, err := randomBase36(suffixLength)
		if err != nil {
			return "", fmt.Errorf("generate id suffix: %w", err)
		}
		if _, dup := g.issued[suffix]; dup {
			continue
		}
		g.issued[suffix] = struct{}{}
		return strings.ToUpper(g.prefix + ts + suffix), nil
	}
}

func randomBase36(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = base36Chars[int(b)%len(base36Chars)]
	}
	return string(out), nil
}
