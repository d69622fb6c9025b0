package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/agenthub-dev/agenthub/internal/marketplace/database"
)

// maxSlugProbes bounds the sequential suffix search. The store's unique
// constraint remains the authoritative backstop; hitting this bound means
// something pathological is going on rather than a normal collision.
const maxSlugProbes = 500

var slugFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a URL-safe identifier from a display name: diacritics
// folded, lowercased, non-alphanumeric runs collapsed to single hyphens,
// leading and trailing hyphens trimmed.
func Slugify(name string) string {
	folded, _, err := transform.String(slugFolder, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(folded) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// uniqueSlug derives a slug from name that no existing listing uses,
// probing strictly increasing integer suffixes on collision. An empty
// slugification result falls back to a time-based seed.
func (s *marketplaceServiceImpl) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = fmt.Sprintf("agent-%d", time.Now().UnixMilli())
	}

	if _, err := s.db.GetAgentBySlug(ctx, base); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return base, nil
		}
		return "", err
	}

	for attempt := 1; attempt <= maxSlugProbes; attempt++ {
		candidate := fmt.Sprintf("%s-%d", base, attempt)
		if _, err := s.db.GetAgentBySlug(ctx, candidate); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return candidate, nil
			}
			return "", err
		}
	}
	return "", fmt.Errorf("exhausted %d slug candidates for %q", maxSlugProbes, base)
}
