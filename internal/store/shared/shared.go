package shared

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/openshelf/library-api/internal/store/dbx"
)

var (
	uuidRe = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// Slugify builds a stable ASCII slug: [a-z0-9] with single '-' separators.
// Accented characters are folded instead of dropped, so "Émile Zola"
// becomes "emile-zola" rather than "mile-zola".
func Slugify(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "n-a"
	}

	// Normalize and strip combining marks (accent folding)
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	normed, _, _ := transform.String(t, s)

	var b strings.Builder
	b.Grow(len(normed))
	prevDash := false

	for _, r := range normed {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}

		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevDash = false
		case r == ' ' || r == '_' || r == '-' || unicode.IsSpace(r):
			if !prevDash && b.Len() > 0 {
				b.WriteByte('-')
				prevDash = true
			}
		case r == '\'' || r == '’':
			// drop apostrophes entirely (no hyphen)
		default:
			// drop other punctuation/symbols
		}
	}

	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "n-a"
	}
	for strings.Contains(out, "--") { // safety
		out = strings.ReplaceAll(out, "--", "-")
	}
	return out
}

// EnsureUniqueSlug ensures 'base' is unique in table.col by appending -1..-maxSuffix if needed.
func EnsureUniqueSlug(ctx context.Context, g dbx.Getter, table, col, base string, maxSuffix int) (string, error) {
	candidate := base
	for i := 0; i <= maxSuffix; i++ {
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		var exists bool
		q := `SELECT EXISTS (SELECT 1 FROM ` + table + ` WHERE ` + col + ` = $1)`
		if err := g.QueryRowContext(ctx, q, candidate).Scan(&exists); err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return candidate, nil
}

func IsUUID(s string) bool { return uuidRe.MatchString(s) }

// ResolveKeyCondArg returns a WHERE condition against the given alias and
// the argument. UUID -> <alias>.id=$1, otherwise slug -> <alias>.slug=$1.
func ResolveKeyCondArg(_ context.Context, alias, key string) (cond string, arg any) {
	if IsUUID(key) {
		return alias + ".id = $1", key
	}
	return alias + ".slug = $1", key
}

// ClampPage normalizes 1-based page/size pairs.
func ClampPage(page, size, defSize, maxSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defSize
	}
	if size > maxSize {
		size = maxSize
	}
	return page, size
}

// Itoa is a tiny helper for building $n placeholders.
func Itoa(i int) string { return strconv.Itoa(i) }
