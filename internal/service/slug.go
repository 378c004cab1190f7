package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// fallbackSlug is the base used when a title has no slug characters left.
const fallbackSlug = "note"

// slugSpace is every character treated as whitespace in titles: ASCII
// whitespace including \v, Unicode space separators (NBSP, ideographic
// space, ...), line and paragraph separators, and the BOM.
const slugSpace = `\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}`

var (
	slugStrip    = regexp.MustCompile(`[^\w` + slugSpace + `-]`)
	slugCollapse = regexp.MustCompile(`[-` + slugSpace + `]+`)
)

// Slugify derives the base slug of a title: lowercase, drop everything but
// word characters, whitespace and hyphens, then collapse runs of whitespace
// and hyphens into one hyphen.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = slugStrip.ReplaceAllString(slug, "")
	slug = slugCollapse.ReplaceAllString(slug, "-")
	if slug == "" || slug == "-" {
		return fallbackSlug
	}
	return slug
}

// slugExister reports whether a slug is taken.
type slugExister interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// uniqueSlug probes base, base-1, base-2, ... and returns the first free
// candidate. The probe is not atomic with the insert that follows.
func uniqueSlug(ctx context.Context, store slugExister, base string) (string, error) {
	candidate := base
	for n := 1; ; n++ {
		exists, err := store.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
}
