package ordering

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/sadopc/nexus/internal/store"
)

var (
	ErrUnknownID  = errors.New("unknown id")
	ErrOutOfRange = errors.New("index out of range")
	ErrEmptyField = errors.New("title and url are required")
	ErrInvalidURL = errors.New("invalid url")
)

const faviconEndpoint = "https://www.google.com/s2/favicons"

// NormalizeURL trims raw and prefixes https:// unless it already carries an
// http or https scheme.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

// FaviconURL returns the favicon service URL for link's host, or "" when the
// link does not parse.
func FaviconURL(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	q := url.Values{}
	q.Set("domain", u.Hostname())
	q.Set("sz", "64")
	return faviconEndpoint + "?" + q.Encode()
}

// Renumber assigns order 0..n-1 following the slice's positions.
func Renumber(links []store.QuickLink) []store.QuickLink {
	out := slices.Clone(links)
	for i := range out {
		out[i].Order = i
	}
	return out
}

// Sorted returns links by ascending order, ties broken by id.
func Sorted(links []store.QuickLink) []store.QuickLink {
	out := slices.Clone(links)
	slices.SortStableFunc(out, func(a, b store.QuickLink) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Normalize sorts links and renumbers them densely.
func Normalize(links []store.QuickLink) []store.QuickLink {
	return Renumber(Sorted(links))
}

// NewLink validates title and rawURL and builds a link with a fresh id.
func NewLink(title, rawURL string) (store.QuickLink, error) {
	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(rawURL) == "" {
		return store.QuickLink{}, ErrEmptyField
	}
	u := NormalizeURL(rawURL)
	if parsed, err := url.Parse(u); err != nil || parsed.Hostname() == "" {
		return store.QuickLink{}, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return store.QuickLink{
		ID:      uuid.NewString(),
		Title:   title,
		URL:     u,
		Favicon: FaviconURL(u),
	}, nil
}

// Insert places link at index at (clamped to the ends) and renumbers.
func Insert(links []store.QuickLink, link store.QuickLink, at int) []store.QuickLink {
	seq := Sorted(links)
	at = max(0, min(at, len(seq)))
	seq = slices.Insert(seq, at, link)
	return Renumber(seq)
}

// Append adds link after every existing link.
func Append(links []store.QuickLink, link store.QuickLink) []store.QuickLink {
	return Insert(links, link, len(links))
}

func Remove(links []store.QuickLink, id string) ([]store.QuickLink, error) {
	seq := Sorted(links)
	i := indexOf(seq, id)
	if i < 0 {
		return links, fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	return Renumber(slices.Delete(seq, i, i+1)), nil
}

// Move takes the link at position from out of the sequence and reinserts it
// at position to, then renumbers.
func Move(links []store.QuickLink, from, to int) ([]store.QuickLink, error) {
	seq := Sorted(links)
	if from < 0 || from >= len(seq) || to < 0 || to >= len(seq) {
		return links, fmt.Errorf("%w: move %d to %d of %d", ErrOutOfRange, from, to, len(seq))
	}
	moved := seq[from]
	seq = slices.Delete(seq, from, from+1)
	seq = slices.Insert(seq, to, moved)
	return Renumber(seq), nil
}

// MoveOnto drops the link draggedID onto targetID's position.
func MoveOnto(links []store.QuickLink, draggedID, targetID string) ([]store.QuickLink, error) {
	seq := Sorted(links)
	from, to := indexOf(seq, draggedID), indexOf(seq, targetID)
	if from < 0 {
		return links, fmt.Errorf("%w: %s", ErrUnknownID, draggedID)
	}
	if to < 0 {
		return links, fmt.Errorf("%w: %s", ErrUnknownID, targetID)
	}
	return Move(seq, from, to)
}

// Update replaces a link's title and url, recomputing its favicon. Order is
// kept.
func Update(links []store.QuickLink, id, title, rawURL string) ([]store.QuickLink, error) {
	edited, err := NewLink(title, rawURL)
	if err != nil {
		return links, err
	}
	out := slices.Clone(links)
	for i := range out {
		if out[i].ID == id {
			out[i].Title = edited.Title
			out[i].URL = edited.URL
			out[i].Favicon = edited.Favicon
			return out, nil
		}
	}
	return links, fmt.Errorf("%w: %s", ErrUnknownID, id)
}

func indexOf(links []store.QuickLink, id string) int {
	return slices.IndexFunc(links, func(l store.QuickLink) bool { return l.ID == id })
}
