package source

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	ErrMissingTitle = errors.New("missing title")
	ErrMissingLink  = errors.New("missing link")
)

// Candidate is one well-formed listing found on the page
type Candidate struct {
	Title string
	// Link is the href as it appeared on the page
	Link string
	// OriginalURL is the resolved identity key
	OriginalURL string
	// Datetime is set when the listing carries a machine-readable time
	Datetime *time.Time
}

// SkipError describes a listing entry that was dropped. It is expected noise,
// not a failure.
type SkipError struct {
	Index  int
	Reason error
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("listing %d skipped: %v", e.Index, e.Reason)
}

func (e *SkipError) Unwrap() error {
	return e.Reason
}

// Extractor pulls candidates out of a parsed listing page. It performs no I/O.
type Extractor struct {
	selectors Selectors
	resolver  *Resolver
}

// NewExtractor creates an extractor for the given source
func NewExtractor(d *Descriptor) (*Extractor, error) {
	resolver, err := NewResolver(d.BaseURL)
	if err != nil {
		return nil, err
	}
	return &Extractor{selectors: d.Selectors, resolver: resolver}, nil
}

// ParseDocument parses raw HTML
func ParseDocument(r io.Reader) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(r)
}

// Extract lazily yields one (candidate, nil) per well-formed listing and
// (zero, *SkipError) per dropped entry, in document order.
func (x *Extractor) Extract(doc *goquery.Document) iter.Seq2[Candidate, error] {
	return func(yield func(Candidate, error) bool) {
		doc.Find(x.selectors.Container).EachWithBreak(func(i int, s *goquery.Selection) bool {
			c, err := x.candidate(s)
			if err != nil {
				return yield(Candidate{}, &SkipError{Index: i, Reason: err})
			}
			return yield(c, nil)
		})
	}
}

func (x *Extractor) candidate(s *goquery.Selection) (Candidate, error) {
	title := strings.Join(strings.Fields(s.Find(x.selectors.Title).First().Text()), " ")
	if title == "" {
		return Candidate{}, ErrMissingTitle
	}

	link, ok := s.Find(x.selectors.Link).First().Attr("href")
	if !ok || strings.TrimSpace(link) == "" {
		return Candidate{}, ErrMissingLink
	}

	key, err := x.resolver.Resolve(link)
	if err != nil {
		return Candidate{}, err
	}

	c := Candidate{
		Title:       title,
		Link:        link,
		OriginalURL: key,
	}
	if x.selectors.Time != "" {
		if raw, ok := s.Find(x.selectors.Time).First().Attr("datetime"); ok {
			c.Datetime = parseListingTime(raw)
		}
	}
	return c, nil
}

var listingTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseListingTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range listingTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
