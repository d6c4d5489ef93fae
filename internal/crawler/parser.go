package crawler

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/usercrawl/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// CSS selectors for the listing page layout.
const (
	// selectorListingContainer scopes listings to the main table so sidebar
	// widgets that reuse the "thing" class are ignored.
	selectorListingContainer = "#siteTable"

	// selectorListing matches one listing element (a post or a comment).
	selectorListing = "div.thing"

	// selectorTitle matches the entry title anchor inside a listing.
	selectorTitle = "a.title"

	// selectorTitleBlock matches the title paragraph for entries without an anchor.
	selectorTitleBlock = "p.title"

	// selectorCommunity matches the community link inside a listing.
	selectorCommunity = "a.subreddit"

	// selectorNextButton matches the pagination "next" anchor.
	selectorNextButton = "span.next-button a[href]"

	// selectorRelNext matches any anchor marked as the next page.
	selectorRelNext = `a[rel~="next"][href]`

	// classPromoted marks sponsored listings, which are not user content.
	classPromoted = "promoted"
)

// DefaultBaseURL is used to resolve relative permalinks and pagination links
// when a Parser is created without an explicit base.
const DefaultBaseURL = "https://old.reddit.com/"

// Parser turns listing page markup into result triplets and a next page link.
// A Parser holds no state between calls; ParseText is a pure function of its
// input and the base URL.
type Parser struct {
	// baseURL resolves relative links found on the page.
	baseURL *url.URL
}

// NewParser creates a Parser that resolves relative links against baseURL.
// An empty baseURL means DefaultBaseURL.
func NewParser(baseURL string) (*Parser, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	return &Parser{baseURL: u}, nil
}

// BaseURL returns the URL relative links are resolved against.
func (p *Parser) BaseURL() string {
	return p.baseURL.String()
}

// ParseText extracts one triplet per listing element and the next page URL.
// Promoted entries are not listing elements.
//
// The text must already be decoded to UTF-8 with platform line terminators
// removed. A page without listings yields an empty, non-nil slice. The next
// page URL is "" when the page has no pagination link.
//
// ParseText fails with ErrMalformedMarkup only when no document tree can be
// built from text.
func (p *Parser) ParseText(text string) ([]model.Triplet, string, error) {
	if !utf8.ValidString(text) {
		return nil, "", fmt.Errorf("%w: input is not valid UTF-8", ErrMalformedMarkup)
	}

	root, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrMalformedMarkup, err)
	}
	doc := goquery.NewDocumentFromNode(root)

	listings := doc.Find(selectorListingContainer + " " + selectorListing)
	if listings.Length() == 0 {
		listings = doc.Find(selectorListing)
	}

	results := make([]model.Triplet, 0, listings.Length())
	listings.Each(func(_ int, s *goquery.Selection) {
		if s.HasClass(classPromoted) {
			return
		}
		results = append(results, p.extractTriplet(s))
	})

	return results, p.nextPage(doc), nil
}

// extractTriplet reads the three fields of one listing element.
func (p *Parser) extractTriplet(s *goquery.Selection) model.Triplet {
	titleLink := s.Find(selectorTitle).First()

	label := cleanText(titleLink.Text())
	if label == "" {
		label = cleanText(s.AttrOr("data-title", ""))
	}
	if label == "" {
		label = cleanText(s.Find(selectorTitleBlock).First().Text())
	}

	value := p.resolveURL(s.AttrOr("data-permalink", ""))
	if value == "" {
		value = p.resolveURL(titleLink.AttrOr("href", ""))
	}

	metadata := cleanText(s.AttrOr("data-subreddit", ""))
	if metadata == "" {
		community := cleanText(s.Find(selectorCommunity).First().Text())
		metadata = strings.TrimPrefix(community, "r/")
	}

	return model.NewTriplet(label, value, metadata)
}

// nextPage finds the pagination link, or returns "" when there is none.
func (p *Parser) nextPage(doc *goquery.Document) string {
	for _, selector := range []string{selectorNextButton, selectorRelNext} {
		href, ok := doc.Find(selector).First().Attr("href")
		if !ok {
			continue
		}
		if next := p.resolveURL(href); next != "" {
			return next
		}
	}
	return ""
}

// resolveURL resolves href against the base URL.
// Non-navigational references (javascript:, mailto:, bare fragments) and
// unparsable values resolve to "".
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return p.baseURL.ResolveReference(u).String()
}

// cleanText collapses runs of whitespace and normalizes to NFC so equal
// titles compare equal regardless of how the page encoded them.
func cleanText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}
