package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/startup-roles/backend/internal/parse"
)

// CardSelectors describes a listing where each posting sits in its own container.
// Field selectors are evaluated inside the card.
type CardSelectors struct {
	Card         string
	Title        string
	Company      string
	Link         string
	Location     string
	Compensation string
	Description  string
	Posted       string
	// MinText skips cards whose text is shorter, which filters navigation chrome.
	MinText  int
	MaxCards int
}

// CardStrategy collects one candidate per card matched by sel.Card.
func CardStrategy(name string, sel CardSelectors) Strategy {
	return Strategy{
		Name: name,
		Collect: func(doc *goquery.Document) []Candidate {
			var out []Candidate
			doc.Find(sel.Card).EachWithBreak(func(_ int, card *goquery.Selection) bool {
				if sel.MaxCards > 0 && len(out) >= sel.MaxCards {
					return false
				}
				text := parse.Normalize(card.Text())
				if len(text) < sel.MinText {
					return true
				}
				out = append(out, cardCandidate(card, sel, text))
				return true
			})
			return out
		},
	}
}

func cardCandidate(card *goquery.Selection, sel CardSelectors, text string) Candidate {
	link := findLink(card, sel.Link)

	titleEl := firstMatch(card, sel.Title)
	if titleEl == nil {
		titleEl = link
	}

	c := Candidate{
		Title:        textOf(titleEl),
		Company:      parse.FirstLine(rawText(firstMatch(card, sel.Company))),
		Location:     textOf(firstMatch(card, sel.Location)),
		Compensation: textOf(firstMatch(card, sel.Compensation)),
		Description:  textOf(firstMatch(card, sel.Description)),
		PostedText:   textOf(firstMatch(card, sel.Posted)),
		Text:         text,
	}
	if link != nil {
		c.Link = link.AttrOr("href", "")
	}
	return c
}

// findLink prefers a matching anchor inside the card, then the card itself, then an enclosing anchor.
func findLink(card *goquery.Selection, selector string) *goquery.Selection {
	if selector != "" {
		if a := card.Find(selector).First(); a.Length() > 0 {
			return a
		}
	}
	if card.Is("a[href]") {
		return card
	}
	if a := card.Closest("a[href]"); a.Length() > 0 {
		return a
	}
	if selector == "" {
		if a := card.Find("a[href]").First(); a.Length() > 0 {
			return a
		}
	}
	return nil
}

// LinkStrategy treats every anchor matching selector as a posting titled by its text.
func LinkStrategy(name, selector string, minText int) Strategy {
	return Strategy{
		Name: name,
		Collect: func(doc *goquery.Document) []Candidate {
			var out []Candidate
			doc.Find(selector).Each(func(_ int, a *goquery.Selection) {
				title := textOf(firstMatch(a, "h1, h2, h3, h4"))
				if title == "" {
					title = parse.Normalize(a.Text())
				}
				if len(title) <= minText || strings.Contains(strings.ToLower(title), "login") {
					return
				}
				parent := a.Parent()
				out = append(out, Candidate{
					Title:    title,
					Link:     a.AttrOr("href", ""),
					Company:  parse.FirstLine(rawText(firstMatch(parent, `[class*="company"], [class*="Company"]`))),
					Location: textOf(firstMatch(parent, `[class*="location"], [class*="Location"]`)),
				})
			})
			return out
		},
	}
}

func firstMatch(s *goquery.Selection, selector string) *goquery.Selection {
	if s == nil || selector == "" {
		return nil
	}
	m := s.Find(selector).First()
	if m.Length() == 0 {
		return nil
	}
	return m
}

func textOf(s *goquery.Selection) string {
	if s == nil {
		return ""
	}
	return parse.Normalize(s.Text())
}

func rawText(s *goquery.Selection) string {
	if s == nil {
		return ""
	}
	return s.Text()
}
