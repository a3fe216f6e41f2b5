package assistant

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	namePattern  = regexp.MustCompile(`(?i)\b(?:name is|i am)\s+([\p{L}'-]+)(?:\s+([\p{L}'-]+))?`)

	scrapeTitleMarkers = []*regexp.Regexp{
		regexp.MustCompile(`(?i)interested in\s+([^.,!?]+)`),
		regexp.MustCompile(`(?i)sign up for\s+([^.,!?]+)`),
		regexp.MustCompile(`(?i)register for\s+([^.,!?]+)`),
	}
	affirmations = map[string]bool{"yes": true, "yes please": true, "sure": true}
)

// Scraped holds the fields found in a single user message while a draft is open.
type Scraped struct {
	UserInfo
	WorkshopTitle string
	Affirmed      bool // bare "yes" / "yes please" / "sure": keep the current title
}

// Scrape runs the lightweight per-turn field scan used while a draft is open. Unlike Extract
// it only looks at the latest message.
func Scrape(text string) Scraped {
	var s Scraped

	if m := emailPattern.FindString(text); m != "" {
		s.Email = m
	}
	for _, m := range namePattern.FindAllStringSubmatch(text, -1) {
		if first, last, ok := personName(m[1], m[2]); ok {
			s.FirstName = capitalize(first)
			s.LastName = capitalize(last)
			break
		}
	}
	if m := phoneIsPattern.FindStringSubmatch(text); m != nil {
		s.Phone = strings.TrimSpace(m[1])
	}

	normalized := strings.ToLower(strings.TrimSpace(text))
	if affirmations[strings.TrimRight(normalized, ".!")] {
		s.Affirmed = true
		return s
	}
	for _, marker := range scrapeTitleMarkers {
		if m := marker.FindStringSubmatch(text); m != nil {
			if title := strings.TrimSpace(m[1]); title != "" {
				s.WorkshopTitle = title
				break
			}
		}
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
