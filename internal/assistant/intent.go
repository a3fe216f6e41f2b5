package assistant

import (
	"regexp"
	"strings"

	"github.com/aura-workshops/backend/internal/models"
)

var (
	registrationPhrases   = []string{"register", "sign up", "join", "enroll"}
	deregistrationPhrases = []string{"deregister", "unregister", "cancel", "remove me from"}

	registrationTitleMarkers   = []string{" for ", " to the "}
	deregistrationTitleMarkers = []string{" from ", " cancel "}

	nameIsPattern  = regexp.MustCompile(`(?i)name is\s+([\p{L}'-]+)(?:\s+([\p{L}'-]+))?`)
	emailIsPattern = regexp.MustCompile(`(?i)(?:email is|email:)\s*(\S+@\S+\.\S+)`)
	phoneIsPattern = regexp.MustCompile(`(?i)(?:phone is|phone:|phone number is)\s*(\+?[\d][\d\s().-]{5,}\d)`)
)

// titleTerminators end a workshop title inside a sentence.
const titleTerminators = ".,!?"

// UserInfo holds the contact fields collected for a registration.
type UserInfo struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// IsZero reports whether no field is set.
func (u UserInfo) IsZero() bool {
	return u == UserInfo{}
}

// Intent is the registration classification of a transcript.
type Intent struct {
	Detected      bool
	Deregister    bool
	WorkshopTitle string    // lowercased; empty when no marker matched
	UserInfo      *UserInfo // registration path only; nil when nothing was found
}

// Extract classifies the user turns of a transcript. It is pure: the same transcript always
// yields the same Intent.
//
// Any user turn containing a deregistration phrase makes the intent a deregistration, even
// when another turn asked to register. The title is taken from the first turn containing a
// marker for that path, up to the first sentence terminator.
func Extract(messages []models.ChatMessage) Intent {
	var turns []string
	for _, m := range messages {
		if m.Role == models.ChatRoleUser {
			turns = append(turns, m.Content)
		}
	}

	var hasRegistration, hasDeregistration bool
	for _, t := range turns {
		lower := strings.ToLower(t)
		if containsAny(lower, registrationPhrases) {
			hasRegistration = true
		}
		if containsAny(lower, deregistrationPhrases) {
			hasDeregistration = true
		}
	}

	intent := Intent{
		Detected:   hasRegistration || hasDeregistration,
		Deregister: hasDeregistration,
	}
	if !intent.Detected {
		return intent
	}

	markers := registrationTitleMarkers
	if intent.Deregister {
		markers = deregistrationTitleMarkers
	}
	intent.WorkshopTitle = titleAfterMarkers(turns, markers)

	if !intent.Deregister {
		info := extractUserInfo(turns)
		if !info.IsZero() {
			intent.UserInfo = &info
		}
	}
	return intent
}

func titleAfterMarkers(turns, markers []string) string {
	for _, t := range turns {
		lower := strings.ToLower(t)
		for _, marker := range markers {
			idx := strings.Index(lower, marker)
			if idx < 0 {
				continue
			}
			if title := cutTitle(lower[idx+len(marker):]); title != "" {
				return title
			}
		}
	}
	return ""
}

// cutTitle returns s up to the first sentence terminator, trimmed.
func cutTitle(s string) string {
	if end := strings.IndexAny(s, titleTerminators); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

func extractUserInfo(turns []string) UserInfo {
	var info UserInfo
	for _, t := range turns {
		if info.FirstName == "" {
			if m := nameIsPattern.FindStringSubmatch(t); m != nil {
				info.FirstName, info.LastName, _ = personName(m[1], m[2])
			}
		}
		if info.Email == "" {
			if m := emailIsPattern.FindStringSubmatch(t); m != nil {
				info.Email = trimTrailingPunct(m[1])
			}
		}
		if info.Phone == "" {
			if m := phoneIsPattern.FindStringSubmatch(t); m != nil {
				info.Phone = strings.TrimSpace(m[1])
			}
		}
	}
	return info
}

// nonNameWords are words that follow "name is" or "i am" without being a name.
var nonNameWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true, "so": true,
	"my": true, "with": true, "from": true, "for": true, "to": true, "in": true, "at": true,
	"on": true, "of": true, "is": true, "just": true, "still": true, "now": true, "very": true,
	"really": true, "also": true, "not": true, "here": true, "new": true, "already": true,
	"interested": true, "looking": true, "trying": true, "going": true, "ready": true,
	"available": true, "keen": true, "excited": true, "happy": true, "glad": true, "sure": true,
	"registered": true, "registering": true, "signing": true, "signed": true, "joining": true,
	"enrolling": true, "enrolled": true, "attending": true, "cancelling": true, "canceling": true,
	"wondering": true, "planning": true, "hoping": true, "wanting": true, "asking": true,
	"writing": true, "calling": true, "currently": true, "email": true, "phone": true,
}

// personName filters the two words captured after "name is" / "i am". ok is false when the
// first word is not a name; a non-name second word is dropped.
func personName(first, second string) (string, string, bool) {
	if first == "" || nonNameWords[strings.ToLower(first)] {
		return "", "", false
	}
	if nonNameWords[strings.ToLower(second)] {
		second = ""
	}
	return first, second, true
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func trimTrailingPunct(s string) string {
	return strings.TrimRight(s, ".,;:!?)")
}
