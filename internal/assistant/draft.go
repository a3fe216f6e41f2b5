package assistant

import (
	"strings"

	"github.com/aura-workshops/backend/internal/registrations"
)

// Draft is an in-progress registration (or cancellation) being filled turn by turn.
type Draft struct {
	WorkshopTitle string   `json:"workshop_title,omitempty"`
	Deregister    bool     `json:"deregister,omitempty"`
	UserInfo      UserInfo `json:"user_info"`
}

func newDraft(intent Intent) *Draft {
	d := &Draft{WorkshopTitle: intent.WorkshopTitle, Deregister: intent.Deregister}
	if intent.UserInfo != nil {
		d.fill(*intent.UserInfo)
	}
	return d
}

// merge applies fields scraped from the latest turn. A new title replaces the old one unless
// the turn was a bare affirmation; contact fields only fill gaps.
func (d *Draft) merge(s Scraped) {
	if s.WorkshopTitle != "" && !s.Affirmed {
		d.WorkshopTitle = s.WorkshopTitle
	}
	d.fill(s.UserInfo)
}

// fill copies non-empty fields of info into empty fields of the draft.
func (d *Draft) fill(info UserInfo) {
	setIfEmpty(&d.UserInfo.FirstName, info.FirstName)
	setIfEmpty(&d.UserInfo.LastName, info.LastName)
	setIfEmpty(&d.UserInfo.Email, info.Email)
	setIfEmpty(&d.UserInfo.Phone, info.Phone)
}

func (d *Draft) hasName() bool {
	return d.UserInfo.FirstName != "" || d.UserInfo.LastName != ""
}

func (d *Draft) contactComplete() bool {
	return len(d.missingContact()) == 0
}

func (d *Draft) missingContact() []string {
	return d.registrationRequest(nil).MissingContact()
}

// ready reports whether enough is known to attempt the workflow.
func (d *Draft) ready(authenticated bool) bool {
	if d.WorkshopTitle == "" {
		return false
	}
	if d.Deregister {
		return authenticated || d.UserInfo.Email != ""
	}
	return d.contactComplete() || (authenticated && d.UserInfo.Email != "")
}

// missing lists what the draft still needs, for prompting.
func (d *Draft) missing(authenticated bool) []string {
	var out []string
	if d.WorkshopTitle == "" {
		out = append(out, "workshop")
	}
	if d.Deregister {
		if !authenticated && d.UserInfo.Email == "" {
			out = append(out, registrations.FieldEmail)
		}
		return out
	}
	return append(out, d.missingContact()...)
}

func (d *Draft) registrationRequest(acct *Account) registrations.Request {
	req := registrations.Request{
		WorkshopTitle: d.WorkshopTitle,
		FirstName:     d.UserInfo.FirstName,
		LastName:      d.UserInfo.LastName,
		Email:         d.UserInfo.Email,
		Phone:         d.UserInfo.Phone,
	}
	if acct != nil {
		id := acct.ID
		req.UserID = &id
	}
	return req
}

func (d *Draft) cancelRequest(acct *Account) registrations.CancelRequest {
	req := registrations.CancelRequest{WorkshopTitle: d.WorkshopTitle, Email: d.UserInfo.Email}
	if acct != nil {
		id := acct.ID
		req.UserID = &id
	}
	return req
}

// nameFromEmail guesses first and last name from an email local part split on ".".
func nameFromEmail(email string) (first, last string) {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "", ""
	}
	parts := strings.Split(email[:at], ".")
	first = capitalize(parts[0])
	if len(parts) > 1 {
		last = capitalize(parts[1])
	}
	return first, last
}

// joinFields renders ["first name" "last name" "email"] as "first name, last name and email".
func joinFields(fields []string) string {
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return fields[0]
	default:
		return strings.Join(fields[:len(fields)-1], ", ") + " and " + fields[len(fields)-1]
	}
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}
