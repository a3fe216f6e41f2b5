package assistant

import (
	"fmt"
	"strings"

	"github.com/aura-workshops/backend/internal/models"
)

const basePrompt = `You are the registration assistant for a workshop catalog.
Help visitors discover workshops, answer questions about them, and guide them through registering.
Keep answers short and friendly. Never tell the user a registration or cancellation is complete:
the booking system confirms those itself once it has the workshop and the user's details.
To register someone the system needs the workshop title, first name, last name and email address.`

// buildSystemPrompt renders the instruction preamble sent ahead of the transcript.
func buildSystemPrompt(catalog []models.Workshop, draft *Draft, authenticated bool) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	if len(catalog) > 0 {
		b.WriteString("\n\nUpcoming workshops:\n")
		for i := range catalog {
			w := &catalog[i]
			fmt.Fprintf(&b, "- %s (starts %s; ", w.Title, w.StartDate.Format("Mon Jan 2, 2006"))
			if w.IsFull() {
				b.WriteString("fully booked)\n")
			} else {
				fmt.Fprintf(&b, "%d seats left)\n", w.SeatsLeft())
			}
		}
	}

	if draft != nil {
		b.WriteString("\n")
		b.WriteString(draftInstruction(draft, authenticated))
	}
	return b.String()
}

func draftInstruction(d *Draft, authenticated bool) string {
	action := "A registration"
	if d.Deregister {
		action = "A cancellation"
	}
	subject := "an unspecified workshop"
	if d.WorkshopTitle != "" {
		subject = fmt.Sprintf("%q", d.WorkshopTitle)
	}
	missing := d.missing(authenticated)
	if len(missing) == 0 {
		return fmt.Sprintf("%s for %s is in progress and all details are known. Ask the user to confirm by replying \"yes\".", action, subject)
	}
	return fmt.Sprintf("%s for %s is in progress. Still needed: %s. Ask the user for exactly these.", action, subject, joinFields(missing))
}
