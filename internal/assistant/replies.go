package assistant

import "fmt"

const (
	replyError   = "I encountered an error while processing your request. Please try again."
	replyApology = "I'm sorry, I'm having trouble responding right now. Please try again in a moment."
)

func replyRegistered(title string) string {
	return fmt.Sprintf("Great news! You're now registered for %s. We look forward to seeing you there!", title)
}

func replyAlreadyRegistered(title string) string {
	return fmt.Sprintf("You're already registered for %s, so there's nothing more to do.", title)
}

func replyFull(title string) string {
	return fmt.Sprintf("Sorry, %s is fully booked, so I couldn't register you. Feel free to ask me about other workshops.", title)
}

func replyMissing(fields []string) string {
	return fmt.Sprintf("To complete your registration, could you please provide your %s?", joinFields(fields))
}

func replyNotFound(title string) string {
	return fmt.Sprintf("I couldn't find a workshop matching %q. Could you check the title and try again?", title)
}

func replyCancelled(title string) string {
	return fmt.Sprintf("Done. Your registration for %s has been cancelled.", title)
}

func replyNotRegistered(title string) string {
	return fmt.Sprintf("I couldn't find an active registration for %s, so there was nothing to cancel.", title)
}

// replyDraftPrompt is the deterministic re-prompt used when the completion service is
// unavailable while a draft is open.
func replyDraftPrompt(d *Draft, authenticated bool) string {
	missing := d.missing(authenticated)
	switch {
	case d.WorkshopTitle == "" && d.Deregister:
		return "Which workshop would you like to cancel your registration for?"
	case d.WorkshopTitle == "":
		return "Which workshop would you like to register for?"
	case len(missing) == 0 && d.Deregister:
		return fmt.Sprintf("Shall I cancel your registration for %s? Reply yes to confirm.", d.WorkshopTitle)
	case len(missing) == 0:
		return fmt.Sprintf("Shall I register you for %s? Reply yes to confirm.", d.WorkshopTitle)
	case d.Deregister:
		return fmt.Sprintf("To cancel your registration for %s, could you please provide the email you registered with?", d.WorkshopTitle)
	default:
		return replyMissing(missing)
	}
}
