package auth

// Actor is the capability carried into every protected operation. Staff
// actors come from the JWT middleware; ticket-holder actors are built from
// possession of a registration token on self-service paths.
type Actor struct {
	// Subject is the staff username, or the registration token for
	// ticket-holder actors. Recorded as scanned_by on staff check-ins.
	Subject string
	Staff   bool
}

// StaffActor is the actor the JWT middleware builds for a verified
// staff token.
func StaffActor(subject string) Actor {
	return Actor{Subject: subject, Staff: true}
}

// TicketActor grants scan capability over exactly one registration token.
func TicketActor(token string) Actor {
	return Actor{Subject: token}
}

// CanScan reports whether the actor may check in the given token. Staff can
// scan any ticket; a ticket holder can only scan their own.
func (a Actor) CanScan(token string) bool {
	return a.Staff || (a.Subject != "" && a.Subject == token)
}
