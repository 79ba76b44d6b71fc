package service

import (
	"time"

	"venu/internal/model"
)

// ResourceUnlocked is the single unlock predicate for gated resources. The
// portal listing calls it for advisory lock hints; the download path calls
// it again as the authoritative enforcement point. Both call sites must stay
// on this one function.
//
// attended is whether the registration has any attendance record for its
// event, not only for the session a resource may be linked to.
func ResourceUnlocked(res *model.Resource, reg *model.Registration, attended bool, at time.Time) bool {
	if res.EventID != reg.EventID {
		return false
	}
	if reg.Status != model.StatusApproved {
		return false
	}
	if res.UnlockTime != nil && at.Before(*res.UnlockTime) {
		return false
	}
	if res.RequiresCheckIn && !attended {
		return false
	}
	return true
}
