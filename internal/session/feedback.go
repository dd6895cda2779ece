package session

import "sync"

// Feedback notices shown without any network call.
const (
	noRatingNotice      = "Please select a rating before submitting."
	badRatingNotice     = "Rating must be between 1 and 5."
	lockedNotice        = "Feedback already submitted. Enable editing to update."
	editEnabledNotice   = "You can now edit your comment. Submit again to update."
	feedbackFailedLocal = "Feedback failed. Try again later."
)

// feedbackForm tracks one prompt cycle's feedback state: a single submission
// locks the form until edit mode is explicitly re-enabled.
type feedbackForm struct {
	mu        sync.Mutex
	submitted bool
	editable  bool
}

// validate returns a user-visible notice when the rating is unusable.
func validateRating(rating int) string {
	if rating == 0 {
		return noRatingNotice
	}
	if rating < 1 || rating > 5 {
		return badRatingNotice
	}
	return ""
}

// tryBegin reserves the submission slot; it returns a notice when the form
// is locked.
func (f *feedbackForm) tryBegin() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitted && !f.editable {
		return lockedNotice
	}
	return ""
}

// commit marks a successful submission and locks the form again.
func (f *feedbackForm) commit() {
	f.mu.Lock()
	f.submitted = true
	f.editable = false
	f.mu.Unlock()
}

// enableEdit re-opens the form for one more submission.
func (f *feedbackForm) enableEdit() {
	f.mu.Lock()
	f.editable = true
	f.mu.Unlock()
}
