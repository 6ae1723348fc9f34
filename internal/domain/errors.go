// Package domain defines the portal's error taxonomy. Handlers map kinds to
// HTTP statuses; services and tests match sentinels with errors.Is.
package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error for transport mapping.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindExpired
	KindPermission
)

// Error is a domain failure with a kind and a user-presentable message.
// Messages name the violated invariant because several call sites thread
// them directly to the end user.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Invite errors
var (
	ErrInviteNotFound  = newError(KindNotFound, "invite code not found")
	ErrInviteExhausted = newError(KindExpired, "this invite has expired or reached its usage limit")
)

// Membership errors
var (
	ErrAlreadyMember       = newError(KindConflict, "user already belongs to an agency")
	ErrAgencyNotFound      = newError(KindNotFound, "agency not found")
	ErrAgencyFull          = newError(KindConflict, "agency has reached its creator limit")
	ErrPublicJoinDisabled  = newError(KindPermission, "agency does not allow public joining")
	ErrMembershipNotFound  = newError(KindNotFound, "membership not found")
	ErrMembershipNotPending = newError(KindConflict, "membership is not pending approval")
	ErrNotAgencyAdmin      = newError(KindPermission, "caller is not an owner or admin of this agency")
	ErrSlugTaken           = newError(KindConflict, "an agency with this name already exists")
)

// Submission errors
var (
	ErrNoVideoURL         = newError(KindValidation, "at least one video URL is required")
	ErrDuplicateURL       = newError(KindConflict, "this URL has already been submitted")
	ErrSubmissionNotFound = newError(KindNotFound, "submission not found")
	ErrAlreadyReviewed    = newError(KindConflict, "submission has already been reviewed")
	ErrInvalidAction      = newError(KindValidation, "review action must be approve or reject")
	ErrInvalidRole        = newError(KindValidation, "invite role must be creator or admin")
)

// DuplicateURL wraps ErrDuplicateURL with the offending URL so the caller
// sees which link was rejected.
func DuplicateURL(url string) error {
	return fmt.Errorf("%w: %s", ErrDuplicateURL, url)
}

// KindOf extracts the Kind from an error chain, or 0 for non-domain errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
