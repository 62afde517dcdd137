package checkin

import "errors"

// Each rejection carries a distinct kind so the presenting client can say why
// a scan failed. None of these is ever collapsed into a generic failure here.
var (
	// ErrInvalidToken covers tokens that cannot be decoded: wrong structure,
	// wrong signature, wrong issuer.
	ErrInvalidToken = errors.New("check-in token invalid")
	// ErrExpiredToken marks a well-formed token past its validity window.
	ErrExpiredToken = errors.New("check-in token expired")
	// ErrInvalidSession marks a token whose session/course pair does not match
	// a live session. May indicate tampering.
	ErrInvalidSession = errors.New("session invalid for token")
	// ErrNotEnrolled is the authorization boundary: a valid token is still
	// refused for an identity without an active enrollment.
	ErrNotEnrolled = errors.New("student not enrolled in course")
	// ErrSessionNotOpen refuses token issuance for completed or cancelled sessions.
	ErrSessionNotOpen = errors.New("session not open for check-in")
	// ErrNotSessionOwner refuses token issuance by an instructor who does not
	// teach the session.
	ErrNotSessionOwner = errors.New("session belongs to another instructor")
)
