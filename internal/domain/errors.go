package domain

import "errors"

var (
	ErrBillNotFound        = errors.New("bill not found")
	ErrSectionNotFound     = errors.New("section not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrSummaryNotFound     = errors.New("summary not found")
	ErrSectionBillMismatch = errors.New("section does not belong to bill")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrNotRegistered       = errors.New("account registration required")
	ErrVoteConflict        = errors.New("vote storage conflict")
)
