package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid user id or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrAccountInactive    = errors.New("account is not active")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")

	ErrInvalidFormURL = errors.New("invalid form URL, use the viewform link")
	ErrEmptyForm      = errors.New("retrieved empty content from form URL")
	ErrNoSelection    = errors.New("no form selected, analyze a form first")
	ErrUnknownField   = errors.New("question not found in selected form")
	ErrTransport      = errors.New("form endpoint request failed")

	ErrPoolExhausted      = errors.New("name pool exhausted")
	ErrPoolNotInitialized = errors.New("name pool not initialized")

	ErrInvalidCount        = errors.New("submission count must be positive")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrCreditExceeded      = errors.New("requested submissions exceed remaining credits")
	ErrRunNotFound         = errors.New("run not found")
	ErrRunInProgress       = errors.New("a run is already in progress")
)
