package app

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrDocumentNotFound = errors.New("document not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrMessageEmpty     = errors.New("message content is empty")
	ErrFileTooLarge     = errors.New("file exceeds the upload size limit")
	ErrUsernameExists   = errors.New("username already exists")
)
