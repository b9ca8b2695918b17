package models

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrQuotaExceeded         = errors.New("free event limit reached, upgrade to pro")
	ErrFeatureGated          = errors.New("custom theme colors require pro")
	ErrEventFull             = errors.New("event is full")
	ErrDuplicateRegistration = errors.New("already registered for this event")
	ErrDuplicateQRCode       = errors.New("qr code collision")
	ErrInvalidCode           = errors.New("invalid qr code")
	ErrSlugTaken             = errors.New("slug already taken")
	ErrValidation            = errors.New("validation failed")
)
