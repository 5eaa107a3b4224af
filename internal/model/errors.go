package model

import "errors"

// Common errors used across the application
var (
	// Character errors
	ErrCharacterNotFound = errors.New("character not found")
	ErrInvalidCharacter  = errors.New("character record is inconsistent")

	// Edit validation errors
	ErrEmptyText        = errors.New("text must not be empty")
	ErrNegativeValue    = errors.New("value must not be negative")
	ErrIndexOutOfRange  = errors.New("track index out of range")
	ErrDuplicateWeapon  = errors.New("weapon is already held")
	ErrWeaponGear       = errors.New("gear entry belongs to a held weapon")
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrUnknownEdit      = errors.New("unknown edit kind")
	ErrAndroidStress    = errors.New("androids do not track stress")

	// Assignment errors
	ErrCharacterTaken    = errors.New("character is already claimed")
	ErrCharacterDisabled = errors.New("character is disabled")
	ErrAlreadyClaimed    = errors.New("user already holds a character")
	ErrPartialAssignment = errors.New("reassignment only partially applied")

	// Administration errors
	ErrRosterPopulated  = errors.New("roster already populated")
	ErrNotGM            = errors.New("user is not the GM")
	ErrForbidden        = errors.New("user may not access this character")
	ErrInvalidPIN       = errors.New("invalid GM PIN")
	ErrGMAccessDisabled = errors.New("GM PIN login is not configured")

	// User errors
	ErrUserNotFound      = errors.New("user not found")
	ErrAppConfigNotFound = errors.New("app config not found")
)
