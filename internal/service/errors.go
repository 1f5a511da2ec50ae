package service

import (
	"errors"
	"fmt"
)

// Классы ошибок. Конкретные ошибки оборачивают класс, проверка - errors.Is
var (
	ErrValidation    = errors.New("validation error")
	ErrStateConflict = errors.New("state conflict")
	ErrIntegrity     = errors.New("integrity error")
	ErrTransient     = errors.New("transient error")
)

var (
	ErrInvalidStake       = fmt.Errorf("%w: invalid stake", ErrValidation)
	ErrNoActiveConfig     = fmt.Errorf("%w: no active config for currency", ErrValidation)
	ErrPauseNotConfirmed  = fmt.Errorf("%w: pause must be confirmed", ErrValidation)
	ErrInvalidOverride    = fmt.Errorf("%w: invalid simulation override", ErrValidation)
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrPlayerNotInContext = errors.New("player id not found in context")
	ErrSessionNotFound    = errors.New("session not found")

	ErrNoActiveSession         = fmt.Errorf("%w: no active session", ErrStateConflict)
	ErrAlreadyActive           = fmt.Errorf("%w: player already has an active session", ErrStateConflict)
	ErrMaxFlipsReached         = fmt.Errorf("%w: max flips reached", ErrStateConflict)
	ErrNothingToCashOut        = fmt.Errorf("%w: nothing to cash out", ErrStateConflict)
	ErrSessionStillActive      = fmt.Errorf("%w: session still active", ErrStateConflict)
	ErrSessionNotPaused        = fmt.Errorf("%w: session is not paused", ErrStateConflict)
	ErrOverrideVersionConflict = fmt.Errorf("%w: simulation override was changed concurrently", ErrStateConflict)

	ErrFairnessMismatch        = fmt.Errorf("%w: fairness hash mismatch", ErrIntegrity)
	ErrDenominationMismatch    = fmt.Errorf("%w: awarded value does not match denomination", ErrIntegrity)
	ErrMissingZeroDenomination = fmt.Errorf("%w: catalog has no zero denomination", ErrIntegrity)
	ErrInvalidConfig           = fmt.Errorf("%w: invalid currency config", ErrIntegrity)

	ErrSessionBusy = fmt.Errorf("%w: session is locked by another request", ErrTransient)
	ErrLockTimeout = fmt.Errorf("%w: lock acquisition timed out", ErrTransient)
)
