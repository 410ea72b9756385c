package companion

import "errors"

// Error taxonomy shared by the engine, storage and transport layers.
// Storage wraps ErrNotFound with %w; the engine returns *RejectedError for the rest.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUnknownAction    = errors.New("unknown action")
)

// Rejection reasons reported verbatim to callers.
const (
	ReasonNotTired         = "not tired enough"
	ReasonNoWeapon         = "no weapon equipped"
	ReasonNotSick          = "not sick"
	ReasonUnknownAction    = "unknown action"
	ReasonWeaponNotAllowed = "weapon not allowed for species"
	ReasonEquipConsumable  = "cannot equip a consumable"
	ReasonGearInUse        = "item already equipped on another companion"
	ReasonNotConsumable    = "item is not a consumable"
	ReasonNotOwner         = "user is not the owner of this companion"
	ReasonItemNotOwned     = "user does not own this item"
	ReasonInvalidName      = "companion name must be 1-64 characters"
)

// RejectedError is a local, non-persisted refusal of an operation.
// errors.Is matches it against its Kind.
type RejectedError struct {
	Kind   error
	Reason string
}

func (e *RejectedError) Error() string { return e.Reason }

func (e *RejectedError) Unwrap() error { return e.Kind }

// Reject returns a *RejectedError of kind carrying reason.
func Reject(kind error, reason string) error {
	return &RejectedError{Kind: kind, Reason: reason}
}

// Unauthorized returns the rejection reported when a caller does not own a companion.
func Unauthorized() error {
	return Reject(ErrUnauthorized, ReasonNotOwner)
}
