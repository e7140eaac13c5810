package config

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter is wrapped by every KeyError.
var ErrInvalidParameter = errors.New("config: invalid parameter")

// KeyError reports a missing or malformed parameter together with its key.
type KeyError struct {
	Key    string
	Reason string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

func (e *KeyError) Unwrap() error { return ErrInvalidParameter }

func invalid(key, reason string) error {
	return &KeyError{Key: key, Reason: reason}
}

// Invalid returns a KeyError for key. Components that validate their own
// slice of the configuration use it so errors stay uniform.
func Invalid(key, reason string) error {
	return invalid(key, reason)
}

// SpeciesKey returns the dotted key of a per-species parameter,
// e.g. SpeciesKey(2, "mortality.natural") = "species[2].mortality.natural".
func SpeciesKey(index int, key string) string {
	return fmt.Sprintf("species[%d].%s", index, key)
}
