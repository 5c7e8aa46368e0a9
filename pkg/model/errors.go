package model

import "fmt"

// NotFoundError is returned when a reference does not resolve.
type NotFoundError struct {
	Ref Ref
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Ref.Kind, e.Ref.ID)
}

// DuplicateError is returned when an entity key is already taken.
type DuplicateError struct {
	Ref Ref
}

func (e DuplicateError) Error() string {
	return fmt.Sprintf("%s %d already exists", e.Ref.Kind, e.Ref.ID)
}

// KindMismatchError is returned when a reference resolves to an entity of an
// unexpected Go type.
type KindMismatchError struct {
	Ref  Ref
	Want string
	Got  string
}

func (e KindMismatchError) Error() string {
	return fmt.Sprintf("%s is a %s, expected %s", e.Ref, e.Got, e.Want)
}
