package model

import (
	"fmt"
)

var (
	_ error = KeyNotFoundError{}
	_ error = ValidationError{}
	_ error = ConnectionError{}
	_ error = UnknownError{}
)

type KeyNotFoundError struct {
	Key string
}

func (err KeyNotFoundError) Error() string {
	return fmt.Sprintf("key %s not found", err.Key)
}

type ValidationError struct {
	Field  string
	Reason string
}

func (err ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", err.Field, err.Reason)
}

// ConnectionError is returned when storage could not be reached
// (or rejected credentials) within the connect timeout.
type ConnectionError struct {
	Backend string
	Addr    string
	Err     error
}

func (err ConnectionError) Error() string {
	return fmt.Sprintf("connecting to %s at %s: %v", err.Backend, err.Addr, err.Err)
}

func (err ConnectionError) Unwrap() error {
	return err.Err
}

// UnknownError wraps any storage failure outside of the known taxonomy.
type UnknownError struct {
	Op  string
	Err error
}

func (err UnknownError) Error() string {
	return fmt.Sprintf("%s: %v", err.Op, err.Err)
}

func (err UnknownError) Unwrap() error {
	return err.Err
}
