package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the ledger path.
var (
	// ErrOptimisticLock is returned by a store when the conditional write
	// observed a version other than the one it was given.
	ErrOptimisticLock = errors.New("optimistic lock conflict")

	// ErrRecordExists is returned by a store when a create races with
	// another create on the same key.
	ErrRecordExists = errors.New("inventory record already exists")

	// ErrRecordNotFound is returned by a store read for an unknown key.
	ErrRecordNotFound = errors.New("inventory record not found")

	// ErrRetriesExhausted is surfaced to the caller after the CAS retry
	// budget runs out.
	ErrRetriesExhausted = errors.New("optimistic lock failure: retries exhausted")

	// ErrInvalidMovementType rejects movement types outside in/out/adjustment.
	ErrInvalidMovementType = errors.New("invalid movement type")
)

// ValidationError rejects a malformed request before any state is read.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// VersionMismatchError is the caller-visible stale-version conflict. It is
// never retried internally; the caller must refetch the record.
type VersionMismatchError struct {
	Current  int64
	Provided int64
	Reason   string
}

func (e *VersionMismatchError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("version mismatch: expected %d, got %d (%s)", e.Current, e.Provided, e.Reason)
	}
	return fmt.Sprintf("version mismatch: current %d, provided %d", e.Current, e.Provided)
}

// InsufficientStockError rejects a warehouse-sourced decrement below zero.
// No state is changed and no journal entry is written.
type InsufficientStockError struct {
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: available %d, requested %d", e.Available, e.Requested)
}
