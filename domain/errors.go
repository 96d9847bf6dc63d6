// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import (
	"errors"
	"fmt"
)

var ErrConfigNotFound = errors.New("sync config not found")

// ConnectionError aborts a run; it is retried on the next interval.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

type FetchError struct {
	Folder string
	Uid    uint32
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("could not fetch uid %d in %s: %v", e.Uid, e.Folder, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type ParseError struct {
	Folder string
	Uid    uint32
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse uid %d in %s: %v", e.Uid, e.Folder, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// PersistenceError aborts a run before the cursor of the current batch advances.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// SendError carries the provider's rejection. Sends are never retried implicitly.
type SendError struct {
	Code   int
	Reason string
	Err    error
}

func (e *SendError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("send rejected (%d): %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("send failed: %s", e.Reason)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err aborts a sync run.
func IsFatal(err error) bool {
	var connErr *ConnectionError
	var persistenceErr *PersistenceError
	return errors.As(err, &connErr) || errors.As(err, &persistenceErr) || errors.Is(err, ErrConfigNotFound)
}
