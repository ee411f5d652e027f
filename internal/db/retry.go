package db

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Operation is a function that performs an action and returns an error if it fails.
type Operation func() error

const DefaultMaxRetries = 3

// Try executes an insert-style operation, retrying on duplicate key errors.
// Callers regenerate the random ID inside the operation closure, so a retry
// gets a new one. This is the only automatic retry in the system; it covers
// ID collisions, not semantic failures.
func Try(op Operation) error {
	return WithRetries(op, DefaultMaxRetries)
}

// WithRetries attempts op up to 1+maxRetries times, retrying only when the
// failure is a Mongo duplicate key error.
func WithRetries(op Operation, maxRetries int) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == maxRetries || !IsDuplicateKeyError(err) {
			return err
		}
		time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
	}
	return err
}

// IsDuplicateKeyError checks for a MongoDB duplicate key error (code 11000).
func IsDuplicateKeyError(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}
