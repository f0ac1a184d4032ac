package tokencache

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError means a required credential is missing. It is fatal and
// never triggers the stale-token fallback.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "tokencache: missing credentials: " + strings.Join(e.Missing, ", ")
}

// SigningError wraps a key import or signature failure.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string { return fmt.Sprintf("tokencache: signing failed: %v", e.Err) }
func (e *SigningError) Unwrap() error { return e.Err }

// StoreReadError wraps a store read that failed for any reason other than
// the token being absent.
type StoreReadError struct {
	Err error
}

func (e *StoreReadError) Error() string { return fmt.Sprintf("tokencache: store read: %v", e.Err) }
func (e *StoreReadError) Unwrap() error { return e.Err }

// StoreWriteError wraps a failed persist after a successful regeneration.
type StoreWriteError struct {
	Err error
}

func (e *StoreWriteError) Error() string { return fmt.Sprintf("tokencache: store write: %v", e.Err) }
func (e *StoreWriteError) Unwrap() error { return e.Err }

// ExhaustedFallbackError means regeneration failed and there was no stored
// token to fall back on. Cause is the regeneration failure, Lookup the
// fallback read failure if there was one.
type ExhaustedFallbackError struct {
	Cause  error
	Lookup error
}

func (e *ExhaustedFallbackError) Error() string {
	if e.Lookup != nil {
		return fmt.Sprintf("tokencache: no token available: %v (fallback: %v)", e.Cause, e.Lookup)
	}
	return fmt.Sprintf("tokencache: no token available: %v", e.Cause)
}

func (e *ExhaustedFallbackError) Unwrap() []error {
	errs := []error{e.Cause}
	if e.Lookup != nil {
		errs = append(errs, e.Lookup)
	}
	return errs
}

func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

func IsSigningError(err error) bool {
	var e *SigningError
	return errors.As(err, &e)
}

func IsStoreReadError(err error) bool {
	var e *StoreReadError
	return errors.As(err, &e)
}

func IsStoreWriteError(err error) bool {
	var e *StoreWriteError
	return errors.As(err, &e)
}

func IsExhaustedFallbackError(err error) bool {
	var e *ExhaustedFallbackError
	return errors.As(err, &e)
}
