package ranger

import (
	"errors"
	"fmt"
)

// Kind classifies a wake cycle failure so callers can branch on it
type Kind uint8

const (
	KindUnknown Kind = iota
	KindAssociation
	KindStorageMount
	KindStorageRead
	KindStorageWrite
	KindRegistration
	KindReport
	KindSensor
)

var kindNames = [...]string{
	KindUnknown:      "unknown",
	KindAssociation:  "network association",
	KindStorageMount: "storage mount",
	KindStorageRead:  "storage read",
	KindStorageWrite: "storage write",
	KindRegistration: "registration",
	KindReport:       "report",
	KindSensor:       "sensor",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

var (
	// ErrNoEcho means the sensor timed out waiting for an echo
	ErrNoEcho = errors.New("no echo")
	// ErrMalformedResponse means the collector answered 200 without a
	// usable identity
	ErrMalformedResponse = errors.New("malformed response")
)

// Error is a failure in one step of a wake cycle.  Code is the collector's
// HTTP status when an exchange completed with a status other than 200.
type Error struct {
	Kind Kind
	Code int
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " failed"
	if e.Code != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether any *Error in err's chain has the given kind
func IsKind(err error, kind Kind) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// StatusCode returns the collector status carried by err, or zero
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// asKind wraps err in an *Error of the given kind unless it already is one
func asKind(kind Kind, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: kind, Err: err}
}
