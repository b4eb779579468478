package adapter

import (
	"errors"
)

// ErrNoKey is the rejection cause when neither an explicit key nor the
// record's id resolves to a storage key.
var ErrNoKey = errors.New("provide key or id")

// Envelope wraps the payload of every settled operation.
type Envelope struct {
	Data any `json:"data"`
}

// ListResult is the payload of List.
type ListResult struct {
	Results []any `json:"results"`
}

// ErrorData is the payload of a rejected operation's envelope.
type ErrorData struct {
	Error string `json:"error"`
}

// Failure is the error every rejected operation settles with. It unwraps to
// the raw cause (ErrNoKey, storage.ErrQuotaExceeded, a marshal error, ...).
type Failure struct {
	Op  string
	Err error
}

func (f *Failure) Error() string {
	return f.Op + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Envelope renders the failure as {data: {error: <message>}}.
func (f *Failure) Envelope() Envelope {
	return Envelope{Data: ErrorData{Error: f.Err.Error()}}
}

// FailureEnvelope returns the envelope for err if it is a *Failure.
func FailureEnvelope(err error) (Envelope, bool) {
	var f *Failure
	if !errors.As(err, &f) {
		return Envelope{}, false
	}
	return f.Envelope(), true
}
