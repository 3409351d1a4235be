package engine

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type ErrorKind string

const (
	ApprovalActionFailed ErrorKind = "approval action failed"
	MergeActionFailed    ErrorKind = "merge action failed"
	// TransportError is any other failure of a client call.
	TransportError ErrorKind = "transport error"
)

var _ zerolog.LogObjectMarshaler = &ActionError{}

// ActionError is a failure while processing a single pull request.
// It never aborts the processing of the other pull requests.
type ActionError struct {
	Kind      ErrorKind
	Number    int64
	NextError error
}

func (e *ActionError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Kind))
	if e.NextError != nil {
		sb.WriteString(": ")
		sb.WriteString(e.NextError.Error())
	}
	return sb.String()
}

func (e *ActionError) Unwrap() error {
	return e.NextError
}

func (e *ActionError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("kind", string(e.Kind))
	ev.Int64("number", e.Number)
	ev.Err(e.NextError)
}

// IsKind reports whether err is an ActionError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var actionErr *ActionError
	return errors.As(err, &actionErr) && actionErr.Kind == kind
}

func newActionError(kind ErrorKind, number int64, err error) error {
	return errors.WithStack(&ActionError{Kind: kind, Number: number, NextError: err})
}
