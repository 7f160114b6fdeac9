package rag

import (
	"errors"
	"fmt"
)

// Kind classifies a failure of a remote client operation.
type Kind int

const (
	// KindUnknown is returned by KindOf for errors outside the taxonomy.
	KindUnknown Kind = iota
	// KindAuthentication means the remote rejected the credential.
	KindAuthentication
	// KindConfiguration means the endpoint is misconfigured (wrong URL, missing collection).
	KindConfiguration
	// KindRemoteService means the remote answered with a non-success status or a malformed body.
	KindRemoteService
	// KindNetwork means the request never completed (DNS, refused connection, timeout).
	KindNetwork
	// KindCompletion means the completion service call failed.
	KindCompletion
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindConfiguration:
		return "configuration"
	case KindRemoteService:
		return "remote_service"
	case KindNetwork:
		return "network"
	case KindCompletion:
		return "completion"
	default:
		return "unknown"
	}
}

var (
	// ErrAuthentication matches any error of KindAuthentication.
	ErrAuthentication = errors.New("authentication error")
	// ErrConfiguration matches any error of KindConfiguration.
	ErrConfiguration = errors.New("configuration error")
	// ErrRemoteService matches any error of KindRemoteService.
	ErrRemoteService = errors.New("remote service error")
	// ErrNetwork matches any error of KindNetwork.
	ErrNetwork = errors.New("network error")
	// ErrCompletion matches any error of KindCompletion.
	ErrCompletion = errors.New("completion service error")
)

func (k Kind) sentinel() error {
	switch k {
	case KindAuthentication:
		return ErrAuthentication
	case KindConfiguration:
		return ErrConfiguration
	case KindRemoteService:
		return ErrRemoteService
	case KindNetwork:
		return ErrNetwork
	case KindCompletion:
		return ErrCompletion
	default:
		return nil
	}
}

// Error is the error returned by the retrieval and completion clients.
type Error struct {
	Kind Kind
	// Service names the remote, e.g. "ragie", "qdrant", "completion".
	Service string
	// StatusCode is the HTTP status for status-derived errors, 0 otherwise.
	StatusCode int
	// Body is the raw response body for RemoteService errors.
	Body string
	// Message is a human-readable hint, e.g. which credential to check.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	label := "error"
	if s := e.Kind.sentinel(); s != nil {
		label = s.Error()
	}
	msg := fmt.Sprintf("%s: %s", e.Service, label)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
