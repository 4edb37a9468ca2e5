package listings

import (
	"errors"
	"fmt"

	"github.com/heimat-hq/listings-watcher/pkg/httpclient"
)

// Kind classifies a client failure.
type Kind int

const (
	// KindNetwork covers transport failures and non-2xx responses.
	KindNetwork Kind = iota + 1
	// KindDecode covers invalid JSON and schema violations.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

var (
	// ErrNetwork matches every *Error of KindNetwork via errors.Is.
	ErrNetwork = errors.New("listings: network error")
	// ErrDecode matches every *Error of KindDecode via errors.Is.
	ErrDecode = errors.New("listings: decode error")
	// ErrNoIDs is returned by Fetch when called without identifiers.
	ErrNoIDs = errors.New("listings: at least one listing id is required")
)

// Error is returned by Fetch and Parse.
type Error struct {
	Kind Kind
	Err  error
	// Body holds a snippet of the offending payload, when there is one.
	Body string
}

func (e *Error) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("listings %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("listings %s: %v (body: %s)", e.Kind, e.Err, e.Body)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrDecode:
		return e.Kind == KindDecode
	}
	return false
}

func networkError(err error, body []byte) *Error {
	e := &Error{Kind: KindNetwork, Err: err}
	if len(body) > 0 {
		e.Body = responseSnippet(body)
	}
	return e
}

func decodeError(err error, body []byte) *Error {
	return &Error{Kind: KindDecode, Err: err, Body: responseSnippet(body)}
}

func responseSnippet(body []byte) string {
	if s := httpclient.Snippet(body, 512); s != "" {
		return s
	}
	return "<empty>"
}
