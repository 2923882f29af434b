package internal

import "fmt"

type ErrorKind int

const (
	// KindBackend means the service answered with an explicit error message.
	KindBackend ErrorKind = iota
	// KindProtocol means the body did not match either response shape.
	KindProtocol
	// KindNetwork means the request never produced a response.
	KindNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case KindBackend:
		return "backend"
	case KindProtocol:
		return "protocol"
	case KindNetwork:
		return "network"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is returned by PriceClient for every failed lookup.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}
