package ironpay

import (
	"errors"
	"fmt"
)

// RemoteError is a non-2xx answer or an explicit success:false body. Message
// is the gateway's own message when it sent one.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
	Body       string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// ProtocolError is a 2xx answer that breaks the gateway contract, such as a
// create call without the new hash or a body that is not JSON.
type ProtocolError struct {
	Op     string
	Reason string
	Body   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("ironpay %s: %s: %s", e.Op, e.Reason, e.Body)
}

func IsRemoteError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
