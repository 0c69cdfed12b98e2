package enroll

import "fmt"

// InvalidEnrollResponse means Steam returned a parseable but
// semantically wrong response: missing success, missing an RSA key,
// missing revocation_code. It wraps a *transport.TransportError when
// the underlying cause was a transport failure.
type InvalidEnrollResponse struct {
	Msg string
	Err error
}

func (e *InvalidEnrollResponse) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("enroll: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("enroll: %s", e.Msg)
}

func (e *InvalidEnrollResponse) Unwrap() error { return e.Err }

func invalidResponsef(err error, format string, args ...any) *InvalidEnrollResponse {
	return &InvalidEnrollResponse{Msg: fmt.Sprintf(format, args...), Err: err}
}
