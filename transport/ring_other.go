//go:build !linux

package transport

import "github.com/lukaarma/wannabeCurl/errors"

func newURingDialer() (Dialer, error) {
	return nil, errors.NewTransportError(errors.TransportErrorIoUringInit, "io_uring requires linux", nil)
}
