//go:build !linux || !iouring

package transport

import "github.com/lukaarma/wannabeCurl/errors"

func newIOURingDialer() (Dialer, error) {
	return nil, errors.NewTransportError(
		errors.TransportErrorIoUringInit,
		"iouring backend not built: requires linux and the iouring build tag",
		nil,
	)
}
