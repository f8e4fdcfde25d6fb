package payment

import "errors"

// ErrSessionCreation wraps any failure to obtain a gateway redirect.
var ErrSessionCreation = errors.New("payment session creation failed")
