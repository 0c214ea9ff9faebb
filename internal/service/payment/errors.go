package payment

import "errors"

var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrAlreadyPaid         = errors.New("appointment already has a settled payment")
	ErrOrderCodeExhausted  = errors.New("could not allocate a unique order code")
	ErrUnknownStatus       = errors.New("unrecognized gateway status")
)
