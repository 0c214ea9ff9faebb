package progress

import "errors"

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrProgressNotFound    = errors.New("work progress record not found")

	ErrMissingCondition = errors.New("vehicle condition is required")
	ErrMissingDiagnosis = errors.New("diagnosis details are required")
	ErrInvalidQuoteItem = errors.New("quote items need a name, a positive quantity and a non-negative unit price")
	ErrPartNotFound     = errors.New("quote item references an unknown part")

	ErrInvalidResponse   = errors.New("quote response must be approved or rejected")
	ErrQuoteNotProvided  = errors.New("no quote awaiting a response on this appointment")
	ErrQuoteNotApproved  = errors.New("maintenance requires an approved quote")
	ErrWorkNotInProgress = errors.New("maintenance has not been started")
	ErrWorkNotCompleted  = errors.New("cash settlement requires completed maintenance")
	ErrAlreadyPaid       = errors.New("appointment is already settled")
)
