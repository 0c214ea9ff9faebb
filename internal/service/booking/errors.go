package booking

import "errors"

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrCenterNotFound      = errors.New("service center not found")
	ErrCenterInactive      = errors.New("service center is not active")
	ErrVehicleNotFound     = errors.New("vehicle not found")
	ErrVehicleOwnership    = errors.New("vehicle does not belong to this customer")
	ErrServiceTypeNotFound = errors.New("service type not found")
	ErrPackageNotFound     = errors.New("service package not found")

	ErrMissingDate        = errors.New("appointment date is required")
	ErrPastDate           = errors.New("appointment date must be in the future")
	ErrInvalidTime        = errors.New("appointment time must be HH:MM")
	ErrHoursNotConfigured = errors.New("service center has no operating hours for this day")
	ErrClosedOnDay        = errors.New("service center is closed on this day")
	ErrNoTechnicians      = errors.New("service center has no active technicians")
	ErrCrossMidnight      = errors.New("service duration extends past closing day boundary")

	ErrNoServiceSelected = errors.New("select a service type, a package, or inspection only")
	ErrPackageExhausted  = errors.New("customer package has no remaining services")
	ErrPackageInactive   = errors.New("customer package is not active")
	ErrPackageNotCovered = errors.New("service type is not included in the package")

	ErrUnpaidDeposit    = errors.New("online deposit must be paid before confirmation")
	ErrNotConfirmable   = errors.New("appointment cannot be confirmed from its current status")
	ErrNotCancellable   = errors.New("appointment can no longer be cancelled")
	ErrNotReschedulable = errors.New("appointment can only be rescheduled before work starts")
)
