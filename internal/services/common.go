package services

import (
	"errors"
	"fmt"

	"aqi-map-backend/internal/repository"
	"aqi-map-backend/internal/validation"
)

var (
	// ErrMissingFields is returned when a required request field is absent
	ErrMissingFields = errors.New("missing required fields")
	// ErrInvalidInput is returned when a field is present but malformed
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when the addressed record does not exist
	ErrNotFound = repository.ErrNotFound
	// ErrStorageDisabled is returned when object storage is not configured
	ErrStorageDisabled = errors.New("photo storage is not configured")
	// ErrUnknownVoucher is returned when redeeming a voucher missing from the catalog
	ErrUnknownVoucher = errors.New("unknown voucher")
	// ErrNoStations is returned when no monitoring station is configured
	ErrNoStations = errors.New("no nearby location found")
)

// Publisher pushes events to live feed subscribers
type Publisher interface {
	Broadcast(msgType string, data interface{})
}

// checkInput validates a request struct, separating absent fields from malformed ones
func checkInput(req interface{}) error {
	err := validation.ValidateStruct(req)
	if err == nil {
		return nil
	}

	var verr *validation.RequestValidationError
	if errors.As(err, &verr) && len(verr.MissingFields()) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingFields, verr.MissingFields())
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
