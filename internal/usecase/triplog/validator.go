package triplog

import (
	"strings"

	domainTripLog "rx-logistics/internal/domain/triplog"
	appErrors "rx-logistics/pkg/errors"
	"rx-logistics/pkg/utils"
)

// validateRequest collects every problem with a submission into one
// validation error. Photos are mandatory only on first submission.
func validateRequest(req *TripLogRequest, photos Photos, requirePhotos bool) error {
	fields := make(map[string]string)

	if err := utils.ValidateStruct(req); err != nil {
		for k, v := range utils.FieldErrors(err) {
			fields[k] = v
		}
	}

	if strings.TrimSpace(req.RouteID) == "" {
		fields["route_id"] = "is required"
	}
	switch {
	case req.Odometer == nil:
		fields["odometer"] = "is required"
	case req.Odometer.IsNegative():
		fields["odometer"] = "must not be negative"
	}

	tripType := domainTripLog.TripType(req.TripType)
	if tripType.IsValid() {
		for k, v := range req.checklist().Validate(tripType) {
			fields[k] = v
		}
	}

	for slot, photo := range photos {
		if photo == nil {
			continue
		}
		if !isKnownSlot(slot) {
			fields["images."+string(slot)] = "unknown photo slot"
		}
	}
	if requirePhotos {
		for _, slot := range domainTripLog.PhotoSlots() {
			if photos[slot] == nil {
				fields["images."+string(slot)] = "a " + strings.ToLower(slot.Label()) + " photo is required"
			}
		}
	}

	if len(fields) > 0 {
		return appErrors.NewValidationError("Please complete the inspection before submitting", fields)
	}
	return nil
}

func isKnownSlot(slot domainTripLog.PhotoSlot) bool {
	for _, s := range domainTripLog.PhotoSlots() {
		if s == slot {
			return true
		}
	}
	return false
}
