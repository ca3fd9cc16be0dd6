package locale

import (
	"strings"

	"tutorhub/pkg/sanitizer"
)

func InferCountryFromPhone(phone string) *Country {
	region := sanitizer.PhoneRegion(strings.TrimSpace(phone))
	if country, ok := Countries[region]; ok {
		return &country
	}
	return nil
}

// InferTimezoneFromPhone returns the default zone of the phone's country, or
// UTC when the country is unknown.
func InferTimezoneFromPhone(phone string) string {
	if country := InferCountryFromPhone(phone); country != nil {
		return country.DefaultTimezone
	}
	return DefaultTimezone
}
