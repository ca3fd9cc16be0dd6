package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NormalizePhone formats phone as E.164. Numbers without a country code are
// read in defaultRegion. Unparseable input yields "".
func NormalizePhone(phone, defaultRegion string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(phone, strings.ToUpper(defaultRegion))
	if err != nil {
		return ""
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

// PhoneRegion returns the ISO region of an E.164 number, or "" if unknown.
func PhoneRegion(phone string) string {
	parsed, err := phonenumbers.Parse(phone, "")
	if err != nil {
		return ""
	}
	region := phonenumbers.GetRegionCodeForNumber(parsed)
	if region == "ZZ" {
		return ""
	}
	return region
}
