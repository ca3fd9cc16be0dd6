package locale

const (
	DefaultTimezone = "UTC"
)

type Country struct {
	Code            string // ISO 3166-1 alpha-2
	Name            string
	DefaultTimezone string // IANA identifier
}

var Countries = map[string]Country{
	"IL": {Code: "IL", Name: "Israel", DefaultTimezone: "Asia/Jerusalem"},
	"US": {Code: "US", Name: "United States", DefaultTimezone: "America/New_York"},
	"CA": {Code: "CA", Name: "Canada", DefaultTimezone: "America/Toronto"},
	"GB": {Code: "GB", Name: "United Kingdom", DefaultTimezone: "Europe/London"},
	"IE": {Code: "IE", Name: "Ireland", DefaultTimezone: "Europe/Dublin"},
	"DE": {Code: "DE", Name: "Germany", DefaultTimezone: "Europe/Berlin"},
	"FR": {Code: "FR", Name: "France", DefaultTimezone: "Europe/Paris"},
	"ES": {Code: "ES", Name: "Spain", DefaultTimezone: "Europe/Madrid"},
	"IT": {Code: "IT", Name: "Italy", DefaultTimezone: "Europe/Rome"},
	"NL": {Code: "NL", Name: "Netherlands", DefaultTimezone: "Europe/Amsterdam"},
	"IN": {Code: "IN", Name: "India", DefaultTimezone: "Asia/Kolkata"},
	"KE": {Code: "KE", Name: "Kenya", DefaultTimezone: "Africa/Nairobi"},
	"NG": {Code: "NG", Name: "Nigeria", DefaultTimezone: "Africa/Lagos"},
	"ZA": {Code: "ZA", Name: "South Africa", DefaultTimezone: "Africa/Johannesburg"},
	"AU": {Code: "AU", Name: "Australia", DefaultTimezone: "Australia/Sydney"},
	"BR": {Code: "BR", Name: "Brazil", DefaultTimezone: "America/Sao_Paulo"},
	"JP": {Code: "JP", Name: "Japan", DefaultTimezone: "Asia/Tokyo"},
}
