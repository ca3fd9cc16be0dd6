package locale

import (
	"testing"
	"time"
	_ "time/tzdata"
)

func TestInferCountryFromPhone(t *testing.T) {
	tests := []struct {
		name     string
		phone    string
		wantCode string
		wantNil  bool
	}{
		{name: "Israel phone", phone: "+972541234567", wantCode: "IL"},
		{name: "US phone", phone: "+16502530000", wantCode: "US"},
		{name: "UK phone", phone: "+442079460000", wantCode: "GB"},
		{name: "surrounding whitespace", phone: "  +972541234567 ", wantCode: "IL"},
		{name: "empty phone", phone: "", wantNil: true},
		{name: "invalid phone", phone: "not-a-phone", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferCountryFromPhone(tt.phone)
			if tt.wantNil {
				if got != nil {
					t.Errorf("InferCountryFromPhone(%q) = %v, want nil", tt.phone, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("InferCountryFromPhone(%q) = nil, want country with code %q", tt.phone, tt.wantCode)
			}
			if got.Code != tt.wantCode {
				t.Errorf("InferCountryFromPhone(%q).Code = %q, want %q", tt.phone, got.Code, tt.wantCode)
			}
		})
	}
}

func TestInferTimezoneFromPhone(t *testing.T) {
	if got := InferTimezoneFromPhone("+972541234567"); got != "Asia/Jerusalem" {
		t.Errorf("got %q, want Asia/Jerusalem", got)
	}
	if got := InferTimezoneFromPhone(""); got != DefaultTimezone {
		t.Errorf("got %q, want %q", got, DefaultTimezone)
	}
}

func TestCountries_TimezonesLoad(t *testing.T) {
	for code, c := range Countries {
		if c.Code != code {
			t.Errorf("country %s has mismatched code %s", code, c.Code)
		}
		if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
			t.Errorf("country %s has invalid timezone %q: %v", code, c.DefaultTimezone, err)
		}
	}
}
