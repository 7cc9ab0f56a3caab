package license

import (
	"encoding/json"
	"time"
)

// Validation is the outcome of checking a key. Err is nil exactly when Valid.
type Validation struct {
	Valid       bool
	Class       Class
	ExpiryDate  time.Time
	Expired     bool
	Err         error
	Fingerprint string
	Activated   bool
	LicenseKey  string
}

// Message returns the error text, or "" for a valid license.
func (v Validation) Message() string {
	if v.Err == nil {
		return ""
	}
	return v.Err.Error()
}

type validationJSON struct {
	Valid       bool   `json:"valid"`
	LicenseType Class  `json:"licenseType,omitempty"`
	ExpireDate  string `json:"expireDate,omitempty"`
	Expired     bool   `json:"expired,omitempty"`
	Error       string `json:"error,omitempty"`
	HWID        string `json:"hwid,omitempty"`
	Activated   bool   `json:"activated,omitempty"`
}

// MarshalJSON renders the validation with dates as YYYY-MM-DD.
func (v Validation) MarshalJSON() ([]byte, error) {
	out := validationJSON{
		Valid:       v.Valid,
		LicenseType: v.Class,
		Expired:     v.Expired,
		Error:       v.Message(),
		HWID:        v.Fingerprint,
		Activated:   v.Activated,
	}
	if !v.ExpiryDate.IsZero() {
		out.ExpireDate = v.ExpiryDate.Format(dateLayout)
	}
	return json.Marshal(out)
}
