package models

import (
	"encoding/json"
	"fmt"
)

// UnmarshalJSON decodes a JSON object field by field so a value of the wrong
// type is reported against its own key.
func (f *FormInput) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("form must be a JSON object: %w", err)
	}

	*f = FormInput{}
	for _, fld := range f.fields() {
		value, ok := raw[fld.key]
		if !ok {
			continue
		}
		// null leaves the field empty, which reads as absent.
		if err := json.Unmarshal(value, fld.dst); err != nil {
			*fld.dst = ""
			f.mistyped = append(f.mistyped, fld.key)
		}
	}
	return nil
}

// Mistyped lists the keys whose JSON value was not a string, in field order.
func (f FormInput) Mistyped() []string {
	return f.mistyped
}

type formField struct {
	key string
	dst *string
}

func (f *FormInput) fields() []formField {
	return []formField{
		{"aadhaar", &f.Aadhaar},
		{"name", &f.Name},
		{"mobile", &f.Mobile},
		{"email", &f.Email},
		{"otp", &f.OTP},
		{"pan", &f.PAN},
		{"panName", &f.PANName},
		{"orgType", &f.OrgType},
		{"incDate", &f.IncDate},
		{"pincode", &f.Pincode},
		{"city", &f.City},
		{"state", &f.State},
	}
}
