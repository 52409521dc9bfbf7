package validation

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"udyam/internal/registration/models"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func validInput() models.FormInput {
	return models.FormInput{
		Aadhaar: "123456789012",
		Name:    "John Doe",
		Mobile:  "9876543210",
		Email:   "john.doe@example.com",
		OTP:     "123456",
		PAN:     "ABCDE1234F",
		PANName: "John Doe",
		OrgType: "Proprietorship",
		IncDate: "2020-01-15",
	}
}

type ValidatorSuite struct {
	suite.Suite
	validator *Validator
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) SetupTest() {
	s.validator = New()
}

func (s *ValidatorSuite) validate(mutate func(*models.FormInput)) Result {
	in := validInput()
	if mutate != nil {
		mutate(&in)
	}
	return s.validator.Validate(in, fixedNow)
}

func (s *ValidatorSuite) TestValidForm() {
	res := s.validate(nil)

	s.Require().True(res.Valid)
	s.Nil(res.Errors)
	s.Require().NotNil(res.Data)
	s.Equal("123456789012", res.Data.Aadhaar)
	s.Equal(models.OrgTypeProprietorship, res.Data.OrgType)
	s.Equal(time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC), res.Data.IncorporationDate)
}

func (s *ValidatorSuite) TestNormalizesWhitespace() {
	res := s.validate(func(in *models.FormInput) {
		in.Name = "  John Doe  "
		in.Email = " john.doe@example.com "
		in.City = "  Pune "
	})

	s.Require().True(res.Valid)
	s.Equal("John Doe", res.Data.Name)
	s.Equal("john.doe@example.com", res.Data.Email)
	s.Equal("Pune", res.Data.City)
}

func (s *ValidatorSuite) TestAadhaar() {
	cases := []struct {
		name  string
		value string
		valid bool
	}{
		{"valid 12-digit Aadhaar", "123456789012", true},
		{"too short", "12345678901", false},
		{"too long", "1234567890123", false},
		{"contains letters", "12345678901a", false},
		{"signed number", "+12345678901", false},
		{"all zeros", "000000000000", true},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			res := s.validate(func(in *models.FormInput) { in.Aadhaar = tc.value })
			if tc.valid {
				s.NotContains(res.Errors, "aadhaar")
				return
			}
			s.False(res.Valid)
			s.Equal("Aadhaar must be exactly 12 digits", res.Errors["aadhaar"])
		})
	}

	s.Run("empty is required", func() {
		res := s.validate(func(in *models.FormInput) { in.Aadhaar = "" })
		s.False(res.Valid)
		s.Equal("Aadhaar Number is required", res.Errors["aadhaar"])
	})
}

func (s *ValidatorSuite) TestPAN() {
	cases := []struct {
		name  string
		value string
		valid bool
	}{
		{"valid PAN", "ABCDE1234F", true},
		{"lowercase", "abcde1234f", false},
		{"missing last letter", "ABCDE1234", false},
		{"missing leading letter", "ABCD1234F", false},
		{"missing digit", "ABCDE123F", false},
		{"extra digit", "ABCDE12345F", false},
		{"wrong pattern", "12345ABCDF", false},
		{"garbage", "INVALID", false},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			res := s.validate(func(in *models.FormInput) { in.PAN = tc.value })
			if tc.valid {
				s.NotContains(res.Errors, "pan")
				return
			}
			s.False(res.Valid)
			s.Equal("PAN format should be ABCDE1234F (5 letters, 4 digits, 1 letter)", res.Errors["pan"])
		})
	}

	s.Run("empty is required", func() {
		res := s.validate(func(in *models.FormInput) { in.PAN = "" })
		s.Equal("PAN Number is required", res.Errors["pan"])
	})
}

func (s *ValidatorSuite) TestMobileAndOTP() {
	for _, bad := range []string{"987654321", "98765432101", "987654321a"} {
		res := s.validate(func(in *models.FormInput) { in.Mobile = bad })
		s.Equal("Mobile number must be exactly 10 digits", res.Errors["mobile"], bad)
	}
	s.NotContains(s.validate(func(in *models.FormInput) { in.Mobile = "0000000000" }).Errors, "mobile")

	res := s.validate(func(in *models.FormInput) { in.OTP = "12345" })
	s.Equal("OTP must be exactly 6 digits", res.Errors["otp"])
}

func (s *ValidatorSuite) TestEmail() {
	cases := map[string]bool{
		"valid@example.com":           true,
		"user.name+tag@example.co.uk": true,
		"invalid-email":               false,
		"@example.com":                false,
		"user@":                       false,
	}
	for email, valid := range cases {
		res := s.validate(func(in *models.FormInput) { in.Email = email })
		if valid {
			s.NotContains(res.Errors, "email", email)
			continue
		}
		s.Equal("Please enter a valid email address", res.Errors["email"], email)
	}
}

func (s *ValidatorSuite) TestNameBounds() {
	res := s.validate(func(in *models.FormInput) { in.Name = "A" })
	s.Equal("Name must be at least 2 characters long", res.Errors["name"])

	res = s.validate(func(in *models.FormInput) { in.PANName = strings.Repeat("a", 101) })
	s.Equal("PAN name cannot exceed 100 characters", res.Errors["panName"])

	res = s.validate(func(in *models.FormInput) { in.Name = strings.Repeat("a", 100) })
	s.NotContains(res.Errors, "name")

	res = s.validate(func(in *models.FormInput) { in.Name = "   " })
	s.Equal("Name of Applicant is required", res.Errors["name"])
}

func (s *ValidatorSuite) TestOrgType() {
	for _, org := range models.OrgTypes {
		res := s.validate(func(in *models.FormInput) { in.OrgType = string(org) })
		s.NotContains(res.Errors, "orgType", org)
	}
	for _, org := range []string{"Corporation", "Trust", "Society", "llp"} {
		res := s.validate(func(in *models.FormInput) { in.OrgType = org })
		s.False(res.Valid)
		msg := res.Errors["orgType"]
		s.Contains(msg, "one of:")
		for _, allowed := range models.OrgTypes {
			s.Contains(msg, string(allowed))
		}
	}
	res := s.validate(func(in *models.FormInput) { in.OrgType = "" })
	s.Equal("Organisation Type is required", res.Errors["orgType"])
}

func (s *ValidatorSuite) TestIncorporationDate() {
	s.Run("future date rejected", func() {
		future := fixedNow.AddDate(1, 0, 0).Format(models.DateLayout)
		res := s.validate(func(in *models.FormInput) { in.IncDate = future })
		s.False(res.Valid)
		s.Contains(res.Errors["incDate"], "future")
	})

	s.Run("past date accepted", func() {
		past := fixedNow.AddDate(-1, 0, 0).Format(models.DateLayout)
		res := s.validate(func(in *models.FormInput) { in.IncDate = past })
		s.True(res.Valid)
	})

	s.Run("same day accepted", func() {
		res := s.validate(func(in *models.FormInput) { in.IncDate = "2025-06-01" })
		s.True(res.Valid)
	})

	s.Run("date-time without zone read as UTC", func() {
		res := s.validate(func(in *models.FormInput) { in.IncDate = "2020-01-15T10:00:00" })
		s.Require().True(res.Valid)
		s.Equal(time.Date(2020, 1, 15, 10, 0, 0, 0, time.UTC), res.Data.IncorporationDate)
	})

	s.Run("date-time without zone in the future rejected", func() {
		res := s.validate(func(in *models.FormInput) { in.IncDate = "2025-06-01T12:00:01" })
		s.Equal("Date of Incorporation cannot be in the future", res.Errors["incDate"])
	})

	s.Run("timestamp accepted", func() {
		res := s.validate(func(in *models.FormInput) { in.IncDate = "2020-01-15T10:30:00Z" })
		s.Require().True(res.Valid)
		s.Equal(time.Date(2020, 1, 15, 10, 30, 0, 0, time.UTC), res.Data.IncorporationDate)
	})

	s.Run("unparsable rejected", func() {
		res := s.validate(func(in *models.FormInput) { in.IncDate = "15/01/2020" })
		s.Equal("Date of Incorporation must be a valid date (YYYY-MM-DD)", res.Errors["incDate"])
	})

	s.Run("impossible calendar date rejected", func() {
		res := s.validate(func(in *models.FormInput) { in.IncDate = "2021-02-30" })
		s.Contains(res.Errors, "incDate")
	})

	s.Run("missing is required", func() {
		res := s.validate(func(in *models.FormInput) { in.IncDate = "" })
		s.Equal("Date of Incorporation is required", res.Errors["incDate"])
	})
}

func (s *ValidatorSuite) TestOptionalFields() {
	res := s.validate(func(in *models.FormInput) {
		in.Pincode = "411001"
		in.City = "Pune"
		in.State = "Maharashtra"
	})
	s.Require().True(res.Valid)
	s.Equal("411001", res.Data.Pincode)

	res = s.validate(func(in *models.FormInput) {
		in.Pincode = "4110"
		in.City = "P"
		in.State = strings.Repeat("s", 51)
	})
	s.False(res.Valid)
	s.Equal("PIN code must be exactly 6 digits", res.Errors["pincode"])
	s.Equal("City must be between 2 and 50 characters", res.Errors["city"])
	s.Equal("State must be between 2 and 50 characters", res.Errors["state"])
	s.Len(res.Errors, 3)
}

func (s *ValidatorSuite) TestEmptyFormReportsEveryRequiredField() {
	res := s.validator.Validate(models.FormInput{}, fixedNow)

	s.False(res.Valid)
	s.Nil(res.Data)
	s.Len(res.Errors, 9)
	for field, msg := range res.Errors {
		s.Contains(strings.ToLower(msg), "required", field)
	}
}

func (s *ValidatorSuite) TestAllInvalidFieldsReportedTogether() {
	res := s.validator.Validate(models.FormInput{
		Aadhaar: "12345",
		Name:    "",
		Mobile:  "987654321",
		Email:   "invalid-email",
		OTP:     "12345",
		PAN:     "INVALID",
		PANName: "A",
		OrgType: "InvalidType",
		IncDate: "2030-01-01",
	}, fixedNow)

	s.False(res.Valid)
	s.Len(res.Errors, 9)
	s.Contains(res.Errors["aadhaar"], "12 digits")
	s.Contains(res.Errors["name"], "required")
	s.Contains(res.Errors["mobile"], "10 digits")
	s.Contains(res.Errors["email"], "valid email")
	s.Contains(res.Errors["otp"], "6 digits")
	s.Contains(res.Errors["pan"], "ABCDE1234F")
	s.Contains(res.Errors["panName"], "2 characters")
	s.Contains(res.Errors["orgType"], "one of:")
	s.Contains(res.Errors["incDate"], "future")
}

func (s *ValidatorSuite) TestFreeTextIsOnlyTrimmed() {
	res := s.validate(func(in *models.FormInput) {
		in.Name = "  <b>John</b> "
		in.City = "Pune <West>"
	})
	s.Require().True(res.Valid)
	s.Equal("<b>John</b>", res.Data.Name)
	s.Equal("Pune <West>", res.Data.City)
}

func (s *ValidatorSuite) TestMistypedFieldsGetFormatMessages() {
	var in models.FormInput
	s.Require().NoError(json.Unmarshal([]byte(`{
		"aadhaar": 123456789012,
		"name": "John Doe",
		"mobile": 9876543210,
		"email": "not-an-email",
		"otp": "123456",
		"pan": "ABCDE1234F",
		"panName": "John Doe",
		"orgType": "Proprietorship",
		"incDate": "2020-01-15",
		"pincode": 411001
	}`), &in))

	res := s.validator.Validate(in, fixedNow)

	s.False(res.Valid)
	s.Nil(res.Data)
	s.Equal(map[string]string{
		"aadhaar": "Aadhaar must be exactly 12 digits",
		"mobile":  "Mobile number must be exactly 10 digits",
		"email":   "Please enter a valid email address",
		"pincode": "PIN code must be exactly 6 digits",
	}, res.Errors)
}

func (s *ValidatorSuite) TestMistypedOptionalFieldAloneFailsTheForm() {
	var in models.FormInput
	raw, err := json.Marshal(validInput())
	s.Require().NoError(err)
	body := strings.Replace(string(raw), "{", `{"city":42,`, 1)
	s.Require().NoError(json.Unmarshal([]byte(body), &in))

	res := s.validator.Validate(in, fixedNow)

	s.False(res.Valid)
	s.Equal(map[string]string{"city": "City must be between 2 and 50 characters"}, res.Errors)
}

func TestParseDate(t *testing.T) {
	suite.Run(t, new(parseDateSuite))
}

type parseDateSuite struct{ suite.Suite }

func (s *parseDateSuite) TestLayouts() {
	d, ok := ParseDate("2023-12-25")
	s.True(ok)
	s.Equal("2023-12-25", models.FormatDate(d))

	_, ok = ParseDate("2023-12-25T10:30:00+05:30")
	s.True(ok)

	d, ok = ParseDate("2023-12-25T10:30:00.250")
	s.True(ok)
	s.Equal(time.Date(2023, 12, 25, 10, 30, 0, 250_000_000, time.UTC), d)

	_, ok = ParseDate("yesterday")
	s.False(ok)
}
