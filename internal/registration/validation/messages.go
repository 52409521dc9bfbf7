package validation

// messages maps a JSON field to the text shown for each failing rule. The
// empty tag is the field's format message and covers every other rule.
var messages = map[string]map[string]string{
	"aadhaar": {
		"required": "Aadhaar Number is required",
		"":         "Aadhaar must be exactly 12 digits",
	},
	"name": {
		"required": "Name of Applicant is required",
		"min":      "Name must be at least 2 characters long",
		"max":      "Name cannot exceed 100 characters",
		"":         "Name must be between 2 and 100 characters",
	},
	"mobile": {
		"required": "Mobile Number is required",
		"":         "Mobile number must be exactly 10 digits",
	},
	"email": {
		"required": "Email Address is required",
		"":         "Please enter a valid email address",
	},
	"otp": {
		"required": "OTP is required",
		"":         "OTP must be exactly 6 digits",
	},
	"pan": {
		"required": "PAN Number is required",
		"":         "PAN format should be ABCDE1234F (5 letters, 4 digits, 1 letter)",
	},
	"panName": {
		"required": "Name as per PAN is required",
		"min":      "PAN name must be at least 2 characters long",
		"max":      "PAN name cannot exceed 100 characters",
		"":         "PAN name must be between 2 and 100 characters",
	},
	"orgType": {
		"required": "Organisation Type is required",
		"":         "Organisation Type must be one of: Proprietorship, Partnership, Private Limited, LLP",
	},
	"incDate": {
		"required":  "Date of Incorporation is required",
		"notfuture": "Date of Incorporation cannot be in the future",
		"":          "Date of Incorporation must be a valid date (YYYY-MM-DD)",
	},
	"pincode": {
		"": "PIN code must be exactly 6 digits",
	},
	"city": {
		"": "City must be between 2 and 50 characters",
	},
	"state": {
		"": "State must be between 2 and 50 characters",
	},
}

func message(field, tag string) string {
	byTag, ok := messages[field]
	if !ok {
		return field + " is invalid"
	}
	if msg, ok := byTag[tag]; ok {
		return msg
	}
	return byTag[""]
}
