// Package validation turns an untrusted registration payload into a
// normalized form, or into the complete set of per-field error messages.
package validation

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"udyam/internal/registration/models"
)

var panPattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]{1}$`)

// Result is the outcome of validating one form. Exactly one of Errors and
// Data is set.
type Result struct {
	Valid  bool
	Errors map[string]string
	Data   *models.ValidatedForm
}

// rules is the normalized form the field rules run against. Its JSON names
// become the keys of Result.Errors.
type rules struct {
	Aadhaar string `json:"aadhaar" validate:"required,len=12,number"`
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Mobile  string `json:"mobile" validate:"required,len=10,number"`
	Email   string `json:"email" validate:"required,email"`
	OTP     string `json:"otp" validate:"required,len=6,number"`
	PAN     string `json:"pan" validate:"required,pan"`
	PANName string `json:"panName" validate:"required,min=2,max=100"`
	OrgType string `json:"orgType" validate:"required,orgtype"`
	IncDate string `json:"incDate" validate:"required,isodate,notfuture"`
	Pincode string `json:"pincode" validate:"omitempty,len=6,number"`
	City    string `json:"city" validate:"omitempty,min=2,max=50"`
	State   string `json:"state" validate:"omitempty,min=2,max=50"`
}

type nowKey struct{}

// Validator applies the registration field rules. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator with the registration specific tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails on an empty tag name, which never happens here.
	_ = v.RegisterValidation("pan", func(fl validator.FieldLevel) bool {
		return panPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("orgtype", func(fl validator.FieldLevel) bool {
		return models.OrgType(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, ok := ParseDate(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidationCtx("notfuture", func(ctx context.Context, fl validator.FieldLevel) bool {
		date, ok := ParseDate(fl.Field().String())
		if !ok {
			return false
		}
		now, ok := ctx.Value(nowKey{}).(time.Time)
		if !ok {
			now = time.Now()
		}
		return !date.After(now)
	})

	return &Validator{validate: v}
}

// Validate checks every field of in against its rule at instant now and
// reports all failures at once. Unknown fields never reach this point: the
// strict FormInput type already dropped them. A field that arrived with a
// non-string JSON value gets its format message.
func (v *Validator) Validate(in models.FormInput, now time.Time) Result {
	r := normalize(in)

	errs := v.fieldErrors(r, now)
	for _, field := range in.Mistyped() {
		if errs == nil {
			errs = make(map[string]string)
		}
		errs[field] = message(field, "")
	}
	if len(errs) > 0 {
		return Result{Errors: errs}
	}

	date, _ := ParseDate(r.IncDate)
	return Result{
		Valid: true,
		Data: &models.ValidatedForm{
			Aadhaar:           r.Aadhaar,
			Name:              r.Name,
			Mobile:            r.Mobile,
			Email:             r.Email,
			OTP:               r.OTP,
			PAN:               r.PAN,
			PANName:           r.PANName,
			OrgType:           models.OrgType(r.OrgType),
			IncorporationDate: date,
			Pincode:           r.Pincode,
			City:              r.City,
			State:             r.State,
		},
	}
}

func (v *Validator) fieldErrors(r rules, now time.Time) map[string]string {
	ctx := context.WithValue(context.Background(), nowKey{}, now)
	err := v.validate.StructCtx(ctx, &r)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// Only returned for non-struct input; rules is always a struct.
		return map[string]string{"form": "Invalid form submission"}
	}
	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe.Field(), fe.Tag())
	}
	return out
}

func normalize(in models.FormInput) rules {
	return rules{
		Aadhaar: strings.TrimSpace(in.Aadhaar),
		Name:    strings.TrimSpace(in.Name),
		Mobile:  strings.TrimSpace(in.Mobile),
		Email:   strings.TrimSpace(in.Email),
		OTP:     strings.TrimSpace(in.OTP),
		PAN:     strings.TrimSpace(in.PAN),
		PANName: strings.TrimSpace(in.PANName),
		OrgType: strings.TrimSpace(in.OrgType),
		IncDate: strings.TrimSpace(in.IncDate),
		Pincode: strings.TrimSpace(in.Pincode),
		City:    strings.TrimSpace(in.City),
		State:   strings.TrimSpace(in.State),
	}
}

// localDateTimeLayout is an ISO 8601 date-time without a zone designator.
// Fractional seconds are accepted after it when parsing.
const localDateTimeLayout = "2006-01-02T15:04:05"

// ParseDate accepts a calendar date (YYYY-MM-DD), an RFC 3339 timestamp or a
// date-time without zone. Values without a zone are read as UTC.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range []string{models.DateLayout, time.RFC3339Nano, localDateTimeLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
