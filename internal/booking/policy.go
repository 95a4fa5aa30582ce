package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field is a settable attribute of a reservation or slot.
type Field string

const (
	FieldTitle   Field = "title"
	FieldNote    Field = "note"
	FieldStatus  Field = "status"
	FieldPrivacy Field = "privacy"
)

// Patch is a partial update keyed by field.
type Patch map[Field]string

// Policy is an allow-list of fields with a validator rule for each value.
type Policy struct {
	name  string
	rules map[Field]string
}

var validate = validator.New()

var (
	anyStatus  = fmt.Sprintf("oneof=%s %s %s %s", StatusPending, StatusConfirmed, StatusCancelled, StatusRejected)
	anyPrivacy = fmt.Sprintf("oneof=%s %s %s", PrivacyPublic, PrivacyAnonymous, PrivacyPrivate)
	cancelOnly = fmt.Sprintf("oneof=%s", StatusCancelled)
)

var (
	// OwnerReservationPolicy applies to owners editing their reservation.
	OwnerReservationPolicy = Policy{name: "owner reservation", rules: map[Field]string{
		FieldTitle:  "required,max=200",
		FieldNote:   "max=2000",
		FieldStatus: cancelOnly,
	}}
	// OwnerSlotPolicy applies to owners editing one of their slots.
	OwnerSlotPolicy = Policy{name: "owner slot", rules: map[Field]string{
		FieldStatus: cancelOnly,
	}}
	// AdminReservationPolicy applies to administrators editing any reservation.
	AdminReservationPolicy = Policy{name: "admin reservation", rules: map[Field]string{
		FieldTitle:   "required,max=200",
		FieldNote:    "max=2000",
		FieldStatus:  anyStatus,
		FieldPrivacy: anyPrivacy,
	}}
	// AdminSlotPolicy applies to administrators editing any slot.
	AdminSlotPolicy = Policy{name: "admin slot", rules: map[Field]string{
		FieldStatus: anyStatus,
	}}
)

// Check validates patch against the allow-list and returns a message per
// offending field. An empty result means the patch may be applied.
func (p Policy) Check(patch Patch) map[string]string {
	problems := make(map[string]string)
	if len(patch) == 0 {
		problems["patch"] = "no fields to update"
		return problems
	}

	for field, value := range patch {
		rule, ok := p.rules[field]
		if !ok {
			problems[string(field)] = fmt.Sprintf("field cannot be changed (allowed: %s)", p.allowed())
			continue
		}
		if err := validate.Var(value, rule); err != nil {
			problems[string(field)] = describe(err)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return problems
}

// Allows reports whether field is on the allow-list.
func (p Policy) Allows(field Field) bool {
	_, ok := p.rules[field]
	return ok
}

func (p Policy) allowed() string {
	fields := make([]string, 0, len(p.rules))
	for field := range p.rules {
		fields = append(fields, string(field))
	}
	sort.Strings(fields)
	return strings.Join(fields, ", ")
}

func describe(err error) string {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) || len(vErrs) == 0 {
		return "invalid value"
	}
	fe := vErrs[0]
	switch fe.Tag() {
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "required":
		return "must not be empty"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return "invalid value"
}
