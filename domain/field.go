package domain

// Field is a profile attribute collected as free text.
type Field string

const (
	FieldGivenName  Field = "given_name"
	FieldFamilyName Field = "family_name"
	FieldAge        Field = "age"
)

// Fields lists the collectable fields in menu order.
var Fields = []Field{FieldGivenName, FieldFamilyName, FieldAge}

func ParseField(s string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

func (f Field) Label() string {
	switch f {
	case FieldGivenName:
		return "given name"
	case FieldFamilyName:
		return "family name"
	case FieldAge:
		return "age"
	default:
		return string(f)
	}
}
