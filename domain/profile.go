package domain

import "time"

// UserProfile is the persisted identity collected during verification.
// Verified is monotonic: nothing in this module ever resets it to false.
type UserProfile struct {
	ID         UserID
	Username   string
	Phone      string
	GivenName  string
	FamilyName string
	Age        *int
	JoinedAt   time.Time
	Verified   bool
	VerifiedAt *time.Time
}

func (p UserProfile) HasPhone() bool {
	return p.Phone != ""
}

// ProfileUpdate carries the fields to overwrite; nil fields are left untouched.
type ProfileUpdate struct {
	Username   *string
	Phone      *string
	GivenName  *string
	FamilyName *string
	Age        *int
}

// Apply writes the non-nil fields of u onto p.
func (u ProfileUpdate) Apply(p *UserProfile) {
	if u.Username != nil {
		p.Username = *u.Username
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.GivenName != nil {
		p.GivenName = *u.GivenName
	}
	if u.FamilyName != nil {
		p.FamilyName = *u.FamilyName
	}
	if u.Age != nil {
		age := *u.Age
		p.Age = &age
	}
}

// MarkVerified sets the verified flag once; a second call keeps the first timestamp.
func (p *UserProfile) MarkVerified(at time.Time) {
	if p.Verified {
		return
	}
	at = at.UTC()
	p.Verified = true
	p.VerifiedAt = &at
}
