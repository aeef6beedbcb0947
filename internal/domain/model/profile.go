package model

import "time"

// PersonalDetails is the onboarding form content stored in the user document.
type PersonalDetails struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Bio       string `json:"bio"`
	Gender    string `json:"gender"`
	DOB       string `json:"dob"`
	Company   string `json:"company"`
	Role      string `json:"role"`
}

// Merge returns d with every non-empty field of in written over it.
func (d PersonalDetails) Merge(in PersonalDetails) PersonalDetails {
	pick := func(cur, next string) string {
		if next != "" {
			return next
		}
		return cur
	}
	return PersonalDetails{
		FirstName: pick(d.FirstName, in.FirstName),
		LastName:  pick(d.LastName, in.LastName),
		Email:     pick(d.Email, in.Email),
		Phone:     pick(d.Phone, in.Phone),
		Address:   pick(d.Address, in.Address),
		Bio:       pick(d.Bio, in.Bio),
		Gender:    pick(d.Gender, in.Gender),
		DOB:       pick(d.DOB, in.DOB),
		Company:   pick(d.Company, in.Company),
		Role:      pick(d.Role, in.Role),
	}
}

// DetailsPatch is a profile edit. Every non-nil field overwrites the stored
// value, empty strings included; nil fields are left as they are.
type DetailsPatch struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	Bio       *string `json:"bio"`
	Gender    *string `json:"gender"`
	DOB       *string `json:"dob"`
	Company   *string `json:"company"`
	Role      *string `json:"role"`
}

// Apply returns d with the present fields of p written over it.
func (p DetailsPatch) Apply(d PersonalDetails) PersonalDetails {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&d.FirstName, p.FirstName)
	set(&d.LastName, p.LastName)
	set(&d.Email, p.Email)
	set(&d.Phone, p.Phone)
	set(&d.Address, p.Address)
	set(&d.Bio, p.Bio)
	set(&d.Gender, p.Gender)
	set(&d.DOB, p.DOB)
	set(&d.Company, p.Company)
	set(&d.Role, p.Role)
	return d
}

// Profile is the user document kept in the "users" collection.
type Profile struct {
	PersonalDetails PersonalDetails `json:"personalDetails"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Merge applies in on top of p. CreatedAt is kept when already set.
func (p Profile) Merge(in Profile) Profile {
	out := Profile{
		PersonalDetails: p.PersonalDetails.Merge(in.PersonalDetails),
		CreatedAt:       p.CreatedAt,
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = in.CreatedAt
	}
	return out
}

// ProfileWrite is a deferred merge write of personal details.
type ProfileWrite struct {
	UserID  string
	Details PersonalDetails
	// Seq orders writes of one user. Zero means unordered.
	Seq        uint64
	EnqueuedAt time.Time
}
