package domain

// AuthUser is the profile-bearing credential returned by the identity
// provider after a successful sign-in.
type AuthUser struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// UserProfile is the persisted per-identity document at users/{uid},
// created on first sign-in if absent, otherwise read through.
type UserProfile struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// ProfileFor derives the initial profile document from a credential.
func ProfileFor(u AuthUser) *UserProfile {
	return &UserProfile{
		UID:         u.UID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
	}
}
