package domain

import "time"

// Principal is an authenticated user identity issued by the external
// identity provider (Google). The ID is the provider's stable subject id;
// nothing in this system ever mutates a Principal.
type Principal struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Profile is the application-owned user record keyed by Principal.ID.
// Name, Email, and AvatarURL mirror the provider and are refreshed on every
// sign-in. Nickname and Birthday are entered by the user during registration
// and must survive repeat sign-ins.
type Profile struct {
	ID        string
	Name      string
	Email     string
	AvatarURL string
	Nickname  string
	Birthday  *time.Time // calendar date, time part ignored
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Registered reports whether the user has completed the one-time
// registration step that fills in the nickname.
func (p Profile) Registered() bool {
	return p.Nickname != ""
}

// DisplayName returns the name shown to other users: the self-chosen
// nickname when set, otherwise the provider name, otherwise the raw id.
// Falling back to the id keeps name resolution total — every input id
// yields exactly one deterministic output.
func (p Profile) DisplayName() string {
	if p.Nickname != "" {
		return p.Nickname
	}
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}
