package auth

import (
	"net/url"
	"time"
)

// Profile is the signed-in actor as shown in the dashboard header.
type Profile struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	Avatar     string `json:"avatar"`
	IsLoggedIn bool   `json:"isLoggedIn"`
	EmployeeID string `json:"employeeId,omitempty"`
}

// Session is passed explicitly to every service call.
type Session struct {
	ID        string    `json:"id"`
	Profile   Profile   `json:"profile"`
	CompanyID string    `json:"companyId,omitempty"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s Session) Role() Role {
	return s.Profile.Role
}

// Actor identifies the session in audit events.
func (s Session) Actor() string {
	if s.Profile.Email != "" {
		return s.Profile.Email
	}
	return s.Profile.Name
}

// SelfScoped reports whether reads must be narrowed to the actor's own
// employee record.
func (s Session) SelfScoped() bool {
	return s.Profile.Role == RoleEmployee
}

// System is the session used by CLI maintenance commands.
func System() Session {
	return Session{
		ID:      "system",
		Profile: Profile{Name: "system", Email: "system@zenpayroll.local", Role: RoleAdmin, IsLoggedIn: true},
	}
}

func AvatarURL(email string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + url.QueryEscape(email)
}
