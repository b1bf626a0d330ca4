package domain

import "time"

// AuthAction names the account operation an AuthEvent records.
type AuthAction string

const (
	ActionRegister      AuthAction = "register"
	ActionLogin         AuthAction = "login"
	ActionPasswordReset AuthAction = "password_reset"
)

// AuthEvent is an entry of the login/registration audit log.
type AuthEvent struct {
	UserID    string     `json:"userId"`
	Email     string     `json:"username"`
	FullName  string     `json:"fullName,omitempty"`
	Role      string     `json:"role"`
	Action    AuthAction `json:"action"`
	IPAddress string     `json:"ipAddress,omitempty"`
	At        time.Time  `json:"loginTime"`
}
