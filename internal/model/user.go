package model

// User mirrors the Users table in the User database.  RefreshToken is
// single-valued: issuing a new one overwrites (and thereby invalidates) the
// previous one.  RefreshTokenExpiry is epoch milliseconds.
type User struct {
	ID                 int64  `json:"id"`
	UserName           string `json:"username"`
	FullName           string `json:"fullname"`
	MachineName        string `json:"machinename"`
	Team               string `json:"team"`
	Role               string `json:"role"`
	PasswordHash       string `json:"-"`
	RefreshToken       string `json:"-"`
	RefreshTokenExpiry int64  `json:"-"`
	CreatedAt          string `json:"created_at"`
	LastLoginAt        string `json:"last_login_at"`
	IsActive           bool   `json:"is_active"`
}

// Roles accepted by the Users table CHECK constraint.
const (
	RoleEngineer = "Engineer"
	RoleAdmin    = "Admin"
	RoleManager  = "Manager"
	RoleUser     = "User"
)

// UserInput is the admin create-user body.  The initial password is the
// machine name; users are expected to change it on first login.
type UserInput struct {
	UserName    string `json:"username"`
	FullName    string `json:"fullname"`
	MachineName string `json:"machinename"`
	Team        string `json:"team"`
	Role        string `json:"role"`
}
