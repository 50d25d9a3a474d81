// internal/models/permissions.go
package models

// RoleManager unlocks every stock action.
const RoleManager = "Manager"

type PermissionsUser struct {
	UserUID  string `json:"user_uid"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// Permissions is what the backend grants the signed-in user.
type Permissions struct {
	User        PermissionsUser `json:"user"`
	Permissions []string        `json:"permissions"`
}

func (p *Permissions) IsManager() bool {
	return p != nil && p.User.Role == RoleManager
}

// Has reports whether permission was granted explicitly.
func (p *Permissions) Has(permission string) bool {
	if p == nil {
		return false
	}
	for _, granted := range p.Permissions {
		if granted == permission {
			return true
		}
	}
	return false
}
