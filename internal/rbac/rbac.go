package rbac

// Role constants
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleOperator = "operator"
)

// AllRoles in grant-precedence order.
var AllRoles = []string{RoleAdmin, RoleManager, RoleOperator}

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
