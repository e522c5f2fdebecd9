package domain

const (
	RoleAdmin           = "admin"
	RoleManager         = "manager"
	RoleTechnician      = "technician"
	RoleCustomerService = "customer_service"
)

var Roles = []string{RoleAdmin, RoleManager, RoleTechnician, RoleCustomerService}

func ValidRole(r string) bool {
	for _, x := range Roles {
		if x == r {
			return true
		}
	}
	return false
}

type User struct {
	ID    string `db:"id" json:"id"`
	Email string `db:"email" json:"email"`
	Name  string `db:"name" json:"name"`
	Hash  string `db:"password_hash" json:"-"`
	Role  string `db:"role" json:"role"`
}

// Principal is the authenticated caller of one request.
type Principal struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

func (p Principal) UserID() string   { return p.ID }
func (p Principal) UserRole() string { return p.Role }

func (p Principal) HasRole(roles ...string) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
