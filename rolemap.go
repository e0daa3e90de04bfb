package palisade

// RoleMapper maps domain roles to viewer categories. The engine itself is
// role-agnostic: every rule lookup goes through exactly one mapping, so a
// role can never leak into a rule set as if it were a category.
type RoleMapper interface {
	// Category returns the category for a role, or false when the role is
	// unknown. Unknown roles deny; they never raise.
	Category(role string) (Category, bool)
}

// RoleTable is a fixed role→category mapping.
type RoleTable map[string]Category

// Category implements RoleMapper.
func (t RoleTable) Category(role string) (Category, bool) {
	c, ok := t[role]
	return c, ok
}

// DefaultRoleMapper returns the mapping for the school-board roles. The
// empty role maps to CategoryAnyone so anonymous checks work without a
// mapper entry. CategoryOwner is deliberately absent: ownership is a
// property of the request, not of a role.
func DefaultRoleMapper() RoleMapper {
	return RoleTable{
		"":            CategoryAnyone,
		"user":        CategoryAnyone,
		"student":     CategoryAnyone,
		"teacher":     CategoryAnyone,
		"schoolAdmin": CategoryAdmin,
		"superAdmin":  CategorySuperAdmin,
	}
}
