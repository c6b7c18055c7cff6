package user

type Permission string

const (
	// Live map
	PermissionControlRoomView Permission = "control_room.view"
	PermissionControlRoomPush Permission = "control_room.push"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		PermissionControlRoomView,
		PermissionControlRoomPush,
	},
	RoleManager: {
		PermissionControlRoomView,
	},
	RoleEmployee: {},
	RolePending:  {},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}
