package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role       Role
		permission Permission
		want       bool
	}{
		{RoleOwner, PermissionControlRoomView, true},
		{RoleOwner, PermissionControlRoomPush, true},
		{RoleManager, PermissionControlRoomView, true},
		{RoleManager, PermissionControlRoomPush, false},
		{RoleEmployee, PermissionControlRoomView, false},
		{RolePending, PermissionControlRoomView, false},
		{Role("auditor"), PermissionControlRoomView, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.permission), func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.role, tt.permission))
		})
	}
}

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleManager.IsValid())
	assert.False(t, Role("").IsValid())
}
