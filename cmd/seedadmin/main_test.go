package main

import (
	"testing"

	"inventory-backend/internal/auth"
	"inventory-backend/internal/config"
	"inventory-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdmin_Idempotent(t *testing.T) {
	db := testutil.OpenDB(t)
	seed := config.AdminSeed{Username: "admin", Password: "Admin123!", Name: "System Admin", Email: "admin@inventory.local"}

	user, created, err := ensureAdmin(db, seed)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, user.IsAdmin)
	assert.True(t, auth.VerifyPassword("Admin123!", user.PasswordHash))

	again, created, err := ensureAdmin(db, seed)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)
}
