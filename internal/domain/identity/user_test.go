package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser("Asha", "  Asha@Example.com ", "s3cretpass")
	require.NoError(t, err)

	assert.Equal(t, "asha@example.com", u.Email)
	assert.Equal(t, RoleCustomer, u.Role)
	assert.NotEqual(t, "s3cretpass", u.PasswordHash)
	assert.True(t, u.VerifyPassword("s3cretpass"))
	assert.False(t, u.VerifyPassword("wrong-pass"))
	assert.False(t, u.IsAdmin())
}

func TestNewUser_Validation(t *testing.T) {
	tests := []struct {
		name, uname, email, password string
	}{
		{"empty name", "", "a@b.co", "password1"},
		{"bad email", "A", "not-an-email", "password1"},
		{"short password", "A", "a@b.co", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.uname, tt.email, tt.password)
			assert.Error(t, err)
		})
	}
}

func TestUser_PromoteAndLogin(t *testing.T) {
	u := &User{Role: RoleCustomer}
	u.PromoteToAdmin()
	u.RecordLogin()

	assert.True(t, u.IsAdmin())
	assert.True(t, u.Role.IsValid())
	assert.NotNil(t, u.LastLoginAt)
}
