package main

import (
	"bytes"
	"context"
	"testing"

	"tutorhub/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccounts struct {
	created  []string
	password map[string]string
	active   map[string]bool
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{password: map[string]string{}, active: map[string]bool{}}
}

func (f *fakeAccounts) CreateAdmin(_ context.Context, name, email, password string) (*model.User, error) {
	f.created = append(f.created, name+"<"+email+">")
	f.password[email] = password
	return &model.User{ID: "65f0c0ffee0000000000abcd", Name: name, Email: email, Role: model.RoleAdmin}, nil
}

func (f *fakeAccounts) SetPasswordByEmail(_ context.Context, email, password string) error {
	f.password[email] = password
	return nil
}

func (f *fakeAccounts) SetActiveByEmail(_ context.Context, email string, active bool) error {
	f.active[email] = active
	return nil
}

func withPassword(t *testing.T, pwd string) {
	t.Helper()
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

func TestCreateAdmin(t *testing.T) {
	withPassword(t, "s3cret-pass")
	accounts := newFakeAccounts()
	var out bytes.Buffer

	err := newApp(accounts, &out).Run([]string{"tutorhub-admin", "create-admin", "--name", "Ada", "--email", "ada@example.com"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Ada<ada@example.com>"}, accounts.created)
	assert.Equal(t, "s3cret-pass", accounts.password["ada@example.com"])
	assert.Contains(t, out.String(), "created admin ada@example.com")
}

func TestResetPassword_EmptyPassword(t *testing.T) {
	withPassword(t, "")
	accounts := newFakeAccounts()

	err := newApp(accounts, &bytes.Buffer{}).Run([]string{"tutorhub-admin", "reset-password", "--email", "ada@example.com"})
	assert.ErrorIs(t, err, errEmptyPassword)
	assert.Empty(t, accounts.password)
}

func TestSetActive(t *testing.T) {
	accounts := newFakeAccounts()
	require.NoError(t, newApp(accounts, &bytes.Buffer{}).Run([]string{"tutorhub-admin", "set-active", "--email", "sam@example.com", "--active=false"}))
	active, ok := accounts.active["sam@example.com"]
	require.True(t, ok)
	assert.False(t, active)

	err := newApp(accounts, &bytes.Buffer{}).Run([]string{"tutorhub-admin", "set-active"})
	assert.Error(t, err)
}
