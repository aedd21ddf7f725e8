package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/utils"
)

func TestRegisterCustomer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	accounts := newAccounts(f)

	res, err := accounts.Register(ctx, RegisterInput{Email: " Frank@Example.com ", Password: "pw123456", Phone: "555"})
	require.NoError(t, err)
	assert.Equal(t, "frank@example.com", res.User.Email)
	assert.Equal(t, "frank", res.User.Username)
	assert.Equal(t, model.RoleCustomer, res.Role)
	assert.False(t, res.Pending)

	id, err := utils.ParseAccessToken("test", res.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, id.UserID)
	assert.Equal(t, model.RoleCustomer, id.Role)

	c, err := NewCustomerService(f.store).GetByUserID(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "frank", c.Name)
	assert.Equal(t, "555", c.Phone)

	_, err = accounts.Register(ctx, RegisterInput{Email: "frank@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = accounts.Register(ctx, RegisterInput{Email: "", Password: "x"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLoginAndRefresh(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	accounts := newAccounts(f)
	_, err := accounts.Register(ctx, RegisterInput{Email: "gina@example.com", Password: "secret99"})
	require.NoError(t, err)

	_, err = accounts.Login(ctx, "gina@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = accounts.Login(ctx, "nobody@example.com", "secret99")
	assert.ErrorIs(t, err, ErrUnauthorized)

	login, err := accounts.Login(ctx, "GINA@example.com", "secret99")
	require.NoError(t, err)

	access, err := accounts.RefreshAccess(ctx, login.Refresh.Raw)
	require.NoError(t, err)
	assert.NotEmpty(t, access.Token)

	rotated, err := accounts.Refresh(ctx, login.Refresh.Raw)
	require.NoError(t, err)
	assert.NotEqual(t, login.Refresh.Raw, rotated.Refresh.Raw)

	_, err = accounts.Refresh(ctx, login.Refresh.Raw)
	assert.ErrorIs(t, err, ErrUnauthorized, "rotated token is revoked")

	require.NoError(t, accounts.Logout(ctx, rotated.Refresh.Raw))
	_, err = accounts.RefreshAccess(ctx, rotated.Refresh.Raw)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	accounts := newAccounts(f)

	require.NoError(t, accounts.EnsureAdmin(ctx, "", ""))
	require.NoError(t, accounts.EnsureAdmin(ctx, "root@example.com", "rootpw"))
	require.NoError(t, accounts.EnsureAdmin(ctx, "root@example.com", "rootpw"))

	res, err := accounts.Login(ctx, "root@example.com", "rootpw")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, res.Role)

	require.NoError(t, accounts.EnsureAdmin(ctx, "ann@example.com", ""))
	_, roles, err := accounts.Me(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, model.PrimaryRole(roles))

	assert.ErrorIs(t, accounts.EnsureAdmin(ctx, "new@example.com", ""), ErrValidation)
}

func TestEnsureCustomerForUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	customers := NewCustomerService(f.store)
	u := f.store.addUser("hal@example.com")

	_, err := customers.GetByUserID(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	c1, err := customers.EnsureForUser(ctx, u.ID)
	require.NoError(t, err)
	c2, err := customers.EnsureForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, c1.ID, c2.ID)
	assert.Equal(t, "hal", c1.Name)
	assert.Equal(t, "hal@example.com", c1.Email)

	_, err = customers.EnsureForUser(ctx, 777777)
	assert.ErrorIs(t, err, ErrNotFound)
}
