package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"social-service/internal/models"
)

func newUserFixture(t *testing.T) (*UserService, *memStore) {
	t.Helper()
	store := newMemStore()
	svc := NewUserService(store, NewBcryptHasher(bcrypt.MinCost), nil)
	svc.now = func() time.Time { return t0 }
	return svc, store
}

func TestRegisterStoresHashedPassword(t *testing.T) {
	svc, store := newUserFixture(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		Email: "Ann@Example.COM", Name: "  Ann  ", Password: "Secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann@example.com", user.Email)
	assert.Equal(t, "Ann", user.Name)
	assert.NotEqual(t, "Secret123", user.Password)
	assert.False(t, user.IsSuperuser)

	stored, err := store.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("Secret123")))
}

func TestRegisterStripsMarkupFromName(t *testing.T) {
	svc, _ := newUserFixture(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		Email: "tom@example.com", Name: "<b>Tom</b> & Jerry<script>alert(1)</script>", Password: "Secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tom & Jerry", user.Name)
}

func TestRegisterPasswordRules(t *testing.T) {
	tests := []struct {
		name     string
		password string
		message  string
	}{
		{"too short", "Ab1", "Ensure this field has at least 8 characters."},
		{"no upper", "secret123", "missing_upper_case"},
		{"no lower", "SECRET123", "missing_lower_case"},
		{"no digit", "SecretPass", "missing_digit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newUserFixture(t)

			_, err := svc.Register(context.Background(), RegisterInput{
				Email: "ann@example.com", Name: "Ann", Password: tt.password,
			})
			require.ErrorIs(t, err, ErrWeakPassword)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, []string{tt.message}, verr.Fields["password"])
		})
	}
}

func TestRegisterReportsEveryBadField(t *testing.T) {
	svc, _ := newUserFixture(t)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "not-an-email"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Enter a valid email address."}, verr.Fields["email"])
	assert.Equal(t, []string{"This field is required."}, verr.Fields["name"])
	assert.Equal(t, []string{"This field is required."}, verr.Fields["password"])
}

func TestRegisterRejectsDuplicateEmailIgnoringCase(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "ann@example.com", Name: "Ann", Password: "Secret123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "ANN@example.com", Name: "Other", Password: "Secret123"})
	require.ErrorIs(t, err, ErrDuplicateEmail)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"user with this email already exists."}, verr.Fields["email"])
}

func TestEnsureSuperuserIsIdempotent(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()
	in := RegisterInput{Email: "admin@example.com", Name: "Admin", Password: "Secret123"}

	admin, created, err := svc.EnsureSuperuser(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, admin.IsSuperuser)
	assert.True(t, admin.IsStaff)

	again, created, err := svc.EnsureSuperuser(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)
}

func TestAuthenticate(t *testing.T) {
	svc, store := newUserFixture(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Email: "ann@example.com", Name: "Ann", Password: "Secret123"})
	require.NoError(t, err)
	assert.Nil(t, registered.LastLogin)

	user, err := svc.Authenticate(ctx, "ann@EXAMPLE.com", "Secret123")
	require.NoError(t, err)
	require.NotNil(t, user.LastLogin)
	assert.Equal(t, t0, *user.LastLogin)

	stored, err := store.GetByID(ctx, registered.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)

	_, err = svc.Authenticate(ctx, "ann@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "Secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSearchExcludesCaller(t *testing.T) {
	svc, store := newUserFixture(t)
	me := store.addUser(1, "Amit", "amit@example.com")
	store.addUser(2, "Amita", "amita@example.com")
	store.addUser(3, "Bob", "AMIT@corp.com")
	store.addUser(4, "Carol", "carol@example.com")

	page := models.Page{Number: 1, Size: 10}
	users, total, err := svc.Search(context.Background(), Actor{UserID: me.ID}, "amit", page)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Amita", users[0].Name)

	users, total, err = svc.Search(context.Background(), Actor{UserID: me.ID}, "amit@corp.com", page)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Bob", users[0].Name)
}

func TestGetByIDMapsNotFound(t *testing.T) {
	svc, _ := newUserFixture(t)

	_, err := svc.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
