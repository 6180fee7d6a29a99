package validator

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mock: UserRepository
// =====================

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) IncrementTokenVersion(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepo) List(ctx context.Context, limit int, offset int) ([]model.User, error) {
	args := m.Called(ctx, limit, offset)
	us, _ := args.Get(0).([]model.User)
	return us, args.Error(1)
}

func (m *mockUserRepo) SetRole(ctx context.Context, userID int64, role model.Role) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

// =====================
// Register
// =====================

func TestAuthValidator_Register_OK(t *testing.T) {
	ctx := context.Background()
	users := new(mockUserRepo)
	users.On("FindByEmail", ctx, "new@example.com").Return(nil, repository.ErrNotFound).Once()

	err := NewAuthValidator(users).ValidateRegister(ctx, "New", " new@example.com ", "s3cure-pass")

	assert.NoError(t, err)
	users.AssertExpectations(t)
}

func TestAuthValidator_Register_Rejects(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name     string
		userName string
		email    string
		password string
		want     error
	}{
		{name: "blank name", userName: " ", email: "a@example.com", password: "s3cure-pass", want: ErrInvalidInput},
		{name: "blank email", userName: "A", email: "", password: "s3cure-pass", want: ErrInvalidInput},
		{name: "bad email", userName: "A", email: "not-an-email", password: "s3cure-pass", want: ErrInvalidEmailFormat},
		{name: "display name email", userName: "A", email: "A <a@example.com>", password: "s3cure-pass", want: ErrInvalidEmailFormat},
		{name: "short password", userName: "A", email: "a@example.com", password: "short", want: ErrPasswordTooShort},
		{name: "weak password", userName: "A", email: "a@example.com", password: "Password123", want: ErrWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := new(mockUserRepo)
			err := NewAuthValidator(users).ValidateRegister(ctx, tc.userName, tc.email, tc.password)
			assert.ErrorIs(t, err, tc.want)
			users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthValidator_Register_EmailTaken(t *testing.T) {
	ctx := context.Background()
	users := new(mockUserRepo)
	users.On("FindByEmail", ctx, "a@example.com").Return(&model.User{ID: 3}, nil).Once()

	err := NewAuthValidator(users).ValidateRegister(ctx, "A", "a@example.com", "s3cure-pass")

	assert.ErrorIs(t, err, ErrEmailAlreadyUsed)
}

func TestAuthValidator_Register_RepoError(t *testing.T) {
	ctx := context.Background()
	dbErr := errors.New("db down")
	users := new(mockUserRepo)
	users.On("FindByEmail", ctx, "a@example.com").Return(nil, dbErr).Once()

	err := NewAuthValidator(users).ValidateRegister(ctx, "A", "a@example.com", "s3cure-pass")

	assert.ErrorIs(t, err, dbErr)
}

// =====================
// Login / Profile
// =====================

func TestAuthValidator_Login(t *testing.T) {
	ctx := context.Background()
	v := NewAuthValidator(new(mockUserRepo))

	assert.NoError(t, v.ValidateLogin(ctx, "a@example.com", "x"))
	assert.ErrorIs(t, v.ValidateLogin(ctx, "", "x"), ErrInvalidInput)
	assert.ErrorIs(t, v.ValidateLogin(ctx, "a@example.com", ""), ErrInvalidInput)
	assert.ErrorIs(t, v.ValidateLogin(ctx, "nope", "x"), ErrInvalidEmailFormat)
}

func TestAuthValidator_Profile(t *testing.T) {
	ctx := context.Background()

	t.Run("own email is fine and empty password keeps the old one", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("FindByEmail", ctx, "a@example.com").Return(&model.User{ID: 7}, nil).Once()

		assert.NoError(t, NewAuthValidator(users).ValidateProfile(ctx, 7, "A", "a@example.com", ""))
	})

	t.Run("email of someone else", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("FindByEmail", ctx, "b@example.com").Return(&model.User{ID: 8}, nil).Once()

		err := NewAuthValidator(users).ValidateProfile(ctx, 7, "A", "b@example.com", "")
		assert.ErrorIs(t, err, ErrEmailAlreadyUsed)
	})

	t.Run("new password is checked", func(t *testing.T) {
		users := new(mockUserRepo)
		err := NewAuthValidator(users).ValidateProfile(ctx, 7, "A", "a@example.com", "12345678")
		assert.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("no user", func(t *testing.T) {
		err := NewAuthValidator(new(mockUserRepo)).ValidateProfile(ctx, 0, "A", "a@example.com", "")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
