package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/session"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/repository"
	"storefront/internal/testutil"
	auth "storefront/internal/usecase/auth_usecase"
	"storefront/internal/validator"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqIDs struct{ ids []string }

func (g *seqIDs) NewID() string {
	id := g.ids[0]
	g.ids = g.ids[1:]
	return id
}

type authEnv struct {
	db       *gorm.DB
	mr       *miniredis.Miniredis
	users    repository.UserRepository
	sessions *session.RedisStore
	clock    fixedClock

	register *auth.RegisterUserUsecase
	login    *auth.LoginUsecase
	logout   *auth.LogoutUsecase
	profile  *auth.ProfileUsecase
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	users := infraRepo.NewUserGormRepository(db)
	sessions := session.NewRedisStore(client, time.Hour)
	v := validator.NewAuthValidator(users)
	hasher := auth.NewBcryptPasswordHasher(bcrypt.MinCost)
	clock := fixedClock{t: time.Now().Truncate(time.Second)}

	return &authEnv{
		db:       db,
		mr:       mr,
		users:    users,
		sessions: sessions,
		clock:    clock,
		register: auth.NewRegisterUserUsecase(users, v, hasher, clock),
		login: auth.NewLoginUsecase(users, sessions, v, auth.NewBcryptPasswordVerifier(),
			auth.NewJWTIssuer(testSecret, 15*time.Minute), &seqIDs{ids: []string{"sid-1", "sid-2"}}, clock),
		logout:  auth.NewLogoutUsecase(users, sessions),
		profile: auth.NewProfileUsecase(users, v, hasher, clock),
	}
}

func (env *authEnv) mustRegister(t *testing.T, email string) auth.UserDTO {
	t.Helper()
	out, err := env.register.Execute(context.Background(), auth.RegisterUserInput{
		Name: "Alice", Email: email, Password: "s3cure-pass",
	})
	require.NoError(t, err)
	return out.User
}

// =====================
// Register
// =====================

func TestRegister_Success(t *testing.T) {
	env := newAuthEnv(t)

	u := env.mustRegister(t, "alice@example.com")
	assert.NotZero(t, u.ID)
	assert.Equal(t, "USER", u.Role)
	assert.True(t, u.IsActive)

	stored, err := env.users.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cure-pass", stored.PasswordHash)
	assert.True(t, auth.NewBcryptPasswordVerifier().Verify("s3cure-pass", stored.PasswordHash))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newAuthEnv(t)
	env.mustRegister(t, "alice@example.com")

	_, err := env.register.Execute(context.Background(), auth.RegisterUserInput{
		Name: "Other", Email: "alice@example.com", Password: "another-pass",
	})
	assert.ErrorIs(t, err, validator.ErrEmailAlreadyUsed)
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &model.User{}))
}

// =====================
// Login
// =====================

func TestLogin_IssuesTokenAndSession(t *testing.T) {
	env := newAuthEnv(t)
	u := env.mustRegister(t, "alice@example.com")

	out, side, err := env.login.Execute(context.Background(), auth.LoginInput{Email: "alice@example.com", Password: "s3cure-pass"})
	require.NoError(t, err)

	assert.Equal(t, "sid-1", side.SessionID)
	assert.Equal(t, u.ID, out.User.ID)
	assert.Equal(t, 15*60, out.Token.ExpiresIn)

	//JWTのclaims
	tok, err := jwt.Parse(out.Token.AccessToken, func(*jwt.Token) (interface{}, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, "USER", claims["role"])
	assert.Equal(t, float64(0), claims["tv"])

	//redisにセッション
	s, err := env.sessions.Get(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, s.UserID)
	assert.Equal(t, "Alice", s.DisplayName)

	stored, err := env.users.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.True(t, stored.LastLoginAt.Equal(env.clock.Now()))
}

func TestLogin_Rejects(t *testing.T) {
	env := newAuthEnv(t)
	u := env.mustRegister(t, "alice@example.com")

	_, _, err := env.login.Execute(context.Background(), auth.LoginInput{Email: "alice@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = env.login.Execute(context.Background(), auth.LoginInput{Email: "nobody@example.com", Password: "s3cure-pass"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = env.login.Execute(context.Background(), auth.LoginInput{Email: "", Password: "x"})
	assert.ErrorIs(t, err, validator.ErrInvalidInput)

	require.NoError(t, env.db.Model(&model.User{}).Where("id = ?", u.ID).Update("is_active", false).Error)
	_, _, err = env.login.Execute(context.Background(), auth.LoginInput{Email: "alice@example.com", Password: "s3cure-pass"})
	assert.ErrorIs(t, err, auth.ErrUserInactive)

	//失敗ではセッションを作らない
	assert.Empty(t, env.mr.Keys())
}

// =====================
// Logout
// =====================

func TestLogout_DestroysSessionAndBumpsTokenVersion(t *testing.T) {
	env := newAuthEnv(t)
	u := env.mustRegister(t, "alice@example.com")
	_, side, err := env.login.Execute(context.Background(), auth.LoginInput{Email: "alice@example.com", Password: "s3cure-pass"})
	require.NoError(t, err)

	require.NoError(t, env.logout.Execute(context.Background(), u.ID, side.SessionID))

	_, err = env.sessions.Get(context.Background(), side.SessionID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	stored, err := env.users.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TokenVersion)
}

func TestLogout_Rejects(t *testing.T) {
	env := newAuthEnv(t)

	assert.ErrorIs(t, env.logout.Execute(context.Background(), 0, ""), auth.ErrUnauthorized)
	assert.ErrorIs(t, env.logout.Execute(context.Background(), 999, ""), auth.ErrUnauthorized)
}

// =====================
// Profile
// =====================

func TestProfile_GetAndUpdate(t *testing.T) {
	env := newAuthEnv(t)
	u := env.mustRegister(t, "alice@example.com")

	got, err := env.profile.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	updated, err := env.profile.Update(context.Background(), auth.UpdateProfileInput{
		UserID: u.ID, Name: " Alice B ", Email: "alice.b@example.com", Password: "brand-new-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice B", updated.Name)
	assert.Equal(t, "alice.b@example.com", updated.Email)

	_, _, err = env.login.Execute(context.Background(), auth.LoginInput{Email: "alice.b@example.com", Password: "brand-new-pass"})
	assert.NoError(t, err)
}

func TestProfile_Update_EmailTaken(t *testing.T) {
	env := newAuthEnv(t)
	alice := env.mustRegister(t, "alice@example.com")
	env.mustRegister(t, "bob@example.com")

	_, err := env.profile.Update(context.Background(), auth.UpdateProfileInput{
		UserID: alice.ID, Name: "Alice", Email: "bob@example.com",
	})
	assert.ErrorIs(t, err, validator.ErrEmailAlreadyUsed)
}

func TestProfile_Get_Unknown(t *testing.T) {
	env := newAuthEnv(t)

	_, err := env.profile.Get(context.Background(), 42)
	assert.True(t, errors.Is(err, auth.ErrUnauthorized))
}
