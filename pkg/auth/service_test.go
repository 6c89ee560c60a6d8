package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdwly/platform/pkg/database"
	"github.com/jdwly/platform/pkg/notification"
	"github.com/jdwly/platform/pkg/otp"
	"github.com/jdwly/platform/pkg/team"
	"github.com/jdwly/platform/pkg/user"
)

type fixture struct {
	svc      *Service
	users    *user.InMemoryRepository
	codes    *otp.InMemoryRepository
	teams    *team.Service
	notifier *notification.MockNotifier
	manager  *notification.NotificationManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := user.NewInMemoryRepository()
	codes := otp.NewInMemoryRepository()
	teams := team.NewService(team.NewInMemoryRepository())
	notifier := &notification.MockNotifier{}

	manager := notification.NewNotificationManager()
	manager.RegisterNotifier(notification.EmailSystem, notifier)
	for notifType, body := range map[notification.NotificationType]string{
		notification.EmailVerifyNotice:   "Code: {{.OtpCode}}",
		notification.EmailChangeNotice:   "Code: {{.OtpCode}}",
		notification.PasswordResetNotice: "Token: {{.Token}}",
	} {
		require.NoError(t, manager.RegisterNotification(notifType, notification.EmailSystem, "subject", body))
	}

	svc := NewService(
		users,
		teams,
		otp.NewService(codes),
		NewBcryptHasher(bcryptMinCostForTests),
		manager,
		database.NopTransactor{},
	)
	return &fixture{svc: svc, users: users, codes: codes, teams: teams, notifier: notifier, manager: manager}
}

// bcrypt.MinCost keeps the suite fast.
const bcryptMinCostForTests = 4

func registerParams(email string) RegisterParams {
	return RegisterParams{
		Name:     "A",
		Email:    email,
		Password: "P@ssw0rd",
		Timezone: "UTC",
		Locale:   "en",
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesUnverifiedUserAndSendsCode", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.svc.Register(ctx, registerParams("A@X.com")))

		u, err := f.users.GetByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.False(t, u.EmailVerified)
		assert.NotNil(t, u.HashedPassword)
		assert.NotEqual(t, "P@ssw0rd", *u.HashedPassword)

		sent, ok := f.notifier.Last()
		require.True(t, ok)
		assert.Equal(t, "a@x.com", sent.Data.To)
		assert.Contains(t, sent.Body, "Code: ")
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.svc.Register(ctx, registerParams("a@x.com")))
		err := f.svc.Register(ctx, registerParams("a@x.com"))
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("DuplicateRegardlessOfCase", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.svc.Register(ctx, registerParams("a@x.com")))
		err := f.svc.Register(ctx, registerParams("A@X.COM"))
		assert.ErrorIs(t, err, ErrEmailTaken)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("UnverifiedUserCannotLogin", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.Register(ctx, registerParams("a@x.com")))

		_, err := f.svc.Login(ctx, "a@x.com", "P@ssw0rd")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("VerifiedUserWithCorrectPassword", func(t *testing.T) {
		f := newFixture(t)
		f.registerVerified(t, "a@x.com")

		u, err := f.svc.Login(ctx, "a@x.com", "P@ssw0rd")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", u.Email)
	})

	t.Run("IndistinguishableFailures", func(t *testing.T) {
		f := newFixture(t)
		f.registerVerified(t, "a@x.com")

		_, wrongPassword := f.svc.Login(ctx, "a@x.com", "wrong")
		_, absentUser := f.svc.Login(ctx, "b@x.com", "P@ssw0rd")
		assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
		assert.ErrorIs(t, absentUser, ErrInvalidCredentials)
	})
}

func TestSubmitEmailVerification(t *testing.T) {
	ctx := context.Background()

	t.Run("VerifiesAndProvisionsPersonalTeam", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.Register(ctx, registerParams("a@x.com")))
		code := f.lastIssuedCode(t, ctx, "a@x.com")

		result, err := f.svc.SubmitEmailVerification(ctx, "a@x.com", code)
		require.NoError(t, err)

		u, err := f.users.GetByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.True(t, u.EmailVerified)
		assert.Equal(t, u.ID, result.UserID)

		owned, err := f.teams.Get(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, owned, 1)
		assert.Equal(t, team.PersonalTeamName, owned[0].Name)
		assert.True(t, owned[0].IsPersonal)
		assert.Equal(t, owned[0].ID, result.TeamID)
	})

	t.Run("CodeIsSingleUse", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.Register(ctx, registerParams("a@x.com")))
		code := f.lastIssuedCode(t, ctx, "a@x.com")

		_, err := f.svc.SubmitEmailVerification(ctx, "a@x.com", code)
		require.NoError(t, err)

		_, err = f.svc.SubmitEmailVerification(ctx, "a@x.com", code)
		assert.ErrorIs(t, err, otp.ErrNoActiveCode)
	})

	t.Run("WrongCode", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.Register(ctx, registerParams("a@x.com")))

		_, err := f.svc.SubmitEmailVerification(ctx, "a@x.com", "000000")
		assert.ErrorIs(t, err, otp.ErrCodeMismatch)
	})
}

func TestRequestEmailVerification(t *testing.T) {
	ctx := context.Background()

	t.Run("ReissuesForUnverifiedUser", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.Register(ctx, registerParams("a@x.com")))

		require.NoError(t, f.svc.RequestEmailVerification(ctx, "a@x.com"))
		second := f.lastIssuedCode(t, ctx, "a@x.com")

		result, err := f.svc.SubmitEmailVerification(ctx, "a@x.com", second)
		require.NoError(t, err)
		assert.NotZero(t, result.UserID)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.RequestEmailVerification(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("AlreadyVerified", func(t *testing.T) {
		f := newFixture(t)
		f.registerVerified(t, "a@x.com")

		err := f.svc.RequestEmailVerification(ctx, "a@x.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("FullFlow", func(t *testing.T) {
		f := newFixture(t)
		f.registerVerified(t, "a@x.com")

		require.NoError(t, f.svc.RequestPasswordReset(ctx, "a@x.com"))
		token := f.lastResetToken(t)

		require.NoError(t, f.svc.SubmitPasswordReset(ctx, "a@x.com", token, "NewP@ss1"))

		_, err := f.svc.Login(ctx, "a@x.com", "P@ssw0rd")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = f.svc.Login(ctx, "a@x.com", "NewP@ss1")
		assert.NoError(t, err)
	})

	t.Run("TokenIsSingleUse", func(t *testing.T) {
		f := newFixture(t)
		f.registerVerified(t, "a@x.com")

		require.NoError(t, f.svc.RequestPasswordReset(ctx, "a@x.com"))
		token := f.lastResetToken(t)

		require.NoError(t, f.svc.SubmitPasswordReset(ctx, "a@x.com", token, "NewP@ss1"))
		err := f.svc.SubmitPasswordReset(ctx, "a@x.com", token, "Again1!")
		assert.ErrorIs(t, err, ErrResetTokenNotFound)
	})

	t.Run("UnverifiedUserCannotRequest", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.Register(ctx, registerParams("a@x.com")))

		err := f.svc.RequestPasswordReset(ctx, "a@x.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("BogusToken", func(t *testing.T) {
		f := newFixture(t)
		f.registerVerified(t, "a@x.com")

		err := f.svc.SubmitPasswordReset(ctx, "a@x.com", "bogus", "NewP@ss1")
		assert.ErrorIs(t, err, ErrResetTokenNotFound)
	})
}

// registerVerified registers a user and walks the verification flow.
func (f *fixture) registerVerified(t *testing.T, email string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.svc.Register(ctx, registerParams(email)))
	code := f.lastIssuedCode(t, ctx, email)
	_, err := f.svc.SubmitEmailVerification(ctx, email, code)
	require.NoError(t, err)
}

// lastIssuedCode extracts the most recent verification code from the
// captured notification.
func (f *fixture) lastIssuedCode(t *testing.T, ctx context.Context, email string) string {
	t.Helper()

	sent, ok := f.notifier.Last()
	require.True(t, ok, "no notification was sent")
	require.Equal(t, email, sent.Data.To)
	return sent.Body[len("Code: "):]
}

// lastResetToken extracts the reset token from the captured
// notification.
func (f *fixture) lastResetToken(t *testing.T) string {
	t.Helper()

	sent, ok := f.notifier.Last()
	require.True(t, ok, "no notification was sent")
	return sent.Body[len("Token: "):]
}
