package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/duty-roster-api/internal/models"
	appErrors "github.com/noah-isme/duty-roster-api/pkg/errors"
)

type authRepoStub struct {
	members map[string]*models.Member
	tokens  map[string]*models.RefreshToken
	logs    []*models.AuditLog
}

func newAuthRepoStub() *authRepoStub {
	return &authRepoStub{
		members: make(map[string]*models.Member),
		tokens:  make(map[string]*models.RefreshToken),
	}
}

func (a *authRepoStub) addMember(id, email, password string, active bool) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	a.members[id] = &models.Member{
		ID:           id,
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Member " + id,
		Role:         models.RoleMember,
		Present:      true,
		Active:       active,
	}
}

func (a *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	for _, member := range a.members {
		if member.Email == email {
			copied := *member
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (a *authRepoStub) FindByID(ctx context.Context, id string) (*models.Member, error) {
	if member, ok := a.members[id]; ok {
		copied := *member
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (a *authRepoStub) Create(ctx context.Context, member *models.Member) error {
	a.members[member.ID] = member
	return nil
}

func (a *authRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (a *authRepoStub) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	a.tokens[token.Token] = token
	return nil
}

func (a *authRepoStub) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if stored, ok := a.tokens[token]; ok {
		copied := *stored
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (a *authRepoStub) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range a.tokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
			return nil
		}
	}
	return sql.ErrNoRows
}

func (a *authRepoStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func newAuthFixture() (*AuthService, *authRepoStub) {
	repo := newAuthRepoStub()
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "duty-roster-api",
	})
	return svc, repo
}

func TestAuthServiceRegister(t *testing.T) {
	svc, repo := newAuthFixture()

	info, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:     "new@example.com",
		Password:  "secret123",
		FullName:  "New Member",
		DiscordID: "new#0001",
	})
	require.NoError(t, err)
	require.Equal(t, models.RoleMember, info.Role)

	stored := repo.members[info.ID]
	require.NotNil(t, stored)
	require.True(t, stored.Present)
	require.NotEqual(t, "secret123", stored.PasswordHash)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	svc, repo := newAuthFixture()
	repo.addMember("alice", "alice@example.com", "secret123", true)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:     "alice@example.com",
		Password:  "secret123",
		FullName:  "Alice Again",
		DiscordID: "alice#0002",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogin(t *testing.T) {
	svc, repo := newAuthFixture()
	repo.addMember("alice", "alice@example.com", "secret123", true)

	res, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alice@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	require.Equal(t, "alice", res.Member.ID)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.UserID)
	require.Equal(t, models.RoleMember, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc, repo := newAuthFixture()
	repo.addMember("alice", "alice@example.com", "secret123", true)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	svc, repo := newAuthFixture()
	repo.addMember("alice", "alice@example.com", "secret123", false)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alice@example.com",
		Password: "secret123",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	svc, repo := newAuthFixture()
	repo.addMember("alice", "alice@example.com", "secret123", true)

	res, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alice@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: res.RefreshToken,
	})
	require.NoError(t, err)
	require.NotEqual(t, res.RefreshToken, refreshed.RefreshToken)
	require.True(t, repo.tokens[res.RefreshToken].Revoked)

	// The old token cannot be used again.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: res.RefreshToken,
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogoutForeignToken(t *testing.T) {
	svc, repo := newAuthFixture()
	repo.addMember("alice", "alice@example.com", "secret123", true)

	res, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alice@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), res.RefreshToken, "bob", models.LoginRequest{})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	require.False(t, repo.tokens[res.RefreshToken].Revoked)

	require.NoError(t, svc.Logout(context.Background(), res.RefreshToken, "alice", models.LoginRequest{}))
	require.True(t, repo.tokens[res.RefreshToken].Revoked)
}
