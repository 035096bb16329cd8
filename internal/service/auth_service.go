package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/rec-ctp-api/internal/models"
	appErrors "github.com/noah-isme/rec-ctp-api/pkg/errors"
	"github.com/noah-isme/rec-ctp-api/pkg/mailer"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	SetResetToken(ctx context.Context, id, tokenHash string, expiry time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Identity describes a verified external identity.
type Identity struct {
	Email    string
	FullName string
}

// IdentityVerifier validates an external ID token and extracts the
// verified identity from it.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	TokenSecret       string
	TokenExpiry       time.Duration
	Issuer            string
	InstitutionDomain string
	ResetTokenTTL     time.Duration
	ResetBaseURL      string
}

// AuthService provides authentication use cases.
type AuthService struct {
	repo      authUserRepository
	verifier  IdentityVerifier
	notifier  mailer.Notifier
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance. The verifier and
// notifier may be nil; the corresponding flows then report upstream
// failures or skip notifications.
func NewAuthService(repo authUserRepository, verifier IdentityVerifier, notifier mailer.Notifier, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{repo: repo, verifier: verifier, notifier: notifier, validator: validate, logger: logger, config: config}
}

// Register creates a self-service account. Accounts inside the
// institution email domain are approved immediately; anyone else waits
// for an admin.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "an account with this email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}

	user := &models.User{
		Email:          strings.ToLower(req.Email),
		PasswordHash:   string(hash),
		FullName:       req.FullName,
		Role:           role,
		Department:     req.Department,
		RegisterNumber: req.RegisterNumber,
		Approved:       s.insideInstitutionDomain(req.Email),
		Active:         true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}

	s.recordAudit(ctx, &user.ID, models.AuditActionRegister, "auth", &user.ID, []byte(`{"status":"registered"}`), "", "")
	s.notify(user.Email, "Welcome to the Credit Transfer Portal", mailer.WelcomeBody(user.FullName, user.Approved))

	if !user.Approved {
		return &models.AuthResponse{
			IssuedAt:        time.Now().UTC(),
			User:            userInfo(user),
			PendingApproval: true,
		}, nil
	}

	return s.issueToken(user)
}

// Login authenticates a user and returns an issued token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if user.GoogleAccount {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "this account signs in with Google")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}
	if !user.Approved {
		return nil, appErrors.Clone(appErrors.ErrPendingApproval, "account is awaiting admin approval")
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}
	s.recordAudit(ctx, &user.ID, models.AuditActionLogin, "auth", &user.ID, []byte(`{"status":"success"}`), req.IP, req.UserAgent)

	return s.issueToken(user)
}

// GoogleLogin authenticates with a verified external ID token. Unknown
// emails are not rejected; the response asks the client to complete
// registration with the verified identity.
func (s *AuthService) GoogleLogin(ctx context.Context, req models.GoogleLoginRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid google login payload")
	}

	identity, err := s.verifyIdentity(ctx, req.IDToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByEmail(ctx, identity.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.AuthResponse{
				IssuedAt:             time.Now().UTC(),
				RegistrationRequired: true,
				VerifiedEmail:        identity.Email,
				VerifiedName:         identity.FullName,
			}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}
	if !user.Approved {
		return nil, appErrors.Clone(appErrors.ErrPendingApproval, "account is awaiting admin approval")
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}
	s.recordAudit(ctx, &user.ID, models.AuditActionLogin, "auth", &user.ID, []byte(`{"provider":"google"}`), "", "")

	return s.issueToken(user)
}

// GoogleRegister creates an account backed by a verified external
// identity. The email always comes from the token, never the payload.
func (s *AuthService) GoogleRegister(ctx context.Context, req models.GoogleRegisterRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid google registration payload")
	}

	identity, err := s.verifyIdentity(ctx, req.IDToken)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, identity.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "an account with this email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing account")
	}

	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}

	user := &models.User{
		Email:          strings.ToLower(identity.Email),
		FullName:       identity.FullName,
		Role:           role,
		Department:     req.Department,
		RegisterNumber: req.RegisterNumber,
		Approved:       s.insideInstitutionDomain(identity.Email),
		GoogleAccount:  true,
		Active:         true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}

	s.recordAudit(ctx, &user.ID, models.AuditActionRegister, "auth", &user.ID, []byte(`{"provider":"google"}`), "", "")
	s.notify(user.Email, "Welcome to the Credit Transfer Portal", mailer.WelcomeBody(user.FullName, user.Approved))

	if !user.Approved {
		return &models.AuthResponse{
			IssuedAt:        time.Now().UTC(),
			User:            userInfo(user),
			PendingApproval: true,
		}, nil
	}

	return s.issueToken(user)
}

// ChangePassword changes the password for the given user ID.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change password payload")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if user.GoogleAccount {
		return appErrors.Clone(appErrors.ErrForbidden, "password is managed by the external provider")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrForbidden, "old password does not match")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	if err := s.repo.UpdatePassword(ctx, userID, string(newHash), time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}

	s.recordAudit(ctx, &userID, models.AuditActionPasswordChange, "auth", &userID, []byte(`{"status":"changed"}`), "", "")
	return nil
}

// ForgotPassword initiates the reset flow. The response is identical
// whether or not the email exists so the endpoint cannot be used to
// enumerate accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid forgot password payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if user.GoogleAccount || !user.Active {
		return nil
	}

	rawToken, err := generateResetToken()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reset token")
	}

	expiry := time.Now().UTC().Add(s.config.ResetTokenTTL)
	if err := s.repo.SetResetToken(ctx, user.ID, hashResetToken(rawToken), expiry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store reset token")
	}

	s.recordAudit(ctx, &user.ID, models.AuditActionPasswordReset, "auth", &user.ID, []byte(`{"status":"requested"}`), "", "")
	s.notify(user.Email, "Password reset request", mailer.ResetPasswordBody(s.config.ResetBaseURL, rawToken))
	return nil
}

// ResetPassword completes the reset flow by consuming the raw token and
// issues a fresh bearer token so the caller is signed in immediately.
func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset password payload")
	}

	user, err := s.repo.FindByResetTokenHash(ctx, hashResetToken(req.Token), time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidResetToken, "reset token is invalid or expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up reset token")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, string(newHash), time.Now().UTC()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	if err := s.repo.ClearResetToken(ctx, user.ID); err != nil {
		s.logger.Warn("failed to clear consumed reset token", zap.Error(err))
	}

	s.recordAudit(ctx, &user.ID, models.AuditActionPasswordReset, "auth", &user.ID, []byte(`{"status":"completed"}`), "", "")
	return s.issueToken(user)
}

// Me returns the profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	info := userInfo(user)
	return &info, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) verifyIdentity(ctx context.Context, idToken string) (*Identity, error) {
	if s.verifier == nil {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "google sign-in is not configured")
	}
	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "could not verify google identity")
	}
	return identity, nil
}

func (s *AuthService) insideInstitutionDomain(email string) bool {
	if s.config.InstitutionDomain == "" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(email), "@"+strings.ToLower(s.config.InstitutionDomain))
}

func (s *AuthService) issueToken(user *models.User) (*models.AuthResponse, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.TokenExpiry)
	claims := &models.JWTClaims{
		UserID:   user.ID,
		Role:     user.Role,
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.TokenSecret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}

	return &models.AuthResponse{
		Token:     signed,
		ExpiresIn: int64(s.config.TokenExpiry.Seconds()),
		IssuedAt:  issuedAt,
		User:      userInfo(user),
	}, nil
}

func (s *AuthService) recordAudit(ctx context.Context, userID *string, action, resource string, resourceID *string, newValues []byte, ip, userAgent string) {
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		NewValues:  newValues,
		IPAddress:  ip,
		UserAgent:  userAgent,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *AuthService) notify(to, subject, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(to, subject, body); err != nil {
		s.logger.Warn("failed to send notification email", zap.String("to", to), zap.Error(err))
	}
}

func userInfo(user *models.User) models.UserInfo {
	return models.UserInfo{
		ID:             user.ID,
		Email:          user.Email,
		FullName:       user.FullName,
		Role:           user.Role,
		Department:     user.Department,
		RegisterNumber: user.RegisterNumber,
	}
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
