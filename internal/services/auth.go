package services

import (
	"context"
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/requestdata"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"github.com/vjbollavarapu/sitebackend/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"time"
)

type JWTClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, string, *types.AdminUser, error)
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, refreshToken string) error
	ParseAccessToken(tokenString string) (uuid.UUID, string, error)
	EnsureDefaultAdmin(ctx context.Context) error
	GetAccessTTL() time.Duration
}

type authService struct {
	db             *gorm.DB
	log            *logger.Logger
	adminUserRepo  repos.AdminUserRepo
	adminTokenRepo repos.AdminTokenRepo
	jwtSecretKey   string
	accessTTL      time.Duration
	refreshTTL     time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	adminUserRepo repos.AdminUserRepo,
	adminTokenRepo repos.AdminTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:             db,
		log:            log.With("service", "AuthService"),
		adminUserRepo:  adminUserRepo,
		adminTokenRepo: adminTokenRepo,
		jwtSecretKey:   jwtSecretKey,
		accessTTL:      accessTTL,
		refreshTTL:     refreshTTL,
	}
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

func (as *authService) Login(ctx context.Context, email, password string) (string, string, *types.AdminUser, error) {
	user, err := as.adminUserRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return "", "", nil, fmt.Errorf("Error retrieving admin by email: %w", err)
	}
	if user == nil || !user.IsActive {
		return "", "", nil, fmt.Errorf("Invalid credentials")
	}
	if cErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); cErr != nil {
		return "", "", nil, fmt.Errorf("Invalid credentials")
	}

	var accessToken, refreshToken string
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tok, genErr := as.generateAccessToken(user)
		if genErr != nil {
			return fmt.Errorf("Generate access token error: %w", genErr)
		}
		accessToken = tok
		refreshToken = utils.SecureToken()
		adminToken := types.AdminToken{
			ID:           uuid.New(),
			AdminUserID:  user.ID,
			RefreshToken: refreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		if _, ctErr := as.adminTokenRepo.Create(ctx, tx, &adminToken); ctErr != nil {
			return fmt.Errorf("Create admin token error: %w", ctErr)
		}
		now := time.Now()
		return as.adminUserRepo.UpdateFields(ctx, tx, user.ID, map[string]interface{}{
			"last_login_at": now,
			"updated_at":    now,
		})
	})
	if err != nil {
		return "", "", nil, err
	}
	return accessToken, refreshToken, user, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	if refreshToken == "" {
		return "", "", fmt.Errorf("Refresh token required")
	}

	var accessToken, newRefreshToken string
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, ftErr := as.adminTokenRepo.GetByRefreshToken(ctx, tx, refreshToken)
		if ftErr != nil {
			return fmt.Errorf("Error fetching refresh token: %w", ftErr)
		}
		if existing == nil {
			return fmt.Errorf("Invalid refresh token")
		}
		if existing.ExpiresAt.Before(time.Now()) {
			_ = as.adminTokenRepo.Revoke(ctx, tx, existing.ID)
			return fmt.Errorf("Refresh token expired")
		}
		user, uErr := as.adminUserRepo.GetByID(ctx, tx, existing.AdminUserID)
		if uErr != nil {
			return fmt.Errorf("Failed to load admin for refresh: %w", uErr)
		}
		if user == nil || !user.IsActive {
			return fmt.Errorf("Admin not found or inactive")
		}
		tok, genErr := as.generateAccessToken(user)
		if genErr != nil {
			return fmt.Errorf("Failed to generate new access token: %w", genErr)
		}
		accessToken = tok
		newRefreshToken = utils.SecureToken()
		newToken := types.AdminToken{
			ID:           uuid.New(),
			AdminUserID:  user.ID,
			RefreshToken: newRefreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		if _, cErr := as.adminTokenRepo.Create(ctx, tx, &newToken); cErr != nil {
			return fmt.Errorf("Failed to create new admin token: %w", cErr)
		}
		return as.adminTokenRepo.Revoke(ctx, tx, existing.ID)
	})
	if err != nil {
		return "", "", err
	}
	return accessToken, newRefreshToken, nil
}

func (as *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := as.adminTokenRepo.GetByRefreshToken(ctx, tx, refreshToken)
		if err != nil {
			return fmt.Errorf("Error finding refresh token: %w", err)
		}
		if existing == nil {
			return nil
		}
		return as.adminTokenRepo.Revoke(ctx, tx, existing.ID)
	})
}

func (as *authService) ParseAccessToken(tokenString string) (uuid.UUID, string, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, "", fmt.Errorf("Invalid access token")
	}
	adminID, pErr := uuid.Parse(claims.Subject)
	if pErr != nil {
		return uuid.Nil, "", fmt.Errorf("Invalid token subject")
	}
	return adminID, claims.Role, nil
}

// EnsureDefaultAdmin seeds an admin account from ADMIN_EMAIL/ADMIN_PASSWORD
// so a fresh deployment has a way into the dashboard.
func (as *authService) EnsureDefaultAdmin(ctx context.Context) error {
	email := utils.GetEnv("ADMIN_EMAIL", "", as.log)
	password := utils.GetEnv("ADMIN_PASSWORD", "", as.log)
	if email == "" || password == "" {
		as.log.Debug("No default admin configured, skipping seed")
		return nil
	}
	existing, err := as.adminUserRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	hashed, hErr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if hErr != nil {
		return fmt.Errorf("Failed to hash default admin password: %w", hErr)
	}
	_, cErr := as.adminUserRepo.Create(ctx, nil, &types.AdminUser{
		ID:       uuid.New(),
		Email:    email,
		Password: string(hashed),
		Role:     "owner",
		IsActive: true,
	})
	if cErr != nil {
		return fmt.Errorf("Failed to seed default admin: %w", cErr)
	}
	as.log.Info("Seeded default admin", "email", email)
	return nil
}

func (as *authService) generateAccessToken(user *types.AdminUser) (string, error) {
	claims := JWTClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// ContextWithAdmin stores the authenticated admin on the request context in
// the same shape middleware and handlers expect.
func ContextWithAdmin(ctx context.Context, adminID uuid.UUID, tokenString string) context.Context {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		rd = &requestdata.RequestData{}
	}
	rd.AdminID = adminID
	rd.TokenString = tokenString
	return requestdata.WithRequestData(ctx, rd)
}
