package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/identity"
	"github.com/propshare/backend/internal/domain/shared"
	"github.com/propshare/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthService handles investor registration and authentication
type AuthService struct {
	investorRepo identity.InvestorRepository
	jwtService   *auth.JWTService
	blacklist    auth.TokenBlacklist
	logger       *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	investorRepo identity.InvestorRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		investorRepo: investorRepo,
		jwtService:   jwtService,
		blacklist:    blacklist,
		logger:       logger,
	}
}

// Register creates a new investor account and returns an access token
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	investor, err := identity.NewInvestor(input.Email, input.Password, input.DisplayName)
	if err != nil {
		return nil, err
	}

	if err := s.investorRepo.Create(ctx, investor); err != nil {
		if err == shared.ErrAlreadyExists {
			return nil, shared.NewDomainError("EMAIL_TAKEN", "An account with this email already exists")
		}
		return nil, err
	}

	s.logger.Info("Investor registered",
		zap.String("investor_id", investor.ID.String()))

	return s.issueToken(investor)
}

// Login authenticates an investor and returns an access token
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	investor, err := s.investorRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if err == shared.ErrNotFound {
			s.logger.Warn("Login attempt for unknown email")
			return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
		}
		return nil, err
	}

	if !investor.CanLogin() {
		s.logger.Warn("Login attempt for inactive account",
			zap.String("investor_id", investor.ID.String()),
			zap.String("status", string(investor.Status)))
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
	}

	if !investor.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt",
			zap.String("investor_id", investor.ID.String()))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	investor.RecordLoginSuccess()
	if err := s.investorRepo.Save(ctx, investor); err != nil {
		// Login tracking is best-effort
		s.logger.Error("Failed to record login", zap.Error(err))
	}

	s.logger.Info("Investor logged in",
		zap.String("investor_id", investor.ID.String()))

	return s.issueToken(investor)
}

// Logout revokes the presented token until its natural expiry
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if s.blacklist == nil || input.TokenJTI == "" {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, input.TokenTTL); err != nil {
		s.logger.Error("Failed to blacklist token", zap.Error(err))
		return err
	}
	return nil
}

// GetProfile returns the authenticated investor's account info
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*InvestorInfo, error) {
	investor, err := s.investorRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &InvestorInfo{
		ID:          investor.ID,
		Email:       investor.Email,
		DisplayName: investor.DisplayName,
	}, nil
}

func (s *AuthService) issueToken(investor *identity.Investor) (*AuthResult, error) {
	token, err := s.jwtService.GenerateAccessToken(investor.ID, investor.Email)
	if err != nil {
		s.logger.Error("Failed to generate access token", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate access token")
	}
	return &AuthResult{
		AccessToken: token.Token,
		ExpiresAt:   token.ExpiresAt,
		TokenType:   token.TokenType,
		Investor: InvestorInfo{
			ID:          investor.ID,
			Email:       investor.Email,
			DisplayName: investor.DisplayName,
		},
	}, nil
}
