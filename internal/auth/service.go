package auth

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/quanlynhankhau/registry-api/internal"
	userDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/user"
)

type UserRepository interface {
	GetByUsername(username string) (*userDatamodel.User, error)
	GetByID(id int64) (*userDatamodel.User, error)
}

// Service authenticates users and mints token pairs.
type Service struct {
	userRepo       UserRepository
	tokenGenerator TokenGeneratorAPI
}

func NewService(userRepo UserRepository, tokenGen TokenGeneratorAPI) *Service {
	return &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
	}
}

// Authenticate validates credentials and returns a token pair. Credential
// failures and unknown users collapse into the same error so login responses
// do not reveal which usernames exist.
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	user, err := s.userRepo.GetByUsername(dto.Username)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if err := VerifyPassword(user.PasswordHash, dto.Password); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if !user.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	return s.issueTokens(user)
}

// RefreshTokens validates a refresh token, re-reads the user and mints a new
// pair. Role and household changes since login take effect here.
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	user, err := s.userRepo.GetByID(claims.UserID())
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidToken
	}
	if !user.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	return s.issueTokens(user)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateAccessToken(tokenString)
}

func (s *Service) issueTokens(user *userDatamodel.User) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(&Claims{
		Username:    user.Username,
		Role:        user.Role,
		HouseholdID: user.HouseholdID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: strconv.FormatInt(user.ID, 10),
		},
	})
	if err != nil {
		return AuthTokens{}, err
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(user.ID)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
