package auth_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quanlynhankhau/registry-api/internal"
	"github.com/quanlynhankhau/registry-api/internal/auth"
	userDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/user"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Suite")
}

type mockUserRepository struct {
	usersByName map[string]*userDatamodel.User
	usersByID   map[int64]*userDatamodel.User
}

func newMockUserRepository(users ...*userDatamodel.User) *mockUserRepository {
	repo := &mockUserRepository{
		usersByName: make(map[string]*userDatamodel.User),
		usersByID:   make(map[int64]*userDatamodel.User),
	}
	for _, u := range users {
		repo.usersByName[u.Username] = u
		repo.usersByID[u.ID] = u
	}
	return repo
}

func (m *mockUserRepository) GetByUsername(username string) (*userDatamodel.User, error) {
	u, exists := m.usersByName[username]
	if !exists {
		return nil, internal.ErrInvalidCredentials
	}
	return u, nil
}

func (m *mockUserRepository) GetByID(id int64) (*userDatamodel.User, error) {
	u, exists := m.usersByID[id]
	if !exists {
		return nil, internal.ErrInvalidToken
	}
	return u, nil
}

func newTokenGenerator() *auth.JWTTokenGenerator {
	return auth.NewJWTTokenGenerator(internal.SecurityConfig{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
	})
}

var _ = Describe("JWTTokenGenerator", func() {
	var generator *auth.JWTTokenGenerator

	householdID := int64(7)

	BeforeEach(func() {
		generator = newTokenGenerator()
	})

	It("round-trips access token claims", func() {
		token, err := generator.GenerateAccessToken(&auth.Claims{
			Username:    "ketoan",
			Role:        internal.RoleAccountant,
			HouseholdID: &householdID,
		})
		Expect(err).ToNot(HaveOccurred())

		claims, err := generator.ValidateAccessToken(token)
		Expect(err).ToNot(HaveOccurred())
		Expect(claims.Username).To(Equal("ketoan"))
		Expect(claims.Role).To(Equal(internal.RoleAccountant))
		Expect(*claims.HouseholdID).To(Equal(int64(7)))
	})

	It("does not accept a refresh token on the access path", func() {
		refresh, err := generator.GenerateRefreshToken(1)
		Expect(err).ToNot(HaveOccurred())

		_, err = generator.ValidateAccessToken(refresh)
		Expect(err).To(MatchError(internal.ErrInvalidToken))
	})

	It("does not accept an access token on the refresh path", func() {
		access, err := generator.GenerateAccessToken(&auth.Claims{Username: "ketoan"})
		Expect(err).ToNot(HaveOccurred())

		_, err = generator.ValidateRefreshToken(access)
		Expect(err).To(MatchError(internal.ErrInvalidToken))
	})

	It("rejects garbage tokens", func() {
		_, err := generator.ValidateAccessToken("not.a.token")
		Expect(err).To(MatchError(internal.ErrInvalidToken))
	})

	It("reports expiry distinctly", func() {
		expired := newTokenGenerator()
		expired.AccessTokenTTL = -time.Minute

		token, err := expired.GenerateAccessToken(&auth.Claims{Username: "ketoan"})
		Expect(err).ToNot(HaveOccurred())

		_, err = generator.ValidateAccessToken(token)
		Expect(err).To(MatchError(internal.ErrTokenExpired))
	})
})

var _ = Describe("Service", func() {
	var (
		service *auth.Service
		repo    *mockUserRepository
	)

	householdID := int64(7)

	BeforeEach(func() {
		hash, err := auth.HashPassword("password123", 4)
		Expect(err).ToNot(HaveOccurred())

		repo = newMockUserRepository(
			&userDatamodel.User{
				ID:           1,
				Username:     "ketoan",
				PasswordHash: hash,
				Role:         internal.RoleAccountant,
				IsActive:     true,
			},
			&userDatamodel.User{
				ID:           2,
				Username:     "resident1",
				PasswordHash: hash,
				Role:         internal.RoleResident,
				HouseholdID:  &householdID,
				IsActive:     true,
			},
			&userDatamodel.User{
				ID:           3,
				Username:     "locked",
				PasswordHash: hash,
				Role:         internal.RoleResident,
				IsActive:     false,
			},
		)
		service = auth.NewService(repo, newTokenGenerator())
	})

	Describe("Authenticate", func() {
		It("returns a token pair whose claims carry role and household", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Username: "resident1", Password: "password123"})
			Expect(err).ToNot(HaveOccurred())
			Expect(tokens.AccessToken).ToNot(BeEmpty())
			Expect(tokens.RefreshToken).ToNot(BeEmpty())

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			Expect(err).ToNot(HaveOccurred())
			Expect(claims.UserID()).To(Equal(int64(2)))
			Expect(claims.Role).To(Equal(internal.RoleResident))
			Expect(*claims.HouseholdID).To(Equal(int64(7)))
		})

		It("rejects a wrong password", func() {
			_, err := service.Authenticate(auth.LoginDTO{Username: "ketoan", Password: "wrong"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("rejects an unknown username with the same error as a wrong password", func() {
			_, err := service.Authenticate(auth.LoginDTO{Username: "ghost", Password: "password123"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("rejects an inactive user", func() {
			_, err := service.Authenticate(auth.LoginDTO{Username: "locked", Password: "password123"})
			Expect(err).To(MatchError(internal.ErrUserInactive))
		})

		It("rejects missing credentials before hitting the repository", func() {
			_, err := service.Authenticate(auth.LoginDTO{})
			Expect(err).To(HaveOccurred())
			Expect(err).ToNot(MatchError(internal.ErrInvalidCredentials))
		})
	})

	Describe("RefreshTokens", func() {
		It("re-reads the user so role changes take effect", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Username: "ketoan", Password: "password123"})
			Expect(err).ToNot(HaveOccurred())

			repo.usersByID[1].Role = internal.RoleAdmin

			refreshed, err := service.RefreshTokens(tokens.RefreshToken)
			Expect(err).ToNot(HaveOccurred())

			claims, err := service.ValidateAccessToken(refreshed.AccessToken)
			Expect(err).ToNot(HaveOccurred())
			Expect(claims.Role).To(Equal(internal.RoleAdmin))
		})

		It("rejects a deactivated user at refresh time", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Username: "ketoan", Password: "password123"})
			Expect(err).ToNot(HaveOccurred())

			repo.usersByID[1].IsActive = false

			_, err = service.RefreshTokens(tokens.RefreshToken)
			Expect(err).To(MatchError(internal.ErrUserInactive))
		})

		It("rejects an access token presented as a refresh token", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{Username: "ketoan", Password: "password123"})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.RefreshTokens(tokens.AccessToken)
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})
	})
})
