package user

import (
	"context"
	"errors"
	"testing"

	"tutorslot/internal/api"
	"tutorslot/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, name, email, passwordHash, role string) (*User, error) {
	args := m.Called(ctx, name, email, passwordHash, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id int) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func newIssuer(t *testing.T) *auth.Issuer {
	t.Helper()
	i, err := auth.NewIssuer("test-secret")
	require.NoError(t, err)
	return i
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name          string
		req           RegisterRequest
		setupMock     func(*MockRepository)
		expectedError error
	}{
		{
			name: "successful registration",
			req:  RegisterRequest{Name: "Test Tutor", Email: "test@example.com", Password: "password123", Role: "tutor"},
			setupMock: func(m *MockRepository) {
				m.On("EmailExists", mock.Anything, "test@example.com").Return(false, nil)
				m.On("Create", mock.Anything, "Test Tutor", "test@example.com", mock.Anything, "tutor").
					Return(&User{ID: 1, Name: "Test Tutor", Email: "test@example.com", Role: "tutor"}, nil)
			},
		},
		{
			name: "email already exists",
			req:  RegisterRequest{Name: "Test", Email: "existing@example.com", Password: "password123", Role: "student"},
			setupMock: func(m *MockRepository) {
				m.On("EmailExists", mock.Anything, "existing@example.com").Return(true, nil)
			},
			expectedError: ErrEmailExists,
		},
		{
			name: "database error on exists check",
			req:  RegisterRequest{Name: "Test", Email: "test@example.com", Password: "password123", Role: "student"},
			setupMock: func(m *MockRepository) {
				m.On("EmailExists", mock.Anything, "test@example.com").Return(false, errors.New("db down"))
			},
			expectedError: errors.New("db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setupMock(repo)
			svc := NewService(repo, newIssuer(t))

			resp, err := svc.Register(context.Background(), tt.req)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.Equal(t, tt.expectedError.Error(), err.Error())
				assert.Nil(t, resp)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, resp.AccessToken)
				assert.NotEmpty(t, resp.RefreshToken)
				assert.Equal(t, "tutor", resp.User.Role)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Login(t *testing.T) {
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	stored := &User{ID: 3, Email: "s@example.com", PasswordHash: hash, Role: "student"}

	t.Run("valid credentials", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FindByEmail", mock.Anything, "s@example.com").Return(stored, nil)

		resp, err := NewService(repo, newIssuer(t)).Login(context.Background(), LoginRequest{Email: "s@example.com", Password: "password123"})
		require.NoError(t, err)
		assert.Equal(t, 3, resp.User.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FindByEmail", mock.Anything, "s@example.com").Return(stored, nil)

		_, err := NewService(repo, newIssuer(t)).Login(context.Background(), LoginRequest{Email: "s@example.com", Password: "nope"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.ErrorIs(t, err, api.ErrUnauthorized)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FindByEmail", mock.Anything, "x@example.com").Return(nil, ErrUserNotFound)

		_, err := NewService(repo, newIssuer(t)).Login(context.Background(), LoginRequest{Email: "x@example.com", Password: "password123"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestService_Refresh(t *testing.T) {
	issuer := newIssuer(t)
	pair, err := issuer.Issue(3, "s@example.com", "student")
	require.NoError(t, err)

	repo := new(MockRepository)
	repo.On("FindByID", mock.Anything, 3).Return(&User{ID: 3, Email: "s@example.com", Role: "student"}, nil)
	svc := NewService(repo, issuer)

	resp, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.User.ID)

	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefresh)
}
