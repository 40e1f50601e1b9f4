package services

import (
	"context"
	"testing"

	"art-auction/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestAccountService_Register(t *testing.T) {
	tests := []struct {
		name          string
		userName      string
		phone         string
		email         string
		setup         func(f *fixture)
		expectedError error
	}{
		{
			name:     "valid_registration",
			userName: "Ada",
			phone:    "555-0100",
			email:    "ada@example.com",
		},
		{
			name:          "empty_phone",
			userName:      "Ada",
			phone:         "",
			email:         "ada@example.com",
			expectedError: domain.ErrInvalidRequest,
		},
		{
			name:          "empty_email",
			userName:      "Ada",
			phone:         "555-0100",
			email:         "",
			expectedError: domain.ErrInvalidRequest,
		},
		{
			name:     "duplicate_phone",
			userName: "Eve",
			phone:    "555-0100",
			email:    "eve@example.com",
			setup: func(f *fixture) {
				_, err := f.accounts.Register(context.Background(), "Ada", "555-0100", "ada@example.com")
				require.NoError(t, err)
			},
			expectedError: domain.ErrUserExists,
		},
		{
			name:     "duplicate_email",
			userName: "Eve",
			phone:    "555-0101",
			email:    "ada@example.com",
			setup: func(f *fixture) {
				_, err := f.accounts.Register(context.Background(), "Ada", "555-0100", "ada@example.com")
				require.NoError(t, err)
			},
			expectedError: domain.ErrUserExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			user, err := f.accounts.Register(context.Background(), tt.userName, tt.phone, tt.email)
			if tt.expectedError != nil {
				require.ErrorIs(t, err, tt.expectedError)
				return
			}

			require.NoError(t, err)
			require.NotEmpty(t, user.ID)
			require.Equal(t, tt.phone, user.PhoneNumber)
		})
	}
}

func TestAccountService_StartSession_Idempotent(t *testing.T) {
	f := newFixture(t)
	_, err := f.accounts.Register(context.Background(), "Ada", "555-0100", "ada@example.com")
	require.NoError(t, err)

	first, err := f.accounts.StartSession(context.Background(), "555-0100")
	require.NoError(t, err)

	// Starting again while the session is live returns the same session.
	second, err := f.accounts.StartSession(context.Background(), "555-0100")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.ExpiresAt, second.ExpiresAt)
}

func TestAccountService_StartSession_ReplacesExpired(t *testing.T) {
	f := newFixture(t)
	_, err := f.accounts.Register(context.Background(), "Ada", "555-0100", "ada@example.com")
	require.NoError(t, err)

	f.expireSession(t, "555-0100")

	session, err := f.accounts.StartSession(context.Background(), "555-0100")
	require.NoError(t, err)
	require.False(t, session.Expired(session.CreatedAt))
}

func TestAccountService_StartSession_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.accounts.StartSession(context.Background(), "555-9999")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestAccountService_EndSession(t *testing.T) {
	f := newFixture(t)
	f.registerWithSession(t, "555-0100")
	artwork := f.createArtwork(t, "555-0100")

	require.NoError(t, f.accounts.EndSession(context.Background(), "555-0100"))

	// With the session gone, authenticated operations are refused.
	_, err := f.lifecycle.StartAuction(context.Background(), StartAuctionRequest{
		PhoneNumber:   "555-0100",
		ArtworkID:     artwork.ID,
		StartingBid:   100,
		MinimumPrice:  200,
		DurationHours: 1,
	})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	// Ending again is not an error.
	require.NoError(t, f.accounts.EndSession(context.Background(), "555-0100"))
}
