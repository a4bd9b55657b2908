package guards

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/draftmail/internal/models"
	"github.com/pribylovaa/draftmail/mocks"
)

type loggedIn bool

func (l loggedIn) IsLoggedIn() bool { return bool(l) }

func TestAuthenticated(t *testing.T) {
	t.Parallel()

	require.Equal(t, Allow(), Authenticated(loggedIn(true))(context.Background()))

	d := Authenticated(loggedIn(false))(context.Background())
	require.False(t, d.Allow)
	require.Equal(t, LoginPath, d.Redirect)
	require.Equal(t, ReasonUnauthenticated, d.Reason)
}

func TestVerifiedEmail(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		profile models.UserProfile
		err     error
		want    Decision
	}{
		{name: "verified", profile: models.UserProfile{ID: 1, IsVerified: true}, want: Allow()},
		{name: "unverified", profile: models.UserProfile{ID: 1}, want: RedirectTo(LoginPath, ReasonVerificationRequired)},
		{name: "fetch error", err: errors.New("unauthenticated"), want: RedirectTo(LoginPath, ReasonProfileUnavailable)},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			f := mocks.NewMockProfileFetcher(ctrl)
			f.EXPECT().Profile(gomock.Any()).Return(tc.profile, tc.err)

			require.Equal(t, tc.want, VerifiedEmail(f)(context.Background()))
		})
	}
}

func TestSequence_AnonymousNeverHitsNetwork(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	f := mocks.NewMockProfileFetcher(ctrl)
	// EXPECT не задан: вызов Profile провалит тест.

	g := Sequence(Authenticated(loggedIn(false)), VerifiedEmail(f))
	d := g(context.Background())
	require.Equal(t, ReasonUnauthenticated, d.Reason)
}

func TestSequence_AllAllow(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	f := mocks.NewMockProfileFetcher(ctrl)
	f.EXPECT().Profile(gomock.Any()).Return(models.UserProfile{IsVerified: true}, nil)

	g := Sequence(Authenticated(loggedIn(true)), VerifiedEmail(f))
	require.True(t, g(context.Background()).Allow)

	require.True(t, Sequence()(context.Background()).Allow)
}
