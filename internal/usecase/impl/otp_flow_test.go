package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"console/internal/domain/entity"
	domainerrors "console/internal/domain/errors"
	"console/internal/errors"
	"console/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func staticChallenge(token string, seconds int) requestFunc {
	return func(ctx context.Context) (*entity.OTPChallenge, error) {
		return &entity.OTPChallenge{ContinuationToken: token, ExpiresInSeconds: seconds}, nil
	}
}

func TestOTPFlow_BeginMovesToAwaitingOTP(t *testing.T) {
	flow := newOTPFlow(staticChallenge("tok1", 600), nil, time.Second, discardLogger())
	defer flow.Dispose()

	require.NoError(t, flow.Begin(context.Background()))

	assert.Equal(t, usecase.StateAwaitingOTP, flow.State())
	assert.Equal(t, 600, flow.Remaining())
	assert.False(t, flow.Expired())
}

func TestOTPFlow_SuccessWithoutTokenStaysCollecting(t *testing.T) {
	flow := newOTPFlow(staticChallenge("", 600), nil, time.Second, discardLogger())
	defer flow.Dispose()

	err := flow.Begin(context.Background())

	assert.True(t, errors.Is(err, domainerrors.ErrInvalidResponseShape))
	assert.Equal(t, usecase.StateCollecting, flow.State())
}

func TestOTPFlow_BeginPropagatesRequestError(t *testing.T) {
	request := func(ctx context.Context) (*entity.OTPChallenge, error) {
		return nil, errors.WithStack(domainerrors.ErrInvalidCredentials)
	}
	flow := newOTPFlow(request, nil, time.Second, discardLogger())
	defer flow.Dispose()

	err := flow.Begin(context.Background())

	assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))
	assert.Equal(t, usecase.StateCollecting, flow.State())
}

func TestOTPFlow_ExpiryDisablesSubmitWithoutNetwork(t *testing.T) {
	verifyCalls := 0
	verify := func(ctx context.Context, token, otp string) error {
		verifyCalls++

		return nil
	}
	flow := newOTPFlow(staticChallenge("tok1", 2), verify, 2*time.Millisecond, discardLogger())
	defer flow.Dispose()

	require.NoError(t, flow.Begin(context.Background()))

	require.Eventually(t, flow.Expired, time.Second, time.Millisecond)
	assert.Zero(t, flow.Remaining())

	err := flow.Submit(context.Background(), "123456")
	assert.True(t, errors.Is(err, domainerrors.ErrChallengeExpired))
	assert.Zero(t, verifyCalls, "expired challenges never reach the backend")
	assert.Equal(t, usecase.StateAwaitingOTP, flow.State())
}

func TestOTPFlow_SubmitSuccessMovesToDone(t *testing.T) {
	var gotToken, gotOTP string
	verify := func(ctx context.Context, token, otp string) error {
		gotToken, gotOTP = token, otp

		return nil
	}
	flow := newOTPFlow(staticChallenge("tok1", 600), verify, time.Second, discardLogger())
	defer flow.Dispose()

	require.NoError(t, flow.Begin(context.Background()))
	require.NoError(t, flow.Submit(context.Background(), "123456"))

	assert.Equal(t, usecase.StateDone, flow.State())
	assert.Equal(t, "tok1", gotToken)
	assert.Equal(t, "123456", gotOTP)
	assert.Zero(t, flow.Remaining())
}

func TestOTPFlow_SubmitEmptyOTPIsFieldError(t *testing.T) {
	flow := newOTPFlow(staticChallenge("tok1", 600), nil, time.Second, discardLogger())
	defer flow.Dispose()

	require.NoError(t, flow.Begin(context.Background()))

	err := flow.Submit(context.Background(), "")

	var fieldErr *domainerrors.FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "otp", fieldErr.Field)
	assert.Equal(t, usecase.StateAwaitingOTP, flow.State())
}

func TestOTPFlow_ServerOTPErrorAttachedToField(t *testing.T) {
	verify := func(ctx context.Context, token, otp string) error {
		return domainerrors.ErrInvalidOTP.WrapMessage("The OTP you entered is invalid")
	}
	flow := newOTPFlow(staticChallenge("tok1", 600), verify, time.Second, discardLogger())
	defer flow.Dispose()

	require.NoError(t, flow.Begin(context.Background()))

	err := flow.Submit(context.Background(), "000000")

	var fieldErr *domainerrors.FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "otp", fieldErr.Field)
	assert.Equal(t, usecase.StateAwaitingOTP, flow.State(), "a rejected code keeps the entry screen open")
}

func TestOTPFlow_ResendReplacesTokenAndReseedsCountdown(t *testing.T) {
	tokens := []string{"tok1", "tok2"}
	request := func(ctx context.Context) (*entity.OTPChallenge, error) {
		token := tokens[0]
		tokens = tokens[1:]

		return &entity.OTPChallenge{ContinuationToken: token, ExpiresInSeconds: 600}, nil
	}
	var gotToken string
	verify := func(ctx context.Context, token, otp string) error {
		gotToken = token

		return nil
	}
	flow := newOTPFlow(request, verify, time.Second, discardLogger())
	defer flow.Dispose()

	require.NoError(t, flow.Begin(context.Background()))
	require.NoError(t, flow.Resend(context.Background()))

	assert.Equal(t, usecase.StateAwaitingOTP, flow.State())
	assert.Equal(t, 600, flow.Remaining())

	require.NoError(t, flow.Submit(context.Background(), "123456"))
	assert.Equal(t, "tok2", gotToken)
}

func TestOTPFlow_ResendAfterExpiryReenablesSubmit(t *testing.T) {
	flow := newOTPFlow(staticChallenge("tok1", 1), func(ctx context.Context, token, otp string) error {
		return nil
	}, 2*time.Millisecond, discardLogger())
	defer flow.Dispose()

	require.NoError(t, flow.Begin(context.Background()))
	require.Eventually(t, flow.Expired, time.Second, time.Millisecond)

	require.NoError(t, flow.Resend(context.Background()))
	assert.False(t, flow.Expired())

	// tick is fast but the fresh budget is large enough not to expire here
	require.NoError(t, flow.Submit(context.Background(), "123456"))
	assert.Equal(t, usecase.StateDone, flow.State())
}

func TestOTPFlow_CancelReturnsToCollecting(t *testing.T) {
	flow := newOTPFlow(staticChallenge("tok1", 600), nil, time.Second, discardLogger())
	defer flow.Dispose()

	require.NoError(t, flow.Begin(context.Background()))
	flow.Cancel()

	assert.Equal(t, usecase.StateCollecting, flow.State())
	assert.Zero(t, flow.Remaining())

	err := flow.Submit(context.Background(), "123456")
	assert.True(t, errors.Is(err, domainerrors.ErrChallengeMissing))
}

func TestOTPFlow_ResendOutsideAwaitingOTPRejected(t *testing.T) {
	flow := newOTPFlow(staticChallenge("tok1", 600), nil, time.Second, discardLogger())
	defer flow.Dispose()

	err := flow.Resend(context.Background())

	assert.True(t, errors.Is(err, domainerrors.ErrChallengeMissing))
}

func TestOTPFlow_DisposeFreezesState(t *testing.T) {
	flow := newOTPFlow(staticChallenge("tok1", 600), nil, 2*time.Millisecond, discardLogger())

	require.NoError(t, flow.Begin(context.Background()))
	flow.Dispose()

	before := flow.Remaining()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, before, flow.Remaining())

	err := flow.Begin(context.Background())
	assert.Error(t, err)
}
