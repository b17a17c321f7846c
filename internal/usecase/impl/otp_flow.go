package impl

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"console/internal/domain/entity"
	domainerrors "console/internal/domain/errors"
	"console/internal/errors"
	"console/internal/usecase"
)

// requestFunc issues phase 1 of an OTP exchange and returns the challenge.
type requestFunc func(ctx context.Context) (*entity.OTPChallenge, error)

// verifyFunc issues phase 2 with the held continuation token.
type verifyFunc func(ctx context.Context, token, otp string) error

// otpFlow drives the two-phase exchange. The countdown is a 1s-tick task
// owned by the flow; Dispose stops it so nothing updates state after the
// host screen is torn down. The countdown is UX only: the server remains
// authoritative about token expiry.
type otpFlow struct {
	request requestFunc
	verify  verifyFunc
	tick    time.Duration
	logger  *slog.Logger

	mu        sync.Mutex
	state     usecase.FlowState
	challenge *entity.OTPChallenge
	remaining int
	expired   bool
	disposed  bool
	stop      chan struct{}
}

func newOTPFlow(request requestFunc, verify verifyFunc, tick time.Duration, logger *slog.Logger) *otpFlow {
	if tick <= 0 {
		tick = time.Second
	}

	return &otpFlow{
		request: request,
		verify:  verify,
		tick:    tick,
		logger:  logger,
		state:   usecase.StateCollecting,
	}
}

func (f *otpFlow) State() usecase.FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state
}

func (f *otpFlow) Remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.remaining
}

func (f *otpFlow) Expired() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.expired
}

// Begin runs phase 1. The flow moves to AwaitingOTP only when the request
// succeeds and the challenge actually carries a continuation token; a
// reported success without one is surfaced as an error and the flow stays
// in Collecting.
func (f *otpFlow) Begin(ctx context.Context) error {
	f.mu.Lock()
	if f.disposed {
		f.mu.Unlock()

		return errors.WithStack(domainerrors.ErrChallengeMissing)
	}
	if f.state != usecase.StateCollecting {
		f.mu.Unlock()

		return domainerrors.ErrValidationFailed.WrapMessage("a verification is already in progress")
	}
	f.mu.Unlock()

	challenge, err := f.request(ctx)
	if err != nil {
		return err
	}
	if !challenge.Usable() {
		return domainerrors.ErrInvalidResponseShape.WrapMessage("continuation token missing despite reported success")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.disposed {
		return errors.WithStack(domainerrors.ErrChallengeMissing)
	}
	f.challenge = challenge
	f.state = usecase.StateAwaitingOTP
	f.seedCountdownLocked(challenge.ExpiresInSeconds)

	return nil
}

// Resend re-runs phase 1 with the original payload and swaps in the fresh
// token. State does not change; the countdown restarts from the new expiry.
func (f *otpFlow) Resend(ctx context.Context) error {
	f.mu.Lock()
	if f.disposed || f.state != usecase.StateAwaitingOTP {
		f.mu.Unlock()

		return domainerrors.ErrChallengeMissing.WrapMessage("no verification in progress")
	}
	f.mu.Unlock()

	challenge, err := f.request(ctx)
	if err != nil {
		return err
	}
	if !challenge.Usable() {
		return domainerrors.ErrInvalidResponseShape.WrapMessage("continuation token missing despite reported success")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.disposed || f.state != usecase.StateAwaitingOTP {
		return domainerrors.ErrChallengeMissing.WrapMessage("verification was cancelled while resending")
	}
	f.challenge = challenge
	f.seedCountdownLocked(challenge.ExpiresInSeconds)

	return nil
}

// Submit runs phase 2. Once the countdown has expired the call is a local
// no-op error until the user resends or cancels. Server errors that mention
// the OTP are attached to the otp field for inline display.
func (f *otpFlow) Submit(ctx context.Context, otp string) error {
	f.mu.Lock()
	if f.disposed || f.state != usecase.StateAwaitingOTP || !f.challenge.Usable() {
		f.mu.Unlock()

		return domainerrors.ErrChallengeMissing.WrapMessage("no verification in progress, request a new code")
	}
	if f.expired {
		f.mu.Unlock()

		return errors.WithStack(domainerrors.ErrChallengeExpired)
	}
	if otp == "" {
		f.mu.Unlock()

		return domainerrors.NewFieldError("otp", domainerrors.ErrValidationFailed.WrapMessage("otp is required"))
	}
	token := f.challenge.ContinuationToken
	f.mu.Unlock()

	if err := f.verify(ctx, token, otp); err != nil {
		return attachField(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCountdownLocked()
	f.challenge = nil
	f.expired = false
	f.remaining = 0
	f.state = usecase.StateDone

	return nil
}

// Cancel discards the token and OTP and returns to Collecting.
func (f *otpFlow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopCountdownLocked()
	f.challenge = nil
	f.expired = false
	f.remaining = 0
	if f.state == usecase.StateAwaitingOTP {
		f.state = usecase.StateCollecting
	}
}

// Dispose stops the countdown permanently. Hosts call it on teardown.
func (f *otpFlow) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopCountdownLocked()
	f.disposed = true
}

// seedCountdownLocked restarts the ticker task with a fresh budget.
func (f *otpFlow) seedCountdownLocked(seconds int) {
	f.stopCountdownLocked()
	f.remaining = seconds
	f.expired = false

	stop := make(chan struct{})
	f.stop = stop
	go f.runCountdown(stop)
}

func (f *otpFlow) stopCountdownLocked() {
	if f.stop != nil {
		close(f.stop)
		f.stop = nil
	}
}

func (f *otpFlow) runCountdown(stop chan struct{}) {
	ticker := time.NewTicker(f.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if f.countDown() {
				return
			}
		}
	}
}

// countDown decrements the remaining seconds; returns true once the task
// should stop.
func (f *otpFlow) countDown() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.disposed || f.state != usecase.StateAwaitingOTP {
		return true
	}

	f.remaining--
	if f.remaining <= 0 {
		f.remaining = 0
		f.expired = true
		f.logger.Info("OTP countdown reached zero, submission disabled until resend or cancel")

		return true
	}

	return false
}

// attachField binds a server error to the otp field when its message makes
// the target obvious.
func attachField(err error) error {
	var fieldErr *domainerrors.FieldError
	if errors.As(err, &fieldErr) {
		return err
	}

	if field := domainerrors.FieldForMessage(err.Error()); field != "" {
		return domainerrors.NewFieldError(field, err)
	}

	return err
}
