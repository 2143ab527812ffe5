// internal/credentials/validator.go
package credentials

import (
	"context"
	"time"

	"github.com/MadhavBytes/AI-job-hunter/internal/common/logger"
	"github.com/MadhavBytes/AI-job-hunter/internal/models"
	"github.com/MadhavBytes/AI-job-hunter/internal/notify"

	"github.com/google/uuid"
)

// Detail strings for the two ways a ConfirmReset leaves the credential
// invalid. The API layer maps them to distinct error responses.
const (
	DetailTokenRejected = "reset token expired, consumed or unknown"
	DetailStillInvalid  = "credentials still invalid after reset"
)

// PlatformAuthenticator performs the actual login check against a job
// platform. Implementations live behind the browser-automation service.
type PlatformAuthenticator interface {
	Authenticate(ctx context.Context, credential models.Credential) (bool, error)
}

// Validator drives the credential state machine:
//
//	unvalidated -> valid | invalid
//	invalid     -> reset_pending -> resolved | abandoned
//
// Validation fails closed: any authenticator error counts as invalid.
type Validator struct {
	auth       PlatformAuthenticator
	tokens     TokenStore
	dispatcher notify.Dispatcher
	logger     logger.Logger
	now        func() time.Time
}

func NewValidator(auth PlatformAuthenticator, tokens TokenStore, dispatcher notify.Dispatcher, log logger.Logger) *Validator {
	return &Validator{
		auth:       auth,
		tokens:     tokens,
		dispatcher: dispatcher,
		logger:     log.WithFields(map[string]interface{}{"component": "credentials"}),
		now:        time.Now,
	}
}

// Validate checks the credential against its platform. On failure it
// issues a reset token and reports reset_pending so the caller can run
// the reset sub-flow.
func (v *Validator) Validate(ctx context.Context, credential models.Credential) (models.CredentialState, error) {
	ok, err := v.auth.Authenticate(ctx, credential)
	if err != nil {
		// Ambiguous outcome counts as a failed validation.
		v.logger.Warn("authenticator error treated as invalid", map[string]interface{}{
			"platform": credential.Platform.String(),
			"error":    err,
		})
		ok = false
	}
	if ok {
		v.logger.Debug("credentials validated", map[string]interface{}{
			"platform": credential.Platform.String(),
		})
		return models.CredentialState{Status: models.CredentialValid}, nil
	}

	return v.IssueReset(ctx, credential)
}

// IssueReset creates a single-use reset token with exactly 24h expiry,
// stores it, and emits a credential_reset notification.
func (v *Validator) IssueReset(ctx context.Context, credential models.Credential) (models.CredentialState, error) {
	token := uuid.New().String()
	expiry := v.now().UTC().Add(ResetTokenTTL)

	if err := v.tokens.Put(ctx, credential.Identity(), token, expiry); err != nil {
		return models.CredentialState{Status: models.CredentialInvalid}, err
	}

	_ = v.dispatcher.Dispatch(ctx, notify.Event{
		Type:      notify.TypeCredentialReset,
		Recipient: credential.Email,
		Priority:  notify.PriorityHigh,
		Metadata: map[string]interface{}{
			"platform":  credential.Platform.String(),
			"expiresAt": expiry.Format(time.RFC3339),
		},
		Timestamp: v.now().UTC(),
	})

	v.logger.Info("reset token issued", map[string]interface{}{
		"platform": credential.Platform.String(),
		"expiry":   expiry.Format(time.RFC3339),
	})

	return models.CredentialState{
		Status:      models.CredentialResetPending,
		ResetToken:  token,
		TokenExpiry: expiry,
	}, nil
}

// ConfirmReset redeems the token and re-runs full validation with the
// updated credential. Token possession alone never resolves the state.
// An expired or unknown token leaves the credential invalid; the caller
// must issue a fresh reset.
func (v *Validator) ConfirmReset(ctx context.Context, credential models.Credential, token string) (models.CredentialState, error) {
	redeemed, err := v.tokens.Consume(ctx, credential.Identity(), token)
	if err != nil {
		return models.CredentialState{Status: models.CredentialInvalid}, err
	}
	if !redeemed {
		v.logger.Warn("reset token rejected", map[string]interface{}{
			"platform": credential.Platform.String(),
		})
		return models.CredentialState{
			Status: models.CredentialInvalid,
			Detail: DetailTokenRejected,
		}, nil
	}

	ok, err := v.auth.Authenticate(ctx, credential)
	if err != nil {
		v.logger.Warn("authenticator error after reset treated as invalid", map[string]interface{}{
			"platform": credential.Platform.String(),
			"error":    err,
		})
		ok = false
	}
	if !ok {
		return models.CredentialState{
			Status: models.CredentialInvalid,
			Detail: DetailStillInvalid,
		}, nil
	}

	return models.CredentialState{Status: models.CredentialResolved}, nil
}
