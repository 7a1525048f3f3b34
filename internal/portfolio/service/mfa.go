package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/store"
	"github.com/dmorocode/portfolio-sistema/pkg/cryptox"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	backupCodeCount = 10

	// totpSkew accepts codes up to two periods either side of now, which
	// tolerates a minute of clock drift on the authenticator device.
	totpSkew = 2

	qrCodeSize = 256
)

var (
	ErrInvalidMFACode    = errors.New("invalid MFA code")
	ErrMFANotEnabled     = errors.New("MFA not enabled for this user")
	ErrMFAAlreadyEnabled = errors.New("MFA already enabled for this user")
	ErrMFANotEnrolled    = errors.New("MFA enrollment not started")
	ErrWrongPassword     = errors.New("wrong password")
)

type MFAService struct {
	Store    store.Store
	Activity *ActivityService
	Issuer   string // shown in the authenticator app, e.g. "Portfolio"
}

// Enroll generates a fresh TOTP secret for the user and returns the
// provisioning material. MFA is not enabled until ConfirmEnrollment
// succeeds; calling Enroll again replaces the pending secret.
func (s *MFAService) Enroll(ctx context.Context, userID string) (domain.MFAEnrollResponse, error) {
	user, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return domain.MFAEnrollResponse{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user.MFAEnabled {
		return domain.MFAEnrollResponse{}, ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Username,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.MFAEnrollResponse{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	qr, err := qrPNG(key)
	if err != nil {
		return domain.MFAEnrollResponse{}, err
	}

	s.Activity.Record(ctx, user.Username, domain.ActionMFASetup, "")

	return domain.MFAEnrollResponse{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		QRCodePNG:       qr,
		Issuer:          s.Issuer,
		Account:         user.Username,
	}, nil
}

// ConfirmEnrollment verifies the first TOTP code against the enrolled
// secret, then enables MFA and swaps in a fresh backup code set in one
// transaction. The plaintext codes are returned exactly once.
func (s *MFAService) ConfirmEnrollment(ctx context.Context, userID, secret, code string) ([]string, error) {
	user, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.MFAEnabled {
		return nil, ErrMFAAlreadyEnabled
	}
	if secret == "" {
		return nil, ErrMFANotEnrolled
	}

	if !validateTOTP(code, secret) {
		return nil, ErrInvalidMFACode
	}

	plaintext := make([]string, backupCodeCount)
	codes := make([]domain.BackupCode, backupCodeCount)
	for i := range codes {
		c, err := cryptox.GenerateBackupCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		plaintext[i] = c
		codes[i] = domain.BackupCode{Code: c}
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().EnableMFA(ctx, userID, secret); err != nil {
			return fmt.Errorf("failed to enable MFA: %w", err)
		}
		if err := tx.BackupCodes().Replace(ctx, userID, codes); err != nil {
			return fmt.Errorf("failed to store backup codes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Activity.Record(ctx, user.Username, domain.ActionMFAEnabled, "")
	return plaintext, nil
}

// VerifyLogin checks a second factor during login. Six digit codes are
// treated as TOTP; eight character codes as single-use backup codes
// (case-insensitive on input, stored uppercase).
func (s *MFAService) VerifyLogin(ctx context.Context, user domain.User, code string) error {
	if !user.MFAEnabled || user.MFASecret == nil {
		return ErrMFANotEnabled
	}

	code = strings.TrimSpace(code)
	switch len(code) {
	case 6:
		if !validateTOTP(code, *user.MFASecret) {
			return ErrInvalidMFACode
		}
		s.Activity.Record(ctx, user.Username, domain.ActionMFAVerified, "totp")
		return nil

	case 8:
		err := s.Store.BackupCodes().MarkUsed(ctx, user.ID, strings.ToUpper(code))
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidMFACode
		}
		if err != nil {
			return fmt.Errorf("failed to consume backup code: %w", err)
		}
		s.Activity.Record(ctx, user.Username, domain.ActionMFAVerified, "backup code")
		return nil

	default:
		return ErrInvalidMFACode
	}
}

// Disable turns MFA off after a fresh password check and drops the
// user's backup codes.
func (s *MFAService) Disable(ctx context.Context, userID, password string) error {
	user, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if !user.MFAEnabled {
		return ErrMFANotEnabled
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return ErrWrongPassword
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().DisableMFA(ctx, userID); err != nil {
			return fmt.Errorf("failed to disable MFA: %w", err)
		}
		if err := tx.BackupCodes().DeleteAll(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete backup codes: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.Activity.Record(ctx, user.Username, domain.ActionMFADisabled, "")
	return nil
}

// BackupCodeStatus reports how many unused codes the user has left.
func (s *MFAService) BackupCodeStatus(ctx context.Context, userID string) (remaining, total int, err error) {
	codes, err := s.Store.BackupCodes().ListByUser(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list backup codes: %w", err)
	}
	for _, c := range codes {
		if !c.Used {
			remaining++
		}
	}
	return remaining, len(codes), nil
}

func validateTOTP(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

func qrPNG(key *otp.Key) (string, error) {
	img, err := key.Image(qrCodeSize, qrCodeSize)
	if err != nil {
		return "", fmt.Errorf("failed to render QR code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
