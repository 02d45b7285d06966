package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

type qrTokenService interface {
	IssueQR(accountID string) (string, time.Time, error)
	VerifyQR(tokenString, accountID string) (*models.JWTClaims, error)
}

type qrRenderer interface {
	DataURL(payload string) (string, error)
}

type scanGuard interface {
	Acquire(ctx context.Context, accountID string, window time.Duration) (bool, error)
	Release(ctx context.Context, accountID string) error
}

type staffRecorder interface {
	ApplyStaffTransition(ctx context.Context, accountID string, action models.AttendanceAction) (*models.StaffTransition, error)
	CurrentStaffRecord(ctx context.Context, accountID string) (*models.StaffAttendanceRecord, error)
}

type scanMetrics interface {
	RecordScan(outcome string)
}

// QRService issues attendance QR codes and processes scans.
type QRService struct {
	accounts   accountLookup
	tokens     qrTokenService
	renderer   qrRenderer
	attendance staffRecorder
	guard      scanGuard
	policy     *AccessPolicy
	debounce   time.Duration
	metrics    scanMetrics
	logger     *zap.Logger
}

// NewQRService constructs a QRService. A nil guard disables scan debouncing.
func NewQRService(accounts accountLookup, tokens qrTokenService, renderer qrRenderer, attendance staffRecorder, guard scanGuard, policy *AccessPolicy, debounce time.Duration, metrics scanMetrics, logger *zap.Logger) *QRService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QRService{
		accounts:   accounts,
		tokens:     tokens,
		renderer:   renderer,
		attendance: attendance,
		guard:      guard,
		policy:     policy,
		debounce:   debounce,
		metrics:    metrics,
		logger:     logger,
	}
}

// Issue renders a QR code for accountID.
func (s *QRService) Issue(ctx context.Context, actor *models.JWTClaims, accountID string) (*models.QRCode, error) {
	if err := s.policy.IssueQR(actor, accountID); err != nil {
		return nil, err
	}
	if _, err := s.activeAccount(ctx, accountID); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.IssueQR(accountID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create QR token")
	}
	payload := BuildQRPayload(accountID, token)
	image, err := s.renderer.DataURL(payload)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to generate QR code")
	}

	s.logger.Info("qr code issued", zap.String("account_id", accountID), zap.String("by", actor.UserID))
	return &models.QRCode{AccountID: accountID, Payload: payload, Image: image, ExpiresAt: expiresAt}, nil
}

// Scan records attendance for the account encoded in payload. A repeated
// scan inside the debounce window returns the current record unchanged.
func (s *QRService) Scan(ctx context.Context, payload string) (*models.ScanResult, error) {
	accountID, token, err := ParseQRPayload(payload)
	if err != nil {
		s.recordScan("invalid")
		return nil, err
	}
	if _, err := s.tokens.VerifyQR(token, accountID); err != nil {
		s.recordScan("unauthorized")
		return nil, err
	}
	if _, err := s.activeAccount(ctx, accountID); err != nil {
		s.recordScan("rejected")
		return nil, err
	}

	if s.guard != nil {
		acquired, err := s.guard.Acquire(ctx, accountID, s.debounce)
		if err != nil {
			s.logger.Warn("scan debounce unavailable", zap.String("account_id", accountID), zap.Error(err))
			acquired = true
		}
		if !acquired {
			record, err := s.attendance.CurrentStaffRecord(ctx, accountID)
			if err != nil {
				return nil, err
			}
			s.recordScan("debounced")
			return &models.ScanResult{Debounced: true, Attendance: record}, nil
		}
	}

	transition, err := s.attendance.ApplyStaffTransition(ctx, accountID, models.ActionAuto)
	if err != nil {
		if s.guard != nil {
			if relErr := s.guard.Release(ctx, accountID); relErr != nil {
				s.logger.Warn("scan debounce release failed", zap.Error(relErr))
			}
		}
		s.recordScan("failed")
		return nil, err
	}

	outcome := "recorded"
	if !transition.Changed {
		outcome = "unchanged"
	}
	s.recordScan(outcome)
	return &models.ScanResult{Action: transition.Action, Changed: transition.Changed, Attendance: transition.Record}, nil
}

func (s *QRService) activeAccount(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Internal(err, "failed to load account")
	}
	if !account.Active {
		return nil, appErrors.ErrInactiveAccount
	}
	return account, nil
}

func (s *QRService) recordScan(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordScan(outcome)
	}
}
