package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/velora-shop/storefront-backend/internal/users"
	dbpkg "github.com/velora-shop/storefront-backend/pkg/db"
	"github.com/velora-shop/storefront-backend/pkg/db/models"
	"github.com/velora-shop/storefront-backend/pkg/enums"
	pkgerrors "github.com/velora-shop/storefront-backend/pkg/errors"
	"github.com/velora-shop/storefront-backend/pkg/outbox"
	"github.com/velora-shop/storefront-backend/pkg/outbox/payloads"
	"github.com/velora-shop/storefront-backend/pkg/security"
)

// Register opens a shopper account and queues the verification email. The
// user row and the user.registered outbox event commit together.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if err := s.allow(ctx, "register:email:"+email, s.limits.RegisterEmailLimit, s.limits.RegisterWindow); err != nil {
		return nil, err
	}
	if req.IP != "" {
		if err := s.allow(ctx, "register:ip:"+req.IP, s.limits.RegisterIPLimit, s.limits.RegisterWindow); err != nil {
			return nil, err
		}
	}
	if len(req.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	verificationToken := uuid.NewString()
	var created *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)

		if _, err := repo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := repo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Phone:        req.Phone,
		})
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_users_email") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		created = user

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventUserRegistered,
			AggregateType: enums.AggregateUser,
			AggregateID:   user.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: user.ID},
			Data: payloads.UserRegisteredEvent{
				UserID:            user.ID,
				Email:             user.Email,
				FirstName:         user.FirstName,
				VerificationToken: verificationToken,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.storeVerificationToken(ctx, verificationToken, created.ID)

	dto := users.FromModel(created)
	return &dto, nil
}

// VerifyEmail redeems a verification token. Tokens are single use.
func (s *service) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "verification token required")
	}
	key := s.verifications.VerificationTokenKey(token)
	raw, err := s.verifications.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired verification token")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read verification token")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired verification token")
	}

	if err := s.users.MarkEmailVerified(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark email verified")
	}
	if err := s.verifications.Del(ctx, key); err != nil && s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("verification token cleanup failed: %v", err))
	}
	return nil
}

// ResendVerification issues a fresh token for an unverified account. The
// response is identical whether or not the address exists.
func (s *service) ResendVerification(ctx context.Context, req ResendVerificationRequest) error {
	email := normalizeEmail(req.Email)
	if err := s.allow(ctx, "register:email:"+email, s.limits.RegisterEmailLimit, s.limits.RegisterWindow); err != nil {
		return err
	}
	if req.IP != "" {
		if err := s.allow(ctx, "register:ip:"+req.IP, s.limits.RegisterIPLimit, s.limits.RegisterWindow); err != nil {
			return err
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if user.EmailVerified {
		return nil
	}

	verificationToken := uuid.NewString()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVerificationResent,
			AggregateType: enums.AggregateUser,
			AggregateID:   user.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: user.ID},
			Data: payloads.UserRegisteredEvent{
				UserID:            user.ID,
				Email:             user.Email,
				FirstName:         user.FirstName,
				VerificationToken: verificationToken,
			},
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue verification email")
	}

	s.storeVerificationToken(ctx, verificationToken, user.ID)
	return nil
}

// storeVerificationToken writes the token-to-user mapping with the configured
// TTL. A write failure is logged only; the resend endpoint recovers.
func (s *service) storeVerificationToken(ctx context.Context, token string, userID uuid.UUID) {
	key := s.verifications.VerificationTokenKey(token)
	if err := s.verifications.Set(ctx, key, userID.String(), s.notifyCfg.VerificationTTL); err != nil && s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("storing verification token failed for user %s: %v", userID, err))
	}
}
