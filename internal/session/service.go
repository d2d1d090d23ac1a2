package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/holden/retroboard/internal/database/models"
	"github.com/holden/retroboard/internal/metrics"
	"gorm.io/gorm"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidDisplayName = errors.New("display name is required")
	ErrAlreadyLinked      = errors.New("session is already linked to an account")
	ErrInvalidEmail       = errors.New("valid email is required")
	ErrInvalidRole        = errors.New("unknown account role")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAccountNotFound    = errors.New("no account found with that email")
)

// Notifier receives session state changes so connected clients can be
// kept in sync. The realtime hub implements it.
type Notifier interface {
	SessionUpdated(s *models.Session)
}

type nopNotifier struct{}

func (nopNotifier) SessionUpdated(*models.Session) {}

// Service manages the anonymous-first session lifecycle: creation and
// resumption, display-name and team linkage updates, activity tracking,
// and upgrading or linking a session to a permanent account.
type Service struct {
	db       *gorm.DB
	codec    TokenCodec
	notifier Notifier
	rec      metrics.Recorder
}

func NewService(db *gorm.DB, codec TokenCodec, notifier Notifier, rec metrics.Recorder) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Service{db: db, codec: codec, notifier: notifier, rec: rec}
}

type InitializeResult struct {
	Session *models.Session `json:"session"`
	Token   string          `json:"token"`
	IsNew   bool            `json:"is_new"`
}

// Initialize resumes the session behind an existing token, or creates a
// fresh one when the token is absent, invalid, or no longer resolves.
// Resuming bumps the last-active timestamp.
func (s *Service) Initialize(ctx context.Context, existingToken, displayName string) (*InitializeResult, error) {
	if existingToken != "" {
		if id, err := s.codec.Decode(existingToken); err == nil {
			sess, err := s.TouchActivity(ctx, id)
			if err == nil {
				s.rec.SessionResumed()
				return &InitializeResult{Session: sess, Token: existingToken, IsNew: false}, nil
			}
			if !errors.Is(err, ErrSessionNotFound) {
				return nil, err
			}
		}
	}

	sess := &models.Session{
		DisplayName: strings.TrimSpace(displayName),
	}
	if sess.DisplayName == "" {
		sess.DisplayName = anonymousDisplayName()
	}

	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	token, err := s.codec.Encode(sess.ID)
	if err != nil {
		return nil, fmt.Errorf("encoding session token: %w", err)
	}

	s.rec.SessionCreated()
	return &InitializeResult{Session: sess, Token: token, IsNew: true}, nil
}

// ResolveToken maps a bearer token to its live session and records the
// activity. Used by the request middleware on every authenticated call.
func (s *Service) ResolveToken(ctx context.Context, token string) (*models.Session, error) {
	id, err := s.codec.Decode(token)
	if err != nil {
		return nil, err
	}
	return s.TouchActivity(ctx, id)
}

func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var sess models.Session
	if err := s.db.WithContext(ctx).Preload("User").First(&sess, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// UpdateDisplayName renames the session and bumps last-active.
func (s *Service) UpdateDisplayName(ctx context.Context, id uuid.UUID, name string) (*models.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidDisplayName
	}

	sess, err := s.update(ctx, id, map[string]interface{}{"display_name": name})
	if err != nil {
		return nil, err
	}

	s.notifier.SessionUpdated(sess)
	return sess, nil
}

// JoinTeam records a team linkage on the session. Team existence is not
// verified here; the membership manager owns the authoritative join.
func (s *Service) JoinTeam(ctx context.Context, id, teamID uuid.UUID) (*models.Session, error) {
	sess, err := s.update(ctx, id, map[string]interface{}{"team_id": teamID})
	if err != nil {
		return nil, err
	}

	s.notifier.SessionUpdated(sess)
	return sess, nil
}

// TouchActivity bumps the last-active timestamp only.
func (s *Service) TouchActivity(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	return s.update(ctx, id, map[string]interface{}{})
}

// Clear deletes the session. Clearing a session that no longer exists is
// not an error.
func (s *Service) Clear(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&models.Session{}, "id = ?", id).Error
}

// UpgradeToAccount creates a permanent account from the session and links
// the two atomically: either the account exists and the session points at
// it, or neither happened.
func (s *Service) UpgradeToAccount(ctx context.Context, id uuid.UUID, email, displayName, role string) (*models.User, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.UserID != nil {
		return nil, ErrAlreadyLinked
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	switch role {
	case "":
		role = models.RoleMember
	case models.RoleMember, models.RoleAdmin:
	default:
		return nil, ErrInvalidRole
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = sess.DisplayName
	}

	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := models.User{
		Email:       email,
		DisplayName: displayName,
		Role:        role,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return err
		}

		return s.linkSession(tx, sess.ID, user.ID, user.DisplayName)
	})
	if err != nil {
		return nil, err
	}

	sess.UserID = &user.ID
	sess.DisplayName = user.DisplayName
	sess.User = &user
	s.rec.AccountLinked()
	s.notifier.SessionUpdated(sess)

	return &user, nil
}

// LinkToExistingAccount attaches the session to the account registered
// under the given email and copies its display name onto the session.
func (s *Service) LinkToExistingAccount(ctx context.Context, id uuid.UUID, email string) (*models.User, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.UserID != nil {
		return nil, ErrAlreadyLinked
	}

	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.linkSession(tx, sess.ID, user.ID, user.DisplayName)
	})
	if err != nil {
		return nil, err
	}

	sess.UserID = &user.ID
	sess.DisplayName = user.DisplayName
	sess.User = &user
	s.rec.AccountLinked()
	s.notifier.SessionUpdated(sess)

	return &user, nil
}

func (s *Service) linkSession(tx *gorm.DB, sessionID, userID uuid.UUID, displayName string) error {
	result := tx.Model(&models.Session{}).
		Where("id = ? AND user_id IS NULL", sessionID).
		Updates(map[string]interface{}{
			"user_id":      userID,
			"display_name": displayName,
			"last_active":  time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Session vanished or got linked between the read and the write.
		return ErrSessionNotFound
	}
	return nil
}

// update applies the given column changes plus a last-active bump, then
// reloads the session.
func (s *Service) update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*models.Session, error) {
	changes["last_active"] = time.Now().UTC()

	result := s.db.WithContext(ctx).Model(&models.Session{}).Where("id = ?", id).Updates(changes)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrSessionNotFound
	}

	return s.GetSession(ctx, id)
}

// anonymousDisplayName matches the placeholder the web client expects:
// "Anonymous User" plus a 4-digit suffix.
func anonymousDisplayName() string {
	return fmt.Sprintf("Anonymous User %d", 1000+rand.Intn(9000))
}
