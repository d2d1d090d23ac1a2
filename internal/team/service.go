package team

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/holden/retroboard/internal/database/models"
	"github.com/holden/retroboard/internal/metrics"
	"gorm.io/gorm"
)

var (
	ErrForbidden         = errors.New("only admin accounts can create teams")
	ErrInvalidTeamName   = errors.New("team name is required")
	ErrInvalidInviteCode = errors.New("invalid invite code format")
	ErrUserNotFound      = errors.New("user not found")
	ErrInviteNotFound    = errors.New("invalid invite code")
	ErrTeamNotFound      = errors.New("team not found")
	ErrAlreadyMember     = errors.New("user is already a member of this team")
	ErrNotTeamMember     = errors.New("user is not a member of this team")
	ErrCodeExhausted     = errors.New("could not allocate a unique invite code")
)

// How many fresh codes to try when an insert collides on the invite-code
// unique index.
const maxInviteCodeAttempts = 5

// Member is one roster entry in a team's detail view.
type Member struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Details bundles a team with its full roster, ordered oldest-joined
// first so founding members surface at the top.
type Details struct {
	Team    *models.Team `json:"team"`
	Members []Member     `json:"members"`
}

// UserTeam is one entry in an account's team list.
type UserTeam struct {
	Team     *models.Team `json:"team"`
	Role     string       `json:"role"`
	JoinedAt time.Time    `json:"joined_at"`
}

// Service manages team creation and invite-code based membership.
type Service struct {
	db  *gorm.DB
	rec metrics.Recorder

	// seam for tests; defaults to GenerateInviteCode
	newCode func() string
}

func NewService(db *gorm.DB, rec metrics.Recorder) *Service {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Service{db: db, rec: rec, newCode: GenerateInviteCode}
}

// CreateTeam creates a team with a unique invite code and makes the
// creator its facilitator, in one transaction. Only admin accounts may
// create teams. An invite-code collision at insert time is retried with a
// fresh code.
func (s *Service) CreateTeam(ctx context.Context, userID uuid.UUID, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidTeamName
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}

	for attempt := 0; attempt < maxInviteCodeAttempts; attempt++ {
		team := models.Team{
			Name:       name,
			InviteCode: s.newCode(),
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&team).Error; err != nil {
				return err
			}

			membership := models.TeamMembership{
				UserID: user.ID,
				TeamID: team.ID,
				Role:   models.MembershipRoleFacilitator,
			}
			return tx.Create(&membership).Error
		})
		if err == nil {
			s.rec.TeamCreated()
			return &team, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return nil, err
	}

	return nil, ErrCodeExhausted
}

// JoinTeam admits the account into the team behind the invite code,
// exactly once. Returns the team with its roster.
func (s *Service) JoinTeam(ctx context.Context, userID uuid.UUID, inviteCode string) (*Details, error) {
	if !IsValidInviteCode(inviteCode) {
		return nil, ErrInvalidInviteCode
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var team models.Team
	if err := s.db.WithContext(ctx).Where("invite_code = ?", inviteCode).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.TeamMembership{}).
		Where("user_id = ? AND team_id = ?", user.ID, team.ID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyMember
	}

	membership := models.TeamMembership{
		UserID: user.ID,
		TeamID: team.ID,
		Role:   models.MembershipRoleMember,
	}
	if err := s.db.WithContext(ctx).Create(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}

	members, err := s.listMembers(ctx, team.ID)
	if err != nil {
		return nil, err
	}

	s.rec.TeamJoined()
	return &Details{Team: &team, Members: members}, nil
}

// GetUserTeams lists the account's teams, most recently joined first.
func (s *Service) GetUserTeams(ctx context.Context, userID uuid.UUID) ([]UserTeam, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}

	var memberships []models.TeamMembership
	if err := s.db.WithContext(ctx).
		Preload("Team").
		Where("user_id = ?", userID).
		Order("joined_at DESC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}

	teams := make([]UserTeam, 0, len(memberships))
	for _, m := range memberships {
		teams = append(teams, UserTeam{
			Team:     m.Team,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		})
	}
	return teams, nil
}

// GetTeamDetails returns the team and its roster, oldest members first.
// Only current members may look.
func (s *Service) GetTeamDetails(ctx context.Context, teamID, userID uuid.UUID) (*Details, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.TeamMembership{}).
		Where("user_id = ? AND team_id = ?", userID, teamID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNotTeamMember
	}

	var team models.Team
	if err := s.db.WithContext(ctx).First(&team, "id = ?", teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	members, err := s.listMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}

	return &Details{Team: &team, Members: members}, nil
}

func (s *Service) listMembers(ctx context.Context, teamID uuid.UUID) ([]Member, error) {
	var memberships []models.TeamMembership
	if err := s.db.WithContext(ctx).
		Preload("User").
		Where("team_id = ?", teamID).
		Order("joined_at ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(memberships))
	for _, m := range memberships {
		member := Member{
			ID:       m.UserID,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		}
		if m.User != nil {
			member.DisplayName = m.User.DisplayName
			member.Email = m.User.Email
		}
		members = append(members, member)
	}
	return members, nil
}

func (s *Service) getUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
