package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	appErrors "github.com/littleseedlimited/caseview-bot/pkg/errors"
)

type teamAccountRepo interface {
	FindByOrgCode(ctx context.Context, orgCode string) (*models.Account, error)
	CountTeamMembers(ctx context.Context, ownerID string) (int, error)
	Update(ctx context.Context, acct *models.Account) error
}

// TeamService manages team membership under a firm or bar owner's account.
type TeamService struct {
	repo   teamAccountRepo
	logger *zap.Logger
}

// NewTeamService creates an instance of TeamService.
func NewTeamService(repo teamAccountRepo, logger *zap.Logger) *TeamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeamService{repo: repo, logger: logger}
}

// Join attaches the member to the team owning orgCode. The owner's
// plan-derived seat limit is checked at join time against the current member
// count; a full team rejects the request.
func (s *TeamService) Join(ctx context.Context, member *models.Account, orgCode string) (*models.Account, error) {
	owner, err := s.repo.FindByOrgCode(ctx, orgCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no team found for that organization code")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up team")
	}
	if owner.ID == member.ID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "you already own this team")
	}
	if member.TeamOwnerID != nil && *member.TeamOwnerID == owner.ID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "you are already on this team")
	}

	seats := models.LimitsFor(owner.Tier).StaffSeats
	count, err := s.repo.CountTeamMembers(ctx, owner.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count team members")
	}
	if count >= seats {
		return nil, appErrors.Clone(appErrors.ErrSeatsExhausted, fmt.Sprintf("team is full (%d of %d seats taken)", count, seats))
	}

	member.TeamOwnerID = &owner.ID
	member.OrgCode = owner.OrgCode
	if err := s.repo.Update(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to join team")
	}

	s.logger.Info("account joined team",
		zap.String("member_id", member.ID),
		zap.String("owner_id", owner.ID))
	return owner, nil
}

// Leave detaches the member from its current team.
func (s *TeamService) Leave(ctx context.Context, member *models.Account) error {
	if member.TeamOwnerID == nil {
		return appErrors.Clone(appErrors.ErrValidation, "you are not on a team")
	}
	member.TeamOwnerID = nil
	member.OrgCode = ""
	if err := s.repo.Update(ctx, member); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to leave team")
	}
	return nil
}
