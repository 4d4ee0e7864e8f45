package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	appErrors "github.com/littleseedlimited/caseview-bot/pkg/errors"
)

type caseRepo interface {
	FindByID(ctx context.Context, id string) (*models.Case, error)
	FindByRef(ctx context.Context, accountID, refCode string) (*models.Case, error)
	ListByAccount(ctx context.Context, accountID string) ([]models.Case, error)
	UpdateQALog(ctx context.Context, id string, log json.RawMessage) error
	UpdateScenario(ctx context.Context, id string, scenario json.RawMessage) error
	UpdateDescription(ctx context.Context, id, description string) error
	UpdateStatus(ctx context.Context, id string, status models.CaseStatus) error
	Delete(ctx context.Context, id string) error
}

type caseAsker interface {
	Ask(ctx context.Context, caseContext, question string) (string, error)
}

type caseSimulator interface {
	SimulateWithParameters(ctx context.Context, facts string, params models.ScenarioParams) (string, error)
}

// CaseService covers operations on an already assembled case: follow-up
// questions, scenario simulations, supplemental material and lifecycle.
type CaseService struct {
	repo      caseRepo
	asker     caseAsker
	simulator caseSimulator
	logger    *zap.Logger
	now       func() time.Time
}

// NewCaseService creates an instance of CaseService.
func NewCaseService(repo caseRepo, asker caseAsker, simulator caseSimulator, logger *zap.Logger) *CaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaseService{repo: repo, asker: asker, simulator: simulator, logger: logger, now: time.Now}
}

// Get returns the case only when it belongs to the account.
func (s *CaseService) Get(ctx context.Context, accountID, caseID string) (*models.Case, error) {
	c, err := s.repo.FindByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "case not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case")
	}
	if c.AccountID != accountID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "case belongs to another account")
	}
	return c, nil
}

// GetByRef resolves a case by its reference code within the account.
func (s *CaseService) GetByRef(ctx context.Context, accountID, refCode string) (*models.Case, error) {
	c, err := s.repo.FindByRef(ctx, accountID, strings.ToUpper(strings.TrimSpace(refCode)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no case with reference %s", refCode))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case")
	}
	return c, nil
}

// List returns the account's cases in creation order.
func (s *CaseService) List(ctx context.Context, accountID string) ([]models.Case, error) {
	cases, err := s.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cases")
	}
	return cases, nil
}

// Ask answers a follow-up question against the case facts and appends the
// exchange to the case's Q&A log.
func (s *CaseService) Ask(ctx context.Context, accountID, caseID, question string) (string, error) {
	c, err := s.Get(ctx, accountID, caseID)
	if err != nil {
		return "", err
	}

	answer, err := s.asker.Ask(ctx, c.Description, question)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrAnalysisFailed.Code, appErrors.ErrAnalysisFailed.Status, "could not answer the question right now")
	}

	log, err := c.ParsedQALog()
	if err != nil {
		s.logger.Warn("discarding corrupt qa log", zap.String("case_id", caseID), zap.Error(err))
		log = nil
	}
	log = append(log, models.QAEntry{Question: question, Answer: answer, AskedAt: s.now().UTC()})
	raw, err := json.Marshal(log)
	if err != nil {
		return answer, nil
	}
	if err := s.repo.UpdateQALog(ctx, caseID, raw); err != nil {
		// The answer already exists; losing the log entry is acceptable.
		s.logger.Warn("failed to persist qa log", zap.String("case_id", caseID), zap.Error(err))
	}
	return answer, nil
}

// RunScenario simulates an alternative outcome for the case and stores the
// resulting narrative on the case record.
func (s *CaseService) RunScenario(ctx context.Context, accountID, caseID string, params models.ScenarioParams) (string, error) {
	c, err := s.Get(ctx, accountID, caseID)
	if err != nil {
		return "", err
	}

	narrative, err := s.simulator.SimulateWithParameters(ctx, c.Description, params)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrAnalysisFailed.Code, appErrors.ErrAnalysisFailed.Status, "could not run the simulation right now")
	}

	record := struct {
		Params    models.ScenarioParams `json:"params"`
		Narrative string                `json:"narrative"`
		RanAt     time.Time             `json:"ran_at"`
	}{Params: params, Narrative: narrative, RanAt: s.now().UTC()}
	if raw, err := json.Marshal(record); err == nil {
		if err := s.repo.UpdateScenario(ctx, caseID, raw); err != nil {
			s.logger.Warn("failed to persist scenario", zap.String("case_id", caseID), zap.Error(err))
		}
	}
	return narrative, nil
}

// AppendMaterial adds extracted text from a link or late upload to the case
// description, bounded by the description cap.
func (s *CaseService) AppendMaterial(ctx context.Context, accountID, caseID, text string) error {
	c, err := s.Get(ctx, accountID, caseID)
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return appErrors.Clone(appErrors.ErrValidation, "nothing to add")
	}

	combined := models.TruncateDescription(c.Description + "\n\n" + text)
	if err := s.repo.UpdateDescription(ctx, caseID, combined); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to save the added material")
	}
	return nil
}

// Close marks the case closed. Closing an already closed case is a no-op.
func (s *CaseService) Close(ctx context.Context, accountID, caseID string) error {
	c, err := s.Get(ctx, accountID, caseID)
	if err != nil {
		return err
	}
	if c.Status == models.CaseClosed {
		return nil
	}
	if err := s.repo.UpdateStatus(ctx, caseID, models.CaseClosed); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to close the case")
	}
	return nil
}

// Delete removes the case permanently. Callers confirm with the user first.
func (s *CaseService) Delete(ctx context.Context, accountID, caseID string) error {
	if _, err := s.Get(ctx, accountID, caseID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, caseID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to delete the case")
	}
	s.logger.Info("case deleted", zap.String("case_id", caseID), zap.String("account_id", accountID))
	return nil
}
