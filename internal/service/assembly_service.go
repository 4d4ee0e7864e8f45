package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	"github.com/littleseedlimited/caseview-bot/internal/session"
	appErrors "github.com/littleseedlimited/caseview-bot/pkg/errors"
)

type assemblyExtractor interface {
	ExtractText(ctx context.Context, locator, mediaTypeHint string) (string, error)
	Transcribe(ctx context.Context, locator string) (string, error)
}

type assemblyAnalyzer interface {
	Analyze(ctx context.Context, text string) (models.Analysis, error)
}

type assemblyResearcher interface {
	Search(ctx context.Context, query, jurisdictionFilter string) ([]models.ResearchResult, error)
}

type quotaReserver interface {
	CheckAndReserve(ctx context.Context, acct *models.Account) (Reservation, error)
}

type assemblyCaseRepo interface {
	Create(ctx context.Context, c *models.Case) error
	CountByAccount(ctx context.Context, accountID string) (int, error)
	CountByOrg(ctx context.Context, orgCode string) (int, error)
}

// RawInput is the raw material a case starts from: a pasted description, an
// uploaded document or image, or a voice note.
type RawInput struct {
	Kind         session.InputKind
	Text         string
	FileRef      string
	MediaType    string
	Title        string
	Jurisdiction string
	// SkipAnalysis saves the material as a case without running the AI stage.
	SkipAnalysis bool
}

// AssemblyResult carries everything the flow layer needs to compose the
// post-creation summary and its follow-up buttons.
type AssemblyResult struct {
	Case        *models.Case
	Analysis    models.Analysis
	Research    []models.ResearchResult
	Reservation Reservation
	// Degraded marks a case whose analysis stage failed and fell back to the
	// neutral result.
	Degraded bool
}

// AssemblyService runs the intake pipeline: extract, analyze, charge quota,
// persist, enrich.
type AssemblyService struct {
	cases      assemblyCaseRepo
	extractor  assemblyExtractor
	analyzer   assemblyAnalyzer
	researcher assemblyResearcher
	quota      quotaReserver
	logger     *zap.Logger
}

// NewAssemblyService creates an instance of AssemblyService.
func NewAssemblyService(cases assemblyCaseRepo, extractor assemblyExtractor, analyzer assemblyAnalyzer, researcher assemblyResearcher, quota quotaReserver, logger *zap.Logger) *AssemblyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssemblyService{
		cases:      cases,
		extractor:  extractor,
		analyzer:   analyzer,
		researcher: researcher,
		quota:      quota,
		logger:     logger,
	}
}

// Assemble turns raw input into a persisted, analyzed case.
//
// Stage order matters: extraction failure aborts before anything is charged
// or stored; analysis failure degrades to the fallback result but still
// produces a case; the quota check runs before persistence so a rejected
// request leaves no partial row behind.
func (s *AssemblyService) Assemble(ctx context.Context, acct *models.Account, in RawInput) (*AssemblyResult, error) {
	started := time.Now()

	text, err := s.sourceText(ctx, in)
	if err != nil {
		return nil, err
	}
	text = models.TruncateDescription(text)

	analysis := models.FallbackAnalysis()
	degraded := false
	if in.SkipAnalysis {
		analysis = models.Analysis{Category: "Unclassified", ViabilityScore: 50}
	} else {
		analysis, err = s.analyzer.Analyze(ctx, text)
		if err != nil {
			s.logger.Warn("analysis failed, falling back",
				zap.String("account_id", acct.ID), zap.Error(err))
			analysis = models.FallbackAnalysis()
			degraded = true
		}
	}

	reservation, err := s.quota.CheckAndReserve(ctx, acct)
	if err != nil {
		return nil, err
	}

	refCode, err := s.nextRefCode(ctx, acct)
	if err != nil {
		return nil, err
	}

	c := &models.Case{
		AccountID:   acct.ID,
		RefCode:     refCode,
		Title:       caseTitle(in.Title, text),
		Description: text,
		Status:      models.CaseOpen,
	}
	if raw, merr := json.Marshal(analysis); merr == nil {
		c.Analysis = raw
	}
	if err := s.cases.Create(ctx, c); err != nil {
		// The quota unit stays consumed. See QuotaService.CheckAndReserve.
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to save the case")
	}

	var research []models.ResearchResult
	if s.researcher != nil && !in.SkipAnalysis {
		research, err = s.researcher.Search(ctx, analysis.Category+" "+strings.Join(analysis.KeyIssues, " "), in.Jurisdiction)
		if err != nil {
			s.logger.Warn("research lookup failed", zap.String("case_id", c.ID), zap.Error(err))
			research = nil
		}
	}

	s.logger.Info("case assembled",
		zap.String("case_id", c.ID),
		zap.String("ref_code", c.RefCode),
		zap.String("category", analysis.Category),
		zap.Bool("degraded", degraded),
		zap.Duration("took", time.Since(started)))

	return &AssemblyResult{
		Case:        c,
		Analysis:    analysis,
		Research:    research,
		Reservation: reservation,
		Degraded:    degraded,
	}, nil
}

func (s *AssemblyService) sourceText(ctx context.Context, in RawInput) (string, error) {
	if in.Kind != session.InputFile {
		text := strings.TrimSpace(in.Text)
		if text == "" {
			return "", appErrors.Clone(appErrors.ErrValidation, "the case description is empty")
		}
		return text, nil
	}

	var (
		text string
		err  error
	)
	if strings.HasPrefix(in.MediaType, "audio/") {
		text, err = s.extractor.Transcribe(ctx, in.FileRef)
	} else {
		text, err = s.extractor.ExtractText(ctx, in.FileRef, in.MediaType)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", appErrors.Clone(appErrors.ErrExtractionFailed, "the file produced no readable text, try a clearer or smaller file")
	}
	return text, nil
}

func (s *AssemblyService) nextRefCode(ctx context.Context, acct *models.Account) (string, error) {
	var (
		count int
		err   error
	)
	if acct.OrgCode != "" {
		count, err = s.cases.CountByOrg(ctx, acct.OrgCode)
	} else {
		count, err = s.cases.CountByAccount(ctx, acct.ID)
	}
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count prior cases")
	}
	return NextCode(acct.OrgCode, count), nil
}

// caseTitle uses the explicit title if given, else the first line of the
// facts, bounded.
func caseTitle(explicit, text string) string {
	if t := strings.TrimSpace(explicit); t != "" {
		return t
	}
	line := text
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	const max = 80
	if len(line) > max {
		line = strings.TrimSpace(line[:max]) + "..."
	}
	if line == "" {
		return "Untitled case"
	}
	return line
}
