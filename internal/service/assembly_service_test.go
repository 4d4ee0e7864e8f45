package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	"github.com/littleseedlimited/caseview-bot/internal/session"
	appErrors "github.com/littleseedlimited/caseview-bot/pkg/errors"
)

type mockAssemblyCaseRepo struct {
	created   []*models.Case
	count     int
	orgCount  int
	createErr error
}

func (m *mockAssemblyCaseRepo) Create(ctx context.Context, c *models.Case) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, c)
	return nil
}

func (m *mockAssemblyCaseRepo) CountByAccount(ctx context.Context, accountID string) (int, error) {
	return m.count, nil
}

func (m *mockAssemblyCaseRepo) CountByOrg(ctx context.Context, orgCode string) (int, error) {
	return m.orgCount, nil
}

type stubExtractor struct {
	text          string
	err           error
	transcription string
}

func (s *stubExtractor) ExtractText(ctx context.Context, locator, mediaTypeHint string) (string, error) {
	return s.text, s.err
}

func (s *stubExtractor) Transcribe(ctx context.Context, locator string) (string, error) {
	return s.transcription, s.err
}

type stubAnalyzer struct {
	analysis models.Analysis
	err      error
	calls    int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, text string) (models.Analysis, error) {
	s.calls++
	return s.analysis, s.err
}

type stubResearcher struct {
	results []models.ResearchResult
	err     error
}

func (s *stubResearcher) Search(ctx context.Context, query, jurisdiction string) ([]models.ResearchResult, error) {
	return s.results, s.err
}

type recordingQuota struct {
	reservation Reservation
	err         error
	calls       int
}

func (q *recordingQuota) CheckAndReserve(ctx context.Context, acct *models.Account) (Reservation, error) {
	q.calls++
	if q.err != nil {
		return Reservation{}, q.err
	}
	return q.reservation, nil
}

func freeAccount() *models.Account {
	return &models.Account{ID: "a1", Tier: models.PlanFree, UsageResetAt: time.Now()}
}

func goodAnalysis() models.Analysis {
	return models.Analysis{
		Category:       "Contract Dispute",
		ViabilityScore: 72,
		KeyIssues:      []string{"breach", "damages"},
	}
}

func TestAssembleTextInput(t *testing.T) {
	repo := &mockAssemblyCaseRepo{}
	quota := &recordingQuota{reservation: Reservation{Limit: 2, Used: 1}}
	svc := NewAssemblyService(repo, &stubExtractor{}, &stubAnalyzer{analysis: goodAnalysis()}, &stubResearcher{}, quota, zap.NewNop())

	res, err := svc.Assemble(context.Background(), freeAccount(), RawInput{
		Kind: session.InputText,
		Text: "My supplier stopped delivering.\nThe contract runs through December.",
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "CASE-1", res.Case.RefCode)
	assert.Equal(t, "My supplier stopped delivering.", res.Case.Title)
	assert.Equal(t, "Contract Dispute", res.Analysis.Category)
	assert.False(t, res.Degraded)
	assert.Equal(t, 1, quota.calls)
}

func TestAssembleExtractionFailureChargesNothing(t *testing.T) {
	repo := &mockAssemblyCaseRepo{}
	quota := &recordingQuota{reservation: Reservation{Limit: 2}}
	extractor := &stubExtractor{err: appErrors.Clone(appErrors.ErrExtractionFailed, "")}
	analyzer := &stubAnalyzer{analysis: goodAnalysis()}
	svc := NewAssemblyService(repo, extractor, analyzer, nil, quota, zap.NewNop())

	_, err := svc.Assemble(context.Background(), freeAccount(), RawInput{
		Kind: session.InputFile, FileRef: "file-1", MediaType: "application/pdf",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrExtractionFailed))
	assert.Empty(t, repo.created)
	assert.Zero(t, quota.calls)
	assert.Zero(t, analyzer.calls)
}

func TestAssembleAnalysisFailureDegrades(t *testing.T) {
	repo := &mockAssemblyCaseRepo{}
	quota := &recordingQuota{reservation: Reservation{Limit: 2, Used: 1}}
	svc := NewAssemblyService(repo, &stubExtractor{}, &stubAnalyzer{err: errors.New("model offline")}, nil, quota, zap.NewNop())

	res, err := svc.Assemble(context.Background(), freeAccount(), RawInput{
		Kind: session.InputText, Text: "A neighbour built a fence over my boundary.",
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.True(t, res.Degraded)
	assert.Equal(t, "Unknown", res.Analysis.Category)
	assert.Equal(t, 50, res.Analysis.ViabilityScore)
	assert.Equal(t, []string{"Analysis Failed"}, res.Analysis.KeyIssues)

	parsed, perr := res.Case.ParsedAnalysis()
	require.NoError(t, perr)
	assert.Equal(t, "Unknown", parsed.Category)
}

func TestAssembleQuotaExceededLeavesNoRow(t *testing.T) {
	repo := &mockAssemblyCaseRepo{}
	quota := &recordingQuota{err: appErrors.Clone(appErrors.ErrQuotaExceeded, "")}
	svc := NewAssemblyService(repo, &stubExtractor{}, &stubAnalyzer{analysis: goodAnalysis()}, nil, quota, zap.NewNop())

	_, err := svc.Assemble(context.Background(), freeAccount(), RawInput{
		Kind: session.InputText, Text: "I was dismissed without notice.",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrQuotaExceeded))
	assert.Empty(t, repo.created)
}

func TestAssembleOrgPrefixedRefCode(t *testing.T) {
	repo := &mockAssemblyCaseRepo{orgCount: 4}
	quota := &recordingQuota{reservation: Reservation{Limit: 200, Used: 5}}
	svc := NewAssemblyService(repo, &stubExtractor{}, &stubAnalyzer{analysis: goodAnalysis()}, nil, quota, zap.NewNop())

	acct := freeAccount()
	acct.Tier = models.PlanFirm
	acct.OrgCode = "ABC"

	res, err := svc.Assemble(context.Background(), acct, RawInput{
		Kind: session.InputText, Text: "Partnership deadlock over firm dissolution.",
	})
	require.NoError(t, err)
	assert.Equal(t, "ABC-005", res.Case.RefCode)
}

func TestAssemblePersistenceFailure(t *testing.T) {
	repo := &mockAssemblyCaseRepo{createErr: errors.New("pq: connection refused")}
	quota := &recordingQuota{reservation: Reservation{Limit: 2, Used: 1}}
	svc := NewAssemblyService(repo, &stubExtractor{}, &stubAnalyzer{analysis: goodAnalysis()}, nil, quota, zap.NewNop())

	_, err := svc.Assemble(context.Background(), freeAccount(), RawInput{
		Kind: session.InputText, Text: "The insurer refused the claim.",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrPersistence))
	// The quota unit was already consumed; the service does not refund it.
	assert.Equal(t, 1, quota.calls)
}

func TestAssembleVoiceNoteTranscribed(t *testing.T) {
	repo := &mockAssemblyCaseRepo{}
	quota := &recordingQuota{reservation: Reservation{Limit: 2, Used: 1}}
	extractor := &stubExtractor{transcription: "I lent my cousin money and he refuses to repay."}
	svc := NewAssemblyService(repo, extractor, &stubAnalyzer{analysis: goodAnalysis()}, nil, quota, zap.NewNop())

	res, err := svc.Assemble(context.Background(), freeAccount(), RawInput{
		Kind: session.InputFile, FileRef: "voice-1", MediaType: "audio/ogg",
	})
	require.NoError(t, err)
	assert.Contains(t, res.Case.Description, "refuses to repay")
}

func TestAssembleSaveOnlySkipsAnalysis(t *testing.T) {
	repo := &mockAssemblyCaseRepo{}
	quota := &recordingQuota{reservation: Reservation{Limit: 2, Used: 1}}
	analyzer := &stubAnalyzer{analysis: goodAnalysis()}
	svc := NewAssemblyService(repo, &stubExtractor{}, analyzer, &stubResearcher{}, quota, zap.NewNop())

	res, err := svc.Assemble(context.Background(), freeAccount(), RawInput{
		Kind: session.InputText, Text: "Keep this for later.", SkipAnalysis: true,
	})
	require.NoError(t, err)
	assert.Zero(t, analyzer.calls)
	assert.Equal(t, "Unclassified", res.Analysis.Category)
	assert.Empty(t, res.Research)
}
