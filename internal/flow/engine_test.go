package flow

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	"github.com/littleseedlimited/caseview-bot/internal/payment"
	"github.com/littleseedlimited/caseview-bot/internal/reply"
	"github.com/littleseedlimited/caseview-bot/internal/service"
	"github.com/littleseedlimited/caseview-bot/internal/session"
	appErrors "github.com/littleseedlimited/caseview-bot/pkg/errors"
)

type fakeAccounts struct {
	accounts map[int64]*models.Account
	updates  int
	updErr   error
}

func (f *fakeAccounts) FindOrCreateByPlatformID(ctx context.Context, platformID int64) (*models.Account, error) {
	if acct, ok := f.accounts[platformID]; ok {
		return acct, nil
	}
	acct := &models.Account{
		ID:         fmt.Sprintf("acct-%d", platformID),
		PlatformID: platformID,
		Tier:       models.PlanFree,
		Approval:   models.ApprovalApproved,
	}
	f.accounts[platformID] = acct
	return acct, nil
}

func (f *fakeAccounts) Update(ctx context.Context, acct *models.Account) error {
	f.updates++
	return f.updErr
}

type fakeAssembler struct {
	limit   int
	created int
	err     error
	inputs  []service.RawInput
}

func (f *fakeAssembler) Assemble(ctx context.Context, acct *models.Account, in service.RawInput) (*service.AssemblyResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.limit > 0 && f.created >= f.limit {
		return nil, appErrors.Clone(appErrors.ErrQuotaExceeded, fmt.Sprintf("you've used all %d cases for this month", f.limit))
	}
	f.created++
	f.inputs = append(f.inputs, in)
	c := &models.Case{
		ID:          fmt.Sprintf("case-%d", f.created),
		AccountID:   acct.ID,
		RefCode:     fmt.Sprintf("CASE-%d", f.created),
		Title:       "Assembled case",
		Description: in.Text,
		Status:      models.CaseOpen,
	}
	return &service.AssemblyResult{
		Case:     c,
		Analysis: models.Analysis{Category: "Contract Dispute", ViabilityScore: 70},
	}, nil
}

type fakeCases struct {
	cases     map[string]*models.Case
	asked     []string
	askErr    error
	scenarios []models.ScenarioParams
	appended  []string
	deleted   []string
	closed    []string
}

func newFakeCases(cases ...*models.Case) *fakeCases {
	f := &fakeCases{cases: map[string]*models.Case{}}
	for _, c := range cases {
		f.cases[c.ID] = c
	}
	return f
}

func (f *fakeCases) Get(ctx context.Context, accountID, caseID string) (*models.Case, error) {
	if c, ok := f.cases[caseID]; ok && c.AccountID == accountID {
		return c, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "case not found")
}

func (f *fakeCases) GetByRef(ctx context.Context, accountID, refCode string) (*models.Case, error) {
	for _, c := range f.cases {
		if c.AccountID == accountID && c.RefCode == refCode {
			return c, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "case not found")
}

func (f *fakeCases) List(ctx context.Context, accountID string) ([]models.Case, error) {
	var out []models.Case
	for _, c := range f.cases {
		if c.AccountID == accountID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCases) Ask(ctx context.Context, accountID, caseID, question string) (string, error) {
	if f.askErr != nil {
		return "", f.askErr
	}
	f.asked = append(f.asked, question)
	return "Answer to: " + question, nil
}

func (f *fakeCases) RunScenario(ctx context.Context, accountID, caseID string, params models.ScenarioParams) (string, error) {
	f.scenarios = append(f.scenarios, params)
	return "Simulated narrative.", nil
}

func (f *fakeCases) AppendMaterial(ctx context.Context, accountID, caseID, text string) error {
	f.appended = append(f.appended, text)
	return nil
}

func (f *fakeCases) Close(ctx context.Context, accountID, caseID string) error {
	f.closed = append(f.closed, caseID)
	return nil
}

func (f *fakeCases) Delete(ctx context.Context, accountID, caseID string) error {
	f.deleted = append(f.deleted, caseID)
	return nil
}

type fakeExporter struct{ requests []service.ExportRequest }

func (f *fakeExporter) Request(ctx context.Context, req service.ExportRequest) error {
	f.requests = append(f.requests, req)
	return nil
}

type fakeTeams struct{}

func (fakeTeams) Join(ctx context.Context, member *models.Account, orgCode string) (*models.Account, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "no team found for that organization code")
}
func (fakeTeams) Leave(ctx context.Context, member *models.Account) error { return nil }

type fakePayments struct{}

func (fakePayments) Initialize(ctx context.Context, req payment.InitRequest) (string, error) {
	return "https://pay.test/checkout/" + req.Plan, nil
}

type fakeLinks struct {
	content string
	err     error
}

func (f *fakeLinks) Fetch(ctx context.Context, url string) (string, error) {
	return f.content, f.err
}

type fakeTextExtractor struct{ text string }

func (f *fakeTextExtractor) ExtractText(ctx context.Context, locator, hint string) (string, error) {
	return f.text, nil
}
func (f *fakeTextExtractor) Transcribe(ctx context.Context, locator string) (string, error) {
	return f.text, nil
}

type harness struct {
	engine    *Engine
	accounts  *fakeAccounts
	assembler *fakeAssembler
	cases     *fakeCases
	exporter  *fakeExporter
	sessions  session.Store
	staging   *session.StagingArea
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		accounts:  &fakeAccounts{accounts: map[int64]*models.Account{}},
		assembler: &fakeAssembler{},
		cases:     newFakeCases(),
		exporter:  &fakeExporter{},
		sessions:  session.NewMemoryStore(),
		staging:   session.NewStagingArea(),
	}
	h.engine = NewEngine(EngineDeps{
		Accounts:  h.accounts,
		Assembly:  h.assembler,
		Cases:     h.cases,
		Extractor: &fakeTextExtractor{text: "extracted text"},
		Exports:   h.exporter,
		Teams:     fakeTeams{},
		Payments:  fakePayments{},
		Links:     &fakeLinks{content: "page text"},
		Sessions:  h.sessions,
		Staging:   h.staging,
		Logger:    zap.NewNop(),
	})
	return h
}

func (h *harness) registered(platformID int64) *models.Account {
	acct, _ := h.accounts.FindOrCreateByPlatformID(context.Background(), platformID)
	acct.FullName = "Ada Lovell"
	acct.Email = "ada@example.com"
	acct.UsageResetAt = time.Now()
	return acct
}

func (h *harness) send(t *testing.T, platformID int64, text string) reply.Message {
	t.Helper()
	msg, err := h.engine.Handle(context.Background(), Update{PlatformID: platformID, Text: text})
	require.NoError(t, err)
	return msg
}

func TestIdleFreeTextGetsGuidance(t *testing.T) {
	h := newHarness(t)
	h.registered(1)
	msg := h.send(t, 1, "hello there")
	assert.Contains(t, msg.Text, "/newcase")
}

func TestBannedAccountBlocked(t *testing.T) {
	h := newHarness(t)
	acct := h.registered(1)
	acct.Banned = true
	msg := h.send(t, 1, "/newcase")
	assert.Contains(t, msg.Text, "suspended")
}

func TestPendingApprovalBlocksCaseWork(t *testing.T) {
	h := newHarness(t)
	acct := h.registered(1)
	acct.Approval = models.ApprovalPending
	msg := h.send(t, 1, "/newcase")
	assert.Contains(t, msg.Text, "awaiting approval")
}

func TestIntakeWizardToAssembly(t *testing.T) {
	h := newHarness(t)
	h.registered(1)

	msg := h.send(t, 1, "/newcase")
	assert.Contains(t, msg.Text, "jurisdiction")
	h.send(t, 1, "Lagos State")
	h.send(t, 1, "High Court of Lagos")
	h.send(t, 1, "Okafor v. Bello")
	msg = h.send(t, 1, "The defendant refuses to vacate the property.")

	require.Len(t, h.assembler.inputs, 1)
	in := h.assembler.inputs[0]
	assert.Contains(t, in.Text, "Jurisdiction: Lagos State")
	assert.Contains(t, in.Text, "refuses to vacate")
	assert.Equal(t, "Lagos State", in.Jurisdiction)
	assert.Contains(t, msg.Text, "CASE-1")
	assert.NotEmpty(t, msg.Buttons)

	// Wizard finished: the session is idle again but keeps the case focus.
	sess, ok := h.sessions.Get("acct-1")
	require.True(t, ok)
	assert.Nil(t, sess.Active)
	assert.Equal(t, "case-1", sess.CaseID)
}

func TestQuotaExceededEndsIntakeWithUpgradeOffer(t *testing.T) {
	h := newHarness(t)
	h.registered(1)
	h.assembler.limit = 2

	for i := 0; i < 2; i++ {
		h.send(t, 1, "/newcase")
		h.send(t, 1, "Lagos")
		h.send(t, 1, "High Court")
		h.send(t, 1, "A v. B")
		msg := h.send(t, 1, "facts")
		assert.Contains(t, msg.Text, "saved")
	}

	h.send(t, 1, "/newcase")
	h.send(t, 1, "Lagos")
	h.send(t, 1, "High Court")
	h.send(t, 1, "A v. B")
	msg := h.send(t, 1, "facts")
	assert.Contains(t, msg.Text, "used all 2 cases")
	require.NotEmpty(t, msg.Buttons)
	assert.Equal(t, reply.ActionUpgrade, msg.Buttons[0].Action)

	// Catastrophic assembly failure drops the session to idle.
	sess, _ := h.sessions.Get("acct-1")
	assert.Nil(t, sess.Active)
}

func TestCommandInterruptsWizard(t *testing.T) {
	h := newHarness(t)
	h.registered(1)
	h.send(t, 1, "/newcase")
	msg := h.send(t, 1, "/help")
	assert.Contains(t, msg.Text, "/cases")

	// The intake wizard is still waiting for its answer.
	sess, _ := h.sessions.Get("acct-1")
	state, ok := sess.Active.(*session.IntakeState)
	require.True(t, ok)
	assert.Equal(t, session.IntakeJurisdiction, state.Step)
}

func TestAskLoopStaysActive(t *testing.T) {
	h := newHarness(t)
	acct := h.registered(1)
	h.cases.cases["c1"] = &models.Case{ID: "c1", AccountID: acct.ID, RefCode: "CASE-1", Status: models.CaseOpen}

	msg := h.send(t, 1, "/ask CASE-1")
	assert.Contains(t, msg.Text, "/done")

	for i, q := range []string{"First question?", "Second question?", "Third question?"} {
		msg = h.send(t, 1, q)
		assert.Contains(t, msg.Text, q)
		assert.Len(t, h.cases.asked, i+1)

		sess, _ := h.sessions.Get(acct.ID)
		_, active := sess.Active.(*session.AskState)
		assert.True(t, active, "ask loop must stay active after answer %d", i+1)
	}

	h.send(t, 1, "/done")
	sess, _ := h.sessions.Get(acct.ID)
	assert.Nil(t, sess.Active)
}

func TestAskLoopDropsToIdleOnModelFailure(t *testing.T) {
	h := newHarness(t)
	acct := h.registered(1)
	h.cases.cases["c1"] = &models.Case{ID: "c1", AccountID: acct.ID, RefCode: "CASE-1", Status: models.CaseOpen}
	h.send(t, 1, "/ask CASE-1")

	h.cases.askErr = appErrors.Clone(appErrors.ErrAnalysisFailed, "")
	h.send(t, 1, "Is my claim time-barred?")

	sess, _ := h.sessions.Get(acct.ID)
	assert.Nil(t, sess.Active)
}

func TestScenarioWizardFiveQuestionsInOrder(t *testing.T) {
	h := newHarness(t)
	acct := h.registered(1)
	h.cases.cases["c1"] = &models.Case{ID: "c1", AccountID: acct.ID, RefCode: "CASE-1", Status: models.CaseOpen}

	msg := h.send(t, 1, "/scenario CASE-1")
	assert.Contains(t, msg.Text, "Question 1 of 5")

	h.send(t, 1, "full acquittal")
	h.send(t, 1, "cctv footage")
	msg = h.send(t, 1, "chain of custody challenge")
	assert.Contains(t, msg.Text, "Question 4 of 5")

	// The third answer landed under opposing, and the step already moved on.
	sess, _ := h.sessions.Get(acct.ID)
	state := sess.Active.(*session.ScenarioState)
	assert.Equal(t, "chain of custody challenge", state.Opposing)
	assert.Equal(t, session.ScenarioJurisdiction, state.Step)

	h.send(t, 1, "none")
	msg = h.send(t, 1, "budget is limited")
	assert.Contains(t, msg.Text, "Simulated narrative")

	require.Len(t, h.cases.scenarios, 1)
	params := h.cases.scenarios[0]
	assert.Equal(t, "full acquittal", params.Outcome)
	assert.Equal(t, "chain of custody challenge", params.Opposing)
	assert.Equal(t, "budget is limited", params.Caveats)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	h := newHarness(t)
	acct := h.registered(1)
	h.cases.cases["c1"] = &models.Case{ID: "c1", AccountID: acct.ID, RefCode: "CASE-1", Title: "Old matter", Status: models.CaseOpen}

	msg := h.send(t, 1, "/delete CASE-1")
	assert.Contains(t, msg.Text, "cannot be undone")
	assert.Empty(t, h.cases.deleted, "a single delete request must not remove the row")

	msg = h.send(t, 1, "yes")
	assert.Contains(t, msg.Text, "deleted")
	assert.Equal(t, []string{"c1"}, h.cases.deleted)
}

func TestDeleteDisarmedByAnyOtherReply(t *testing.T) {
	h := newHarness(t)
	acct := h.registered(1)
	h.cases.cases["c1"] = &models.Case{ID: "c1", AccountID: acct.ID, RefCode: "CASE-1", Status: models.CaseOpen}

	h.send(t, 1, "/delete CASE-1")
	msg := h.send(t, 1, "actually no")
	assert.Contains(t, msg.Text, "stays")
	assert.Empty(t, h.cases.deleted)
}

func TestVerificationThreeAttemptsThenReset(t *testing.T) {
	h := newHarness(t)
	h.registered(1)

	msg := h.send(t, 1, "/verify")
	require.Contains(t, msg.Text, "verification code")

	h.send(t, 1, "00000000")
	h.send(t, 1, "11111111")
	msg = h.send(t, 1, "22222222")
	assert.Contains(t, msg.Text, "cancelled")

	sess, _ := h.sessions.Get("acct-1")
	assert.Nil(t, sess.Active)
	assert.False(t, h.accounts.accounts[1].Verified)
}

func TestVerificationExactMatch(t *testing.T) {
	h := newHarness(t)
	h.registered(1)

	h.send(t, 1, "/verify")
	sess, _ := h.sessions.Get("acct-1")
	code := sess.Active.(*session.VerifyState).Code
	require.Len(t, code, 8)

	msg := h.send(t, 1, code)
	assert.Contains(t, msg.Text, "Verified")
	assert.True(t, h.accounts.accounts[1].Verified)
}

func TestUploadStagesAndClassifies(t *testing.T) {
	h := newHarness(t)
	h.registered(1)

	msg, err := h.engine.Handle(context.Background(), Update{
		PlatformID: 1,
		File:       &session.StagedInput{Kind: session.InputFile, FileRef: "file-9", MediaType: "application/pdf"},
	})
	require.NoError(t, err)
	assert.Contains(t, msg.Text, "What should I do with it")
	require.Len(t, msg.Buttons, 4)

	msg, err = h.engine.Handle(context.Background(), Update{PlatformID: 1, Action: reply.ActionNewCase})
	require.NoError(t, err)
	assert.Contains(t, msg.Text, "CASE-1")
	require.Len(t, h.assembler.inputs, 1)
	assert.Equal(t, "file-9", h.assembler.inputs[0].FileRef)
}

func TestUnrelatedCommandDiscardsStagedInput(t *testing.T) {
	h := newHarness(t)
	h.registered(1)

	_, err := h.engine.Handle(context.Background(), Update{
		PlatformID: 1,
		File:       &session.StagedInput{Kind: session.InputFile, FileRef: "file-9", MediaType: "application/pdf"},
	})
	require.NoError(t, err)

	h.send(t, 1, "/cases")

	msg, err := h.engine.Handle(context.Background(), Update{PlatformID: 1, Action: reply.ActionNewCase})
	require.NoError(t, err)
	assert.Contains(t, msg.Text, "no longer available")
	assert.Empty(t, h.assembler.inputs)
}

func TestUploadAtIntakeFactsAutoRoutes(t *testing.T) {
	h := newHarness(t)
	h.registered(1)

	h.send(t, 1, "/newcase")
	h.send(t, 1, "Lagos")
	h.send(t, 1, "High Court")
	h.send(t, 1, "A v. B")

	msg, err := h.engine.Handle(context.Background(), Update{
		PlatformID: 1,
		File:       &session.StagedInput{Kind: session.InputFile, FileRef: "facts.pdf", MediaType: "application/pdf"},
	})
	require.NoError(t, err)
	assert.Contains(t, msg.Text, "CASE-1")
	require.Len(t, h.assembler.inputs, 1)
	assert.Equal(t, "facts.pdf", h.assembler.inputs[0].FileRef)
	assert.Equal(t, "Lagos", h.assembler.inputs[0].Jurisdiction)

	// Nothing left staged for a later turn.
	_, staged := h.staging.Take("acct-1")
	assert.False(t, staged)
}

func TestExportWizard(t *testing.T) {
	h := newHarness(t)
	acct := h.registered(1)
	h.cases.cases["c1"] = &models.Case{ID: "c1", AccountID: acct.ID, RefCode: "CASE-1", Status: models.CaseOpen}

	msg := h.send(t, 1, "/export CASE-1")
	assert.Contains(t, msg.Text, "pdf or word")

	msg = h.send(t, 1, "spreadsheet")
	assert.Contains(t, msg.Text, "pdf or word")

	h.send(t, 1, "pdf")
	msg = h.send(t, 1, "500")
	assert.Contains(t, msg.Text, "download link")

	require.Len(t, h.exporter.requests, 1)
	req := h.exporter.requests[0]
	assert.Equal(t, "c1", req.CaseID)
	assert.Equal(t, 500, req.WordLimit)
}

func TestLinkIngestionAppends(t *testing.T) {
	h := newHarness(t)
	acct := h.registered(1)
	h.cases.cases["c1"] = &models.Case{ID: "c1", AccountID: acct.ID, RefCode: "CASE-1", Status: models.CaseOpen}

	h.send(t, 1, "/addlink CASE-1")
	msg := h.send(t, 1, "not a url")
	assert.Contains(t, msg.Text, "http")

	msg = h.send(t, 1, "https://law.example.com/judgment")
	assert.Contains(t, msg.Text, "Added")
	require.Len(t, h.cases.appended, 1)
	assert.Contains(t, h.cases.appended[0], "page text")
}

func TestUpgradeReturnsCheckoutURL(t *testing.T) {
	h := newHarness(t)
	h.registered(1)
	msg := h.send(t, 1, "/upgrade pro")
	assert.Contains(t, msg.Text, "https://pay.test/checkout/PRO")
}

func TestStaleSessionStillAdvances(t *testing.T) {
	h := newHarness(t)
	acct := h.registered(1)
	h.send(t, 1, "/newcase")

	// A day passes; the recorded step still governs the next message.
	sess, _ := h.sessions.Get(acct.ID)
	sess.StartedAt = sess.StartedAt.Add(-24 * time.Hour)
	h.sessions.Put(sess)

	msg := h.send(t, 1, "Lagos State")
	assert.Contains(t, strings.ToLower(msg.Text), "court")
}

func TestSignupWizardIndividual(t *testing.T) {
	h := newHarness(t)

	msg := h.send(t, 7, "/start")
	assert.Contains(t, msg.Text, "individual")

	h.send(t, 7, "individual")
	h.send(t, 7, "Ngozi Adeyemi")
	msg = h.send(t, 7, "not-an-email")
	assert.Contains(t, msg.Text, "email")
	h.send(t, 7, "ngozi@example.com")
	h.send(t, 7, "+2348012345678")
	h.send(t, 7, "12 Marina Road, Lagos")
	h.send(t, 7, "Associate")
	msg = h.send(t, 7, "SCN-44321")

	assert.Contains(t, msg.Text, "all set")
	acct := h.accounts.accounts[7]
	assert.Equal(t, "Ngozi Adeyemi", acct.FullName)
	assert.Equal(t, models.ApprovalApproved, acct.Approval)
	assert.True(t, acct.Registered())
}

func TestSignupWizardFirmPendsApproval(t *testing.T) {
	h := newHarness(t)

	h.send(t, 8, "/start")
	h.send(t, 8, "firm")
	msg := h.send(t, 8, "Adeyemi & Partners")
	assert.Contains(t, msg.Text, "state")
	h.send(t, 8, "Lagos")
	h.send(t, 8, "Kunle Adeyemi")
	h.send(t, 8, "kunle@adeyemi.law")
	h.send(t, 8, "+2348098765432")
	h.send(t, 8, "3 Broad Street, Lagos")
	h.send(t, 8, "Managing Partner")
	msg = h.send(t, 8, "FRM-1002")

	assert.Contains(t, msg.Text, "awaiting approval")
	acct := h.accounts.accounts[8]
	assert.Equal(t, models.ApprovalPending, acct.Approval)
	assert.Equal(t, models.AccountFirm, acct.Type)
	require.NotNil(t, acct.FirmName)
	assert.Equal(t, "Adeyemi & Partners", *acct.FirmName)
	assert.NotEmpty(t, acct.OrgCode)

	// Still gated until an admin approves.
	msg = h.send(t, 8, "/newcase")
	assert.Contains(t, msg.Text, "awaiting approval")
}

func TestCaseSummaryFormatsScenarioProbabilities(t *testing.T) {
	res := &service.AssemblyResult{
		Case: &models.Case{ID: "c1", RefCode: "CASE-1", Title: "Fence dispute"},
		Analysis: models.Analysis{
			Category:       "Property Law",
			ViabilityScore: 70,
			Scenarios: []models.AnalysisScenario{
				{Name: "Settle", Probability: 0.6, RecommendedAction: "Negotiate"},
				{Name: "Litigate", Probability: 0.25, RecommendedAction: "File suit"},
			},
		},
	}

	msg := caseSummary(res)
	assert.Contains(t, msg.Text, "- Settle (60%): Negotiate")
	assert.Contains(t, msg.Text, "- Litigate (25%): File suit")
	assert.NotContains(t, msg.Text, "%!")
}

// An upload must survive a failed append so the user can pick another case
// instead of re-sending the file.
func TestFailedAppendKeepsStagedUpload(t *testing.T) {
	h := newHarness(t)
	h.registered(1)

	_, err := h.engine.Handle(context.Background(), Update{
		PlatformID: 1,
		File:       &session.StagedInput{Kind: session.InputFile, FileRef: "file-9", MediaType: "application/pdf"},
	})
	require.NoError(t, err)

	msg, err := h.engine.Handle(context.Background(), Update{
		PlatformID: 1, Action: reply.ActionAppendCase, ActionCaseID: "missing",
	})
	require.NoError(t, err)
	assert.Contains(t, msg.Text, "not found")
	assert.Empty(t, h.cases.appended)

	h.cases.cases["c7"] = &models.Case{ID: "c7", AccountID: "acct-1", RefCode: "CASE-7"}
	msg, err = h.engine.Handle(context.Background(), Update{
		PlatformID: 1, Action: reply.ActionAppendCase, ActionCaseID: "c7",
	})
	require.NoError(t, err)
	assert.Contains(t, msg.Text, "CASE-7")
	require.Len(t, h.cases.appended, 1)
	assert.Equal(t, "extracted text", h.cases.appended[0])
}
