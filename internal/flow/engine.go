package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	"github.com/littleseedlimited/caseview-bot/internal/reply"
	"github.com/littleseedlimited/caseview-bot/internal/service"
	"github.com/littleseedlimited/caseview-bot/internal/session"
	appErrors "github.com/littleseedlimited/caseview-bot/pkg/errors"
)

// Engine routes inbound updates: gate checks first, then button callbacks,
// then commands (honored regardless of the active wizard), then free text
// into whatever wizard is running. Idle free text gets a guidance reply.
type Engine struct {
	accounts  AccountDirectory
	assembly  Assembler
	cases     CaseFlows
	extractor TextExtractor
	exports   Exporter
	teams     TeamFlows
	payments  PaymentInitiator
	links     LinkFetcher
	sessions  session.Store
	staging   *session.StagingArea
	metrics   Metrics
	logger    *zap.Logger
}

// EngineDeps bundles the engine's collaborators.
type EngineDeps struct {
	Accounts  AccountDirectory
	Assembly  Assembler
	Cases     CaseFlows
	Extractor TextExtractor
	Exports   Exporter
	Teams     TeamFlows
	Payments  PaymentInitiator
	Links     LinkFetcher
	Sessions  session.Store
	Staging   *session.StagingArea
	Metrics   Metrics
	Logger    *zap.Logger
}

// NewEngine creates an instance of Engine.
func NewEngine(deps EngineDeps) *Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewMemoryStore()
	}
	if deps.Staging == nil {
		deps.Staging = session.NewStagingArea()
	}
	return &Engine{
		accounts:  deps.Accounts,
		assembly:  deps.Assembly,
		cases:     deps.Cases,
		extractor: deps.Extractor,
		exports:   deps.Exports,
		teams:     deps.Teams,
		payments:  deps.Payments,
		links:     deps.Links,
		sessions:  deps.Sessions,
		staging:   deps.Staging,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	}
}

// Handle processes one update and returns the reply to send. Collaborator
// failures are converted to user-facing messages here; the returned error is
// reserved for transport-level faults (account resolution itself failing).
func (e *Engine) Handle(ctx context.Context, up Update) (reply.Message, error) {
	acct, err := e.accounts.FindOrCreateByPlatformID(ctx, up.PlatformID)
	if err != nil {
		return reply.Message{}, fmt.Errorf("resolve account: %w", err)
	}

	if acct.Banned {
		return reply.Text("Your account has been suspended. Contact support if you believe this is a mistake."), nil
	}

	switch {
	case up.File != nil:
		e.metrics.CountMessage("file")
		return e.handleUpload(ctx, acct, up), nil
	case up.Action != "":
		e.metrics.CountMessage("callback")
		return e.handleAction(ctx, acct, up), nil
	case up.Command() != "":
		e.metrics.CountMessage("command")
		return e.handleCommand(ctx, acct, up), nil
	default:
		e.metrics.CountMessage("text")
		return e.handleText(ctx, acct, up), nil
	}
}

// approvalGate blocks case work for firm/bar accounts still awaiting admin
// approval. Signup, profile and help stay available.
func (e *Engine) approvalGate(acct *models.Account) *reply.Message {
	if acct.Registered() && acct.Approval == models.ApprovalPending {
		m := reply.Text("Your organization account is still awaiting approval. You will be notified once it is reviewed.")
		return &m
	}
	return nil
}

func (e *Engine) session(acct *models.Account) *session.Session {
	if sess, ok := e.sessions.Get(acct.ID); ok {
		return sess
	}
	sess := &session.Session{AccountID: acct.ID, StartedAt: time.Now()}
	e.sessions.Put(sess)
	return sess
}

// toIdle clears the active wizard but keeps the focused case.
func (e *Engine) toIdle(sess *session.Session) {
	sess.Active = nil
	e.sessions.Put(sess)
}

func (e *Engine) handleCommand(ctx context.Context, acct *models.Account, up Update) reply.Message {
	cmd, args := up.Command(), up.Args()
	sess := e.session(acct)

	// A command unrelated to the staged upload abandons it rather than letting
	// it leak into a later turn.
	switch cmd {
	case "start", "help", "cancel":
	default:
		if _, had := e.staging.Take(acct.ID); had {
			e.logger.Debug("staged input discarded by command",
				zap.String("account_id", acct.ID), zap.String("command", cmd))
		}
	}

	switch cmd {
	case "start":
		return e.startSignupOrWelcome(acct, sess)
	case "help":
		return helpMessage()
	case "cancel", "done":
		if sess.Active == nil {
			return reply.Text("Nothing to cancel. Send /help to see what I can do.")
		}
		e.toIdle(sess)
		return reply.Text("Okay, cancelled. Send /help to see what I can do.")
	case "profile":
		return profileMessage(acct)
	case "edit":
		return e.startProfileEdit(sess, args)
	case "verify":
		return e.startVerification(acct, sess)
	}

	if gate := e.approvalGate(acct); gate != nil {
		return *gate
	}
	if !acct.Registered() {
		return reply.Text("Please finish signing up first. Send /start to begin.")
	}

	switch cmd {
	case "newcase":
		return e.startIntake(sess)
	case "cases":
		return e.listCases(ctx, acct)
	case "case":
		return e.showCase(ctx, acct, sess, args)
	case "close":
		return e.closeCase(ctx, acct, sess, args)
	case "ask":
		return e.startAsk(ctx, acct, sess, args)
	case "scenario":
		return e.startScenario(ctx, acct, sess, args)
	case "export":
		return e.startExport(ctx, acct, sess, args)
	case "addlink":
		return e.startLink(ctx, acct, sess, args)
	case "delete":
		return e.armDelete(ctx, acct, sess, args)
	case "jointeam":
		return e.joinTeam(ctx, acct, args)
	case "leaveteam":
		return e.leaveTeam(ctx, acct)
	case "upgrade":
		return e.startUpgrade(ctx, acct, args)
	}

	return reply.Text(fmt.Sprintf("I don't know the command /%s. Send /help for the list.", cmd))
}

func (e *Engine) handleText(ctx context.Context, acct *models.Account, up Update) reply.Message {
	sess := e.session(acct)
	text := strings.TrimSpace(up.Text)

	switch state := sess.Active.(type) {
	case *session.SignupState:
		return e.advanceSignup(ctx, acct, sess, state, text)
	case *session.IntakeState:
		return e.advanceIntake(ctx, acct, sess, state, text)
	case *session.ScenarioState:
		return e.advanceScenario(ctx, acct, sess, state, text)
	case *session.ExportState:
		return e.advanceExport(ctx, acct, sess, state, text)
	case *session.ProfileEditState:
		return e.commitProfileEdit(ctx, acct, sess, state, text)
	case *session.VerifyState:
		return e.checkVerification(ctx, acct, sess, state, text)
	case *session.LinkState:
		return e.ingestLink(ctx, acct, sess, state, text)
	case *session.AskState:
		return e.answerQuestion(ctx, acct, sess, state, text)
	case *session.DeleteState:
		return e.confirmDelete(ctx, acct, sess, state, text)
	case nil:
		if gate := e.approvalGate(acct); gate != nil {
			return *gate
		}
		if !acct.Registered() {
			return reply.Text("Let's get you set up first. Send /start to begin.")
		}
		return reply.Text("I wasn't expecting free text right now. Send /newcase to describe a new matter, or /help for everything I can do.")
	default:
		e.logger.Error("unknown wizard state", zap.String("account_id", acct.ID))
		e.toIdle(sess)
		return reply.Text("Something went wrong with that conversation, so I reset it. Send /help to start over.")
	}
}

func (e *Engine) handleUpload(ctx context.Context, acct *models.Account, up Update) reply.Message {
	if gate := e.approvalGate(acct); gate != nil {
		return *gate
	}
	if !acct.Registered() {
		return reply.Text("Please finish signing up first. Send /start to begin.")
	}

	sess := e.session(acct)

	// Mid-intake at the facts question, the upload IS the facts.
	if state, ok := sess.Active.(*session.IntakeState); ok && state.Step == session.IntakeFacts {
		e.toIdle(sess)
		return e.runAssembly(ctx, acct, sess, assemblyInputFromFile(*up.File, state), "intake")
	}

	e.staging.Stage(acct.ID, *up.File)
	return reply.Text("Got the file. What should I do with it?").
		WithButtons(reply.StagedInputChoices()...)
}

func (e *Engine) handleAction(ctx context.Context, acct *models.Account, up Update) reply.Message {
	if gate := e.approvalGate(acct); gate != nil {
		return *gate
	}
	sess := e.session(acct)

	switch up.Action {
	case reply.ActionNewCase:
		staged, ok := e.staging.Take(acct.ID)
		if !ok {
			return reply.Text("That upload is no longer available. Please send the file again.")
		}
		e.toIdle(sess)
		return e.runAssembly(ctx, acct, sess, service.RawInput{
			Kind: staged.Kind, Text: staged.Text, FileRef: staged.FileRef, MediaType: staged.MediaType,
		}, "upload")
	case reply.ActionSaveOnly:
		staged, ok := e.staging.Take(acct.ID)
		if !ok {
			return reply.Text("That upload is no longer available. Please send the file again.")
		}
		e.toIdle(sess)
		return e.runAssembly(ctx, acct, sess, service.RawInput{
			Kind: staged.Kind, Text: staged.Text, FileRef: staged.FileRef, MediaType: staged.MediaType,
			SkipAnalysis: true,
		}, "upload")
	case reply.ActionAppendCase:
		return e.appendStagedToCase(ctx, acct, sess, up.ActionCaseID)
	case reply.ActionDiscard:
		e.staging.Take(acct.ID)
		return reply.Text("Discarded.")
	case reply.ActionAsk:
		return e.startAsk(ctx, acct, sess, up.ActionCaseID)
	case reply.ActionScenario:
		return e.startScenario(ctx, acct, sess, up.ActionCaseID)
	case reply.ActionExport:
		return e.startExport(ctx, acct, sess, up.ActionCaseID)
	case reply.ActionAddLink:
		return e.startLink(ctx, acct, sess, up.ActionCaseID)
	case reply.ActionDelete:
		return e.armDelete(ctx, acct, sess, up.ActionCaseID)
	case reply.ActionConfirmDelete:
		if state, ok := sess.Active.(*session.DeleteState); ok {
			return e.confirmDelete(ctx, acct, sess, state, "yes")
		}
		return reply.Text("There is no deletion pending.")
	case reply.ActionClose:
		return e.closeCase(ctx, acct, sess, up.ActionCaseID)
	case reply.ActionViewCase:
		return e.showCase(ctx, acct, sess, up.ActionCaseID)
	case reply.ActionUpgrade:
		return e.startUpgrade(ctx, acct, "")
	}
	return reply.Text("That button no longer does anything. Send /help for the current options.")
}

// failureReply converts a taxonomy error into the user-facing notice, and
// decides whether the session drops back to idle.
func (e *Engine) failureReply(err error, acct *models.Account) reply.Message {
	appErr := appErrors.FromError(err)
	switch {
	case appErrors.Is(err, appErrors.ErrQuotaExceeded):
		e.metrics.CountQuotaRejected()
		return reply.Text(appErr.Message).WithButtons(reply.Button{Label: "Upgrade plan", Action: reply.ActionUpgrade})
	case appErrors.Is(err, appErrors.ErrExtractionFailed),
		appErrors.Is(err, appErrors.ErrAnalysisFailed),
		appErrors.Is(err, appErrors.ErrValidation),
		appErrors.Is(err, appErrors.ErrNotFound),
		appErrors.Is(err, appErrors.ErrForbidden),
		appErrors.Is(err, appErrors.ErrConflict),
		appErrors.Is(err, appErrors.ErrSeatsExhausted),
		appErrors.Is(err, appErrors.ErrNoActiveFlow):
		return reply.Text(appErr.Message)
	default:
		e.logger.Error("collaborator failure", zap.String("account_id", acct.ID), zap.Error(err))
		return reply.Text("Something went wrong on our side. Please try again in a moment.")
	}
}

func helpMessage() reply.Message {
	return reply.Text(strings.Join([]string{
		"Here is what I can do:",
		"/newcase - describe a new legal matter (or just send a document)",
		"/cases - list your cases",
		"/case REF - show one case",
		"/ask - ask follow-up questions about a case",
		"/scenario - simulate an alternative outcome",
		"/export - export a case as PDF or Word",
		"/addlink - attach a web page to a case",
		"/close REF - close a case",
		"/delete - delete a case (asks for confirmation)",
		"/profile - show your profile, /edit FIELD to change it",
		"/verify - verify your account",
		"/jointeam CODE - join your firm's team, /leaveteam to leave",
		"/upgrade PLAN - upgrade your subscription",
		"/cancel - abandon whatever we were doing",
	}, "\n"))
}
