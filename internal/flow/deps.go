package flow

import (
	"context"
	"time"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	"github.com/littleseedlimited/caseview-bot/internal/payment"
	"github.com/littleseedlimited/caseview-bot/internal/service"
)

// AccountDirectory resolves and updates accounts by chat identity.
type AccountDirectory interface {
	FindOrCreateByPlatformID(ctx context.Context, platformID int64) (*models.Account, error)
	Update(ctx context.Context, acct *models.Account) error
}

// Assembler runs the case intake pipeline.
type Assembler interface {
	Assemble(ctx context.Context, acct *models.Account, in service.RawInput) (*service.AssemblyResult, error)
}

// CaseFlows covers operations on existing cases.
type CaseFlows interface {
	Get(ctx context.Context, accountID, caseID string) (*models.Case, error)
	GetByRef(ctx context.Context, accountID, refCode string) (*models.Case, error)
	List(ctx context.Context, accountID string) ([]models.Case, error)
	Ask(ctx context.Context, accountID, caseID, question string) (string, error)
	RunScenario(ctx context.Context, accountID, caseID string, params models.ScenarioParams) (string, error)
	AppendMaterial(ctx context.Context, accountID, caseID, text string) error
	Close(ctx context.Context, accountID, caseID string) error
	Delete(ctx context.Context, accountID, caseID string) error
}

// TextExtractor pulls text out of uploads appended to existing cases.
type TextExtractor interface {
	ExtractText(ctx context.Context, locator, mediaTypeHint string) (string, error)
	Transcribe(ctx context.Context, locator string) (string, error)
}

// Exporter queues document renders.
type Exporter interface {
	Request(ctx context.Context, req service.ExportRequest) error
}

// TeamFlows covers team membership changes.
type TeamFlows interface {
	Join(ctx context.Context, member *models.Account, orgCode string) (*models.Account, error)
	Leave(ctx context.Context, member *models.Account) error
}

// PaymentInitiator starts a plan-upgrade checkout.
type PaymentInitiator interface {
	Initialize(ctx context.Context, req payment.InitRequest) (string, error)
}

// LinkFetcher pulls readable text out of a web page.
type LinkFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Metrics records the engine's core outcomes.
type Metrics interface {
	CountMessage(kind string)
	CountCaseAssembled(duration time.Duration)
	CountQuotaRejected()
	CountWizardCompleted(wizard string)
}

// nopMetrics keeps the engine usable without a metrics backend.
type nopMetrics struct{}

func (nopMetrics) CountMessage(string)              {}
func (nopMetrics) CountCaseAssembled(time.Duration) {}
func (nopMetrics) CountQuotaRejected()              {}
func (nopMetrics) CountWizardCompleted(string)      {}
