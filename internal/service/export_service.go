package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	"github.com/littleseedlimited/caseview-bot/internal/reply"
	"github.com/littleseedlimited/caseview-bot/pkg/config"
	appErrors "github.com/littleseedlimited/caseview-bot/pkg/errors"
	"github.com/littleseedlimited/caseview-bot/pkg/export"
	"github.com/littleseedlimited/caseview-bot/pkg/jobs"
	"github.com/littleseedlimited/caseview-bot/pkg/storage"
)

// Deliverer pushes an outbound message back to the user's chat.
type Deliverer interface {
	Deliver(ctx context.Context, platformID int64, msg reply.Message) error
}

type exportCaseLoader interface {
	Get(ctx context.Context, accountID, caseID string) (*models.Case, error)
}

// ExportRequest is what the export wizard collects before handing off.
type ExportRequest struct {
	AccountID  string
	PlatformID int64
	CaseID     string
	Format     export.Format
	Extent     export.Extent
	// WordLimit bounds the document body; zero means no limit.
	WordLimit int
}

// ExportService renders case documents off the hot path. Requests are queued
// and a download link is delivered to the chat when the render finishes.
type ExportService struct {
	cases     exportCaseLoader
	renderers map[export.Format]export.Renderer
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	deliverer Deliverer
	queue     *jobs.Queue
	baseURL   string
	logger    *zap.Logger
}

// NewExportService creates an instance of ExportService with its own worker
// queue. Call Start before enqueueing.
func NewExportService(cases exportCaseLoader, renderers map[export.Format]export.Renderer, store *storage.LocalStorage, signer *storage.SignedURLSigner, deliverer Deliverer, cfg config.ExportsConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportService{
		cases:     cases,
		renderers: renderers,
		store:     store,
		signer:    signer,
		deliverer: deliverer,
		baseURL:   strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:    logger,
	}
	s.queue = jobs.NewQueue("exports", s.process, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the render workers.
func (s *ExportService) Start(ctx context.Context) { s.queue.Start(ctx) }

// Stop drains and stops the render workers.
func (s *ExportService) Stop() { s.queue.Stop() }

// Request validates the export and queues the render.
func (s *ExportService) Request(ctx context.Context, req ExportRequest) error {
	if _, ok := s.renderers[req.Format]; !ok {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", req.Format))
	}
	if _, err := s.cases.Get(ctx, req.AccountID, req.CaseID); err != nil {
		return err
	}
	return s.queue.Enqueue(jobs.Job{
		ID:      uuid.New().String(),
		Type:    "export.render",
		Payload: req,
	})
}

func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(ExportRequest)
	if !ok {
		s.logger.Error("export job carries unexpected payload", zap.String("job_id", job.ID))
		return nil
	}

	c, err := s.cases.Get(ctx, req.AccountID, req.CaseID)
	if err != nil {
		return err
	}

	doc := BuildDocument(c, req.Extent, req.WordLimit)
	data, err := s.renderers[req.Format].Render(doc)
	if err != nil {
		return fmt.Errorf("render %s export: %w", req.Format, err)
	}

	filename := exportFilename(c.RefCode, req.Format)
	relPath, err := s.store.Save(filename, data)
	if err != nil {
		return fmt.Errorf("store export: %w", err)
	}

	token, expires, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return fmt.Errorf("sign export url: %w", err)
	}

	msg := reply.Message{
		Text: fmt.Sprintf("Your %s export of %s is ready. The link expires %s.",
			strings.ToUpper(string(req.Format)), c.RefCode, expires.Format("Jan 2 15:04 MST")),
		DocumentURL:  s.baseURL + "/exports/" + token,
		DocumentName: filename,
	}
	if err := s.deliverer.Deliver(ctx, req.PlatformID, msg); err != nil {
		return fmt.Errorf("deliver export link: %w", err)
	}

	s.logger.Info("export delivered",
		zap.String("case_id", c.ID),
		zap.String("format", string(req.Format)),
		zap.Int("bytes", len(data)))
	return nil
}

// Open resolves a signed download token to a stored file.
func (s *ExportService) Open(token string) (string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrForbidden, "download link is invalid or expired")
	}
	return s.store.Path(relPath), nil
}

// BuildDocument flattens a case into renderable sections, filtered by extent
// and optionally bounded to roughly wordLimit words.
func BuildDocument(c *models.Case, extent export.Extent, wordLimit int) export.Document {
	doc := export.Document{Title: c.Title, RefCode: c.RefCode}

	if extent == export.ExtentFull {
		doc.Sections = append(doc.Sections, export.Section{
			Heading:    "Case Facts",
			Paragraphs: splitParagraphs(c.Description),
		})
	}

	if extent == export.ExtentFull || extent == export.ExtentAnalysisOnly {
		if analysis, err := c.ParsedAnalysis(); err == nil && analysis.Category != "" {
			sec := export.Section{Heading: "Analysis"}
			sec.Paragraphs = append(sec.Paragraphs,
				fmt.Sprintf("Category: %s", analysis.Category),
				fmt.Sprintf("Viability score: %d/100", analysis.ViabilityScore))
			if len(analysis.KeyIssues) > 0 {
				sec.Paragraphs = append(sec.Paragraphs, "Key issues: "+strings.Join(analysis.KeyIssues, "; "))
			}
			for _, sc := range analysis.Scenarios {
				sec.Paragraphs = append(sec.Paragraphs,
					fmt.Sprintf("%s (%.0f%%): %s Recommended: %s", sc.Name, sc.Probability*100, sc.Description, sc.RecommendedAction))
			}
			doc.Sections = append(doc.Sections, sec)
		}
		if c.HasScenario() && extent == export.ExtentFull {
			doc.Sections = append(doc.Sections, export.Section{
				Heading:    "Scenario Simulation",
				Paragraphs: []string{string(c.Scenario)},
			})
		}
	}

	if extent == export.ExtentFull || extent == export.ExtentQAOnly {
		if log, err := c.ParsedQALog(); err == nil && len(log) > 0 {
			sec := export.Section{Heading: "Questions & Answers"}
			for _, entry := range log {
				sec.Paragraphs = append(sec.Paragraphs, "Q: "+entry.Question, "A: "+entry.Answer)
			}
			doc.Sections = append(doc.Sections, sec)
		}
	}

	if wordLimit > 0 {
		doc = capWords(doc, wordLimit)
	}
	return doc
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// capWords trims the document body once the running word count passes the
// limit. Headings are kept.
func capWords(doc export.Document, limit int) export.Document {
	budget := limit
	for i := range doc.Sections {
		var kept []string
		for _, p := range doc.Sections[i].Paragraphs {
			if budget <= 0 {
				break
			}
			words := strings.Fields(p)
			if len(words) > budget {
				p = strings.Join(words[:budget], " ") + "..."
				budget = 0
			} else {
				budget -= len(words)
			}
			kept = append(kept, p)
		}
		doc.Sections[i].Paragraphs = kept
	}
	return doc
}

func exportFilename(refCode string, format export.Format) string {
	ext := "pdf"
	if format == export.FormatWord {
		ext = "rtf"
	}
	safe := strings.ToLower(strings.ReplaceAll(refCode, " ", "-"))
	return fmt.Sprintf("case-%s-%s.%s", safe, uuid.New().String()[:8], ext)
}
