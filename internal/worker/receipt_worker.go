package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"vendapos/internal/config"
	"vendapos/internal/dto"
	"vendapos/internal/infra"
	"vendapos/internal/model"
	"vendapos/internal/repository"
	"vendapos/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Handlers wires the printing and mailing jobs. Mail delivery goes through
// the circuit breaker so a dead SMTP relay fails fast instead of tying up
// workers.
type Handlers struct {
	sales    repository.SaleRepository
	closures repository.ClosureRepository
	mailer   *infra.Mailer
	breaker  *infra.CircuitBreaker
	cfg      *config.Config
}

func NewHandlers(
	sales repository.SaleRepository,
	closures repository.ClosureRepository,
	mailer *infra.Mailer,
	breaker *infra.CircuitBreaker,
	cfg *config.Config,
) *Handlers {
	return &Handlers{sales: sales, closures: closures, mailer: mailer, breaker: breaker, cfg: cfg}
}

// Map returns the queue-to-handler registration for the pool.
func (h *Handlers) Map() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		service.QueueReceipts:       h.HandleReceipt,
		service.QueueClosureReports: h.HandleClosureReport,
	}
}

func (h *Handlers) HandleReceipt(ctx context.Context, payload json.RawMessage) error {
	var job service.ReceiptJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return err
	}
	id, err := uuid.Parse(job.SaleID)
	if err != nil {
		return err
	}
	sale, err := h.sales.FindByID(ctx, id)
	if err != nil {
		return err
	}

	path, err := infra.GenerateReceiptPDF(sale, h.cfg.StoreName, h.cfg.PDFStoragePath)
	if err != nil {
		return err
	}
	log.Info().Str("sale_id", job.SaleID).Str("path", path).Msg("receipt rendered")

	if job.CustomerEmail == "" {
		return nil
	}
	subject := fmt.Sprintf("%s - Receipt #%d", h.cfg.StoreName, sale.TicketNumber)
	body := fmt.Sprintf("Thank you for your purchase. Your receipt #%d is attached.", sale.TicketNumber)
	return h.breaker.Execute(func() error {
		return h.mailer.Send(job.CustomerEmail, subject, body, path)
	})
}

func (h *Handlers) HandleClosureReport(ctx context.Context, payload json.RawMessage) error {
	var job service.ClosureReportJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return err
	}
	id, err := uuid.Parse(job.ClosureID)
	if err != nil {
		return err
	}
	closure, err := h.closures.FindByID(ctx, id)
	if err != nil {
		return err
	}

	var methods dto.MethodTotals
	if err := json.Unmarshal(closure.MethodTotals, &methods); err != nil {
		return err
	}
	byMethod := map[string]decimal.Decimal{
		model.PayCash:        methods.Cash,
		model.PayPixTerminal: methods.PixTerminal,
		model.PayPixDirect:   methods.PixDirect,
		model.PayDebit:       methods.Debit,
		model.PayCredit:      methods.Credit,
	}

	path, err := infra.GenerateClosurePDF(closure, byMethod, h.cfg.StoreName, h.cfg.PDFStoragePath)
	if err != nil {
		return err
	}
	log.Info().Str("closure_id", job.ClosureID).Str("path", path).Msg("closure report rendered")

	if h.cfg.ReportEmail == "" {
		return nil
	}
	subject := fmt.Sprintf("%s - Closure report %s", h.cfg.StoreName, closure.Day.Format("2006-01-02"))
	body := fmt.Sprintf("End-of-session report for %s is attached. Final cash: %s.",
		closure.Day.Format("2006-01-02"), closure.FinalCashAmount.StringFixed(2))
	return h.breaker.Execute(func() error {
		return h.mailer.Send(h.cfg.ReportEmail, subject, body, path)
	})
}
