package workflow

import (
	"context"
	"os"

	"github.com/castrometro/sgm-contabilidad/config"
	"github.com/castrometro/sgm-contabilidad/models"
	"github.com/castrometro/sgm-contabilidad/utils"
	"github.com/shopspring/decimal"
)

const defaultBalanceTolerance = "1000"

// balanceTolerance is the absolute amount by which opening+debit-credit may
// deviate from zero before the ledger is flagged as unbalanced. Overridable
// with INGESTION_BALANCE_TOLERANCE.
func balanceTolerance() decimal.Decimal {
	raw := os.Getenv("INGESTION_BALANCE_TOLERANCE")
	if raw == "" {
		raw = defaultBalanceTolerance
	}
	tolerance, err := decimal.NewFromString(raw)
	if err != nil || tolerance.IsNegative() {
		tolerance, _ = decimal.NewFromString(defaultBalanceTolerance)
	}
	return tolerance
}

type IngestionInput struct {
	ClientId int `validate:"required,gt=0"`
	PeriodId int `validate:"required,gt=0"`
}

// IngestionResult summarizes one completed run. A file with zero monetary
// rows still yields a result, with counts at zero.
type IngestionResult struct {
	ClientId  int `json:"client_id"`
	PeriodId  int `json:"period_id"`
	Iteration int `json:"iteration"`

	RowsRead         int `json:"rows_read"`
	AccountsSeen     int `json:"accounts_seen"`
	AccountsCreated  int `json:"accounts_created"`
	OpeningBalances  int `json:"opening_balances"`
	MovementsCreated int `json:"movements_created"`

	Incidences []*models.Incidence  `json:"incidences"`
	Balance    BalanceCheck         `json:"balance"`
	Diff       *models.SnapshotDiff `json:"diff,omitempty"`
}

// RunIngestion executes one full ingestion of a ledger file for a period:
// parse, classify, validate balance, aggregate incidences, then one atomic
// flush. Re-running for the same period supersedes the prior run's data and
// bumps the iteration counter.
func RunIngestion(ctx context.Context, store Store, input IngestionInput, src RowSource) (*IngestionResult, error) {
	logger := config.GetLogger()

	if err := utils.ValidateStruct(input); err != nil {
		config.LogError(logger, "workflow", "RunIngestion", "validate input", utils.ProcessValidationErrors(err), err)
		return nil, err
	}

	client, err := store.GetClient(ctx, input.ClientId)
	if err != nil {
		config.LogError(logger, "workflow", "RunIngestion", "get client", input, err)
		return nil, err
	}
	period, err := store.GetPeriod(ctx, input.PeriodId)
	if err != nil {
		config.LogError(logger, "workflow", "RunIngestion", "get period", input, err)
		return nil, err
	}
	if period.ClientId != client.ID {
		return nil, utils.ErrorRecordNotFound
	}

	release, err := utils.PeriodLock(ctx, client.ID, period.ID, "workflow", "RunIngestion")
	if err != nil {
		return nil, err
	}
	defer release()

	iteration := period.Iteration + 1

	taxonomy, err := BuildTaxonomyIndex(ctx, store, client)
	if err != nil {
		config.LogError(logger, "workflow", "RunIngestion", "build taxonomy index", input, err)
		return nil, err
	}
	existing, err := store.LoadAccounts(ctx, client.ID)
	if err != nil {
		return nil, err
	}

	parser, err := NewLedgerParser(src, period.ClosingDate)
	if err != nil {
		config.LogError(logger, "workflow", "RunIngestion", "resolve header", input, err)
		return nil, err
	}

	resolver := NewClassificationResolver(taxonomy, existing)
	validator := NewBalanceValidator(taxonomy, balanceTolerance())
	aggregator := NewIncidenceAggregator()

	result := &IngestionResult{
		ClientId:  client.ID,
		PeriodId:  period.ID,
		Iteration: iteration,
	}
	var openings []*PendingOpening
	var movements []*PendingMovement
	openedAccounts := make(map[string]bool)

	for {
		cells, ok, err := src.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		result.RowsRead++

		event := parser.ParseRow(cells)
		switch event.Kind {
		case rowSkipped:
			continue

		case rowOpening:
			outcome := resolver.Resolve(event.AccountCode, event.AccountName)
			// a repeated sentinel for the same account re-opens the block
			// without duplicating its opening balance or findings
			if openedAccounts[event.AccountCode] {
				continue
			}
			openedAccounts[event.AccountCode] = true
			for _, finding := range outcome.Findings {
				aggregator.Add(finding)
			}
			openings = append(openings, &PendingOpening{
				AccountCode: event.AccountCode,
				Amount:      event.Opening,
			})
			validator.AddOpening(event.AccountCode, event.Opening)

		case rowMovement:
			if event.Incomplete {
				aggregator.Add(Finding{
					Kind:        models.IncidenceKindIncompleteMovement,
					AccountCode: event.AccountCode,
				})
			}
			if event.DateFallback {
				aggregator.Add(Finding{
					Kind:        models.IncidenceKindInvalidDate,
					AccountCode: event.AccountCode,
				})
			}
			switch {
			case event.DocTypeCode == "":
				if !taxonomy.IsKindExempt(models.IncidenceKindEmptyDocType, event.AccountCode) {
					aggregator.Add(Finding{
						Kind:        models.IncidenceKindEmptyDocType,
						AccountCode: event.AccountCode,
					})
				}
			case !taxonomy.KnownDocType(event.DocTypeCode):
				if !taxonomy.IsKindExempt(models.IncidenceKindUnknownDocType, event.AccountCode) {
					aggregator.Add(Finding{
						Kind:        models.IncidenceKindUnknownDocType,
						AccountCode: event.AccountCode,
						DocTypeCode: event.DocTypeCode,
					})
				}
			}

			movements = append(movements, &PendingMovement{
				AccountCode: event.AccountCode,
				Movement: models.Movement{
					Date:              event.Date,
					DateFallback:      event.DateFallback,
					Debit:             event.Debit,
					Credit:            event.Credit,
					Incomplete:        event.Incomplete,
					Description:       event.Description,
					DocTypeCode:       event.DocTypeCode,
					DocNumber:         event.DocNumber,
					ComprobanteNumber: event.ComprobanteNumber,
					InternalNumber:    event.InternalNumber,
					CostCenter:        event.CostCenter,
					Auxiliary:         event.Auxiliary,
					ExpenseDetail:     event.ExpenseDetail,
				},
			})
			validator.AddMovement(event.AccountCode, event.Debit, event.Credit)
		}
	}

	result.Balance = validator.Result()
	if !result.Balance.Balanced {
		aggregator.Add(Finding{Kind: models.IncidenceKindUnbalancedLedger})
	}

	result.Incidences = aggregator.Finalize(period.ID)
	snapshot, err := aggregator.Snapshot(period.ID, iteration)
	if err != nil {
		return nil, err
	}
	previous, err := store.LatestSnapshot(ctx, period.ID)
	if err != nil {
		return nil, err
	}
	diff, err := aggregator.Diff(previous)
	if err != nil {
		return nil, err
	}
	result.Diff = diff

	batch := &PeriodBatch{
		ClientId:        client.ID,
		PeriodId:        period.ID,
		Iteration:       iteration,
		NewAccounts:     resolver.NewAccounts(),
		NameUpdates:     resolver.NameUpdates(),
		BackfillCodes:   resolver.BackfillCodes(),
		OpeningBalances: openings,
		Movements:       movements,
		Incidences:      result.Incidences,
		Snapshot:        snapshot,
	}
	if err := store.ReplacePeriodData(ctx, batch); err != nil {
		config.LogError(logger, "workflow", "RunIngestion", "flush period batch", input, err)
		return nil, err
	}

	result.AccountsSeen = len(openedAccounts)
	result.AccountsCreated = len(resolver.NewAccounts())
	result.OpeningBalances = len(openings)
	result.MovementsCreated = len(movements)

	config.LogInfo(logger, "workflow", "RunIngestion", "ingestion completed", map[string]interface{}{
		"client_id":  client.ID,
		"period_id":  period.ID,
		"iteration":  iteration,
		"rows":       result.RowsRead,
		"movements":  result.MovementsCreated,
		"accounts":   result.AccountsSeen,
		"incidences": len(result.Incidences),
		"balanced":   result.Balance.Balanced,
	})
	return result, nil
}
