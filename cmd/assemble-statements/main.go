package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/castrometro/sgm-contabilidad/config"
	"github.com/castrometro/sgm-contabilidad/models"
	"github.com/castrometro/sgm-contabilidad/models/reports"
	"github.com/castrometro/sgm-contabilidad/utils"
	"github.com/google/uuid"
)

func main() {
	clientId := flag.Int("client", 0, "Client id")
	periodId := flag.Int("period", 0, "Period id")
	kindsFlag := flag.String("kinds", "ESF,ERI,ECP", "Comma-separated statement kinds to assemble")
	includeUnmapped := flag.Bool("include-unmapped", false, "Place unmapped accounts under an explicit Sin Clasificar section")
	flag.Parse()

	if *clientId <= 0 || *periodId <= 0 {
		fmt.Fprintln(os.Stderr, "usage: assemble-statements -client <id> -period <id> [-kinds ESF,ERI,ECP]")
		os.Exit(1)
	}

	var kinds []models.StatementKind
	for _, raw := range strings.Split(*kindsFlag, ",") {
		kind := models.StatementKind(strings.ToUpper(strings.TrimSpace(raw)))
		if !kind.Valid() {
			fmt.Fprintf(os.Stderr, "unknown statement kind: %s\n", raw)
			os.Exit(1)
		}
		kinds = append(kinds, kind)
	}
	kinds = utils.UniqueSlice(kinds)

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx := context.Background()
	ctx = utils.SetClientIdInContext(ctx, *clientId)
	ctx = utils.SetPeriodIdInContext(ctx, *periodId)
	ctx = utils.SetCorrelationIdInContext(ctx, uuid.NewString())

	assembler := reports.NewAssembler(
		reports.NewGormReportStore(),
		reports.NewRedisStatementCache(),
		reports.AssemblerOptions{IncludeUnmapped: *includeUnmapped},
		func(clientId int, periodId int) {
			fmt.Printf("evicted cached statements for client=%d period=%d\n", clientId, periodId)
		},
	)

	assembled, failures := assembler.AssembleAll(ctx, *clientId, *periodId, kinds)
	for _, kind := range kinds {
		if statement, ok := assembled[kind]; ok {
			fmt.Printf("%s: total=%s excluded_accounts=%d\n", kind, statement.Total.String(), statement.ExcludedAccounts)
			continue
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", kind, failures[kind])
	}
	if len(failures) == len(kinds) {
		os.Exit(1)
	}
}
