package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/castrometro/sgm-contabilidad/config"
	"github.com/castrometro/sgm-contabilidad/models"
	"github.com/castrometro/sgm-contabilidad/utils"
	"github.com/castrometro/sgm-contabilidad/workflow"
	"github.com/google/uuid"
)

func main() {
	file := flag.String("file", "", "Path to the ledger spreadsheet (xlsx)")
	sheet := flag.String("sheet", "", "Sheet name (default: first sheet)")
	clientId := flag.Int("client", 0, "Client id")
	periodId := flag.Int("period", 0, "Period id")
	flag.Parse()

	if *file == "" || *clientId <= 0 || *periodId <= 0 {
		fmt.Fprintln(os.Stderr, "usage: ingest-ledger -file <path> -client <id> -period <id> [-sheet <name>]")
		os.Exit(1)
	}

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

	f, err := os.Open(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open ledger file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	src, err := workflow.NewExcelRowSource(f, *sheet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read ledger file: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()

	result, err := workflow.RunIngestion(ctx, workflow.NewGormStore(), workflow.IngestionInput{
		ClientId: *clientId,
		PeriodId: *periodId,
	}, src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ingestion failed: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
