package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/visitlog/pkg/adapters/handler"
	"github.com/wadjakorntonsri/visitlog/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/visitlog/pkg/config"
	"github.com/wadjakorntonsri/visitlog/pkg/core/domain"
	"github.com/wadjakorntonsri/visitlog/pkg/logger"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportFormat := exportCmd.String("format", "csv", "Output format: csv or json")
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	listLimit := listCmd.Int("limit", 20, "Number of most recent visits to show")

	if len(os.Args) < 2 {
		fmt.Println("expected 'export' or 'list' subcommands")
		os.Exit(1)
	}

	cfg := config.Load()
	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to open visit store", zap.Error(err))
	}
	defer repo.Close()

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		if err := doExport(repo, *exportFormat); err != nil {
			log.Fatal("Export failed", zap.Error(err))
		}
	case "list":
		listCmd.Parse(os.Args[2:])
		if err := doList(repo, *listLimit); err != nil {
			log.Fatal("List failed", zap.Error(err))
		}
	default:
		fmt.Println("expected 'export' or 'list' subcommands")
		os.Exit(1)
	}
}

func doExport(repo *sqlite.SQLiteRepository, format string) error {
	visits, err := repo.ExportAll(context.Background())
	if err != nil {
		return err
	}

	switch format {
	case "csv":
		return handler.WriteCSV(os.Stdout, visits)
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(visits)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func doList(repo *sqlite.SQLiteRepository, limit int) error {
	visits, err := repo.List(context.Background(), limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tADDRESS\tPATH\tREFERER\tTIMESTAMP")
	for _, v := range visits {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", v.ID, v.Address, v.Path, v.Referer, v.Timestamp.Format(domain.TimestampLayout))
	}
	return tw.Flush()
}
