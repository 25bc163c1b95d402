// Command integrity-scan runs the corruption detector and auto-repair over a
// JSON export of memory records and prints a report. Repaired records are
// written back out so the export can be re-imported.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"memvault/application/services"
	"memvault/domain/core/entities"
	"memvault/infrastructure/config"
	"memvault/infrastructure/di"
)

func main() {
	var (
		inPath     = flag.String("in", "", "path to a JSON array of memory records")
		outPath    = flag.String("out", "", "where to write the repaired records (default: detect only)")
		configPath = flag.String("config", "", "optional YAML config file")
		detectOnly = flag.Bool("detect-only", false, "report issues without repairing")
	)
	flag.Parse()

	if *inPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadConfigFile(*configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize dependency container
	container, err := di.InitializeContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer container.Logger.Sync()

	records, err := loadRecords(*inPath)
	if err != nil {
		container.Logger.Fatal("Failed to load records", zap.Error(err))
	}

	container.Logger.Info("Scanning records",
		zap.Int("count", len(records)),
		zap.String("environment", cfg.Environment),
	)

	if *detectOnly || !cfg.RepairEnabled {
		issues := container.Validation.DetectDataCorruption(records)
		printIssues(issues)
		if len(issues) > 0 {
			os.Exit(1)
		}
		return
	}

	report := runBatches(container.Validation, records, cfg.ScanBatchSize)
	printIssues(report.Issues)
	fmt.Printf("total=%d repaired=%d corrupted=%d\n", report.Total, report.Repaired, report.Corrupted)

	if *outPath != "" {
		if err := writeRecords(*outPath, records); err != nil {
			container.Logger.Fatal("Failed to write repaired records", zap.Error(err))
		}
		container.Logger.Info("Wrote repaired records", zap.String("path", *outPath))
	}

	if report.Corrupted > 0 && cfg.FailOnResidual {
		os.Exit(1)
	}
}

// runBatches scans the records in fixed-size batches and merges the reports
func runBatches(svc *services.ValidationService, records []*entities.Memory, batchSize int) services.DataIntegrityReport {
	var total services.DataIntegrityReport
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		report := svc.DetectAndRepairData(records[start:end])
		total.Total += report.Total
		total.Corrupted += report.Corrupted
		total.Repaired += report.Repaired
		total.Issues = append(total.Issues, report.Issues...)
	}
	return total
}

func loadRecords(path string) ([]*entities.Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []*entities.Memory
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return records, nil
}

func writeRecords(path string, records []*entities.Memory) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func printIssues(issues []services.DataIssue) {
	for _, issue := range issues {
		fmt.Printf("%s\t%s\t%s\n", issue.RecordID, issue.Field, issue.Kind)
	}
}
