// Command assess runs a single risk assessment from the command line:
// label text in, JSON assessment out. It uses only local resources
// plus an optional history database under the data directory.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard/pgx-risk-engine/internal/config"
	"github.com/pharmaguard/pgx-risk-engine/internal/domain"
	"github.com/pharmaguard/pgx-risk-engine/internal/history"
	"github.com/pharmaguard/pgx-risk-engine/internal/knowledge"
	"github.com/pharmaguard/pgx-risk-engine/internal/service"
)

func main() {
	var (
		text         = flag.String("text", "", "scanned label text to assess")
		textFile     = flag.String("text-file", "", "read the label text from a file instead of -text")
		variantsPath = flag.String("variants", "", "path to a JSON file with patient variants")
		save         = flag.Bool("save", false, "record the assessment in the local history database")
		list         = flag.Int("list", 0, "print the N most recent history records and exit")
		export       = flag.Bool("export", false, "dump the full history database as JSON and exit")
	)
	flag.Parse()

	cfg := config.LoadLiteConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)

	if *export {
		if err := exportHistory(cfg); err != nil {
			fatal(logger, err)
		}
		return
	}
	if *list > 0 {
		if err := printHistory(cfg, *list); err != nil {
			fatal(logger, err)
		}
		return
	}

	input, err := resolveText(*text, *textFile)
	if err != nil {
		fatal(logger, err)
	}
	if strings.TrimSpace(input) == "" {
		fmt.Fprintln(os.Stderr, "usage: assess -text \"WARFARIN 5MG\" [-variants patient.json] [-save]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	variants, err := loadVariants(*variantsPath)
	if err != nil {
		fatal(logger, err)
	}

	kb, err := knowledge.Load(cfg.AliasTablePath, cfg.DatabasePath, logger)
	if err != nil {
		fatal(logger, err)
	}
	resolver, err := service.NewResolver(kb, cfg.ResolverCacheSize, logger)
	if err != nil {
		fatal(logger, err)
	}
	assessor := service.NewAssessor(kb, resolver, logger)

	assessment := assessor.AssessRisk(input, variants)
	assessment.ID = uuid.New().String()
	assessment.Timestamp = time.Now().UTC()

	if *save {
		if err := saveHistory(cfg, input, assessment); err != nil {
			logger.WithError(err).Warn("Failed to record assessment history")
		}
	}

	out, err := json.MarshalIndent(assessment, "", "  ")
	if err != nil {
		fatal(logger, err)
	}
	fmt.Println(string(out))
}

// resolveText returns the label text from -text or, when -text-file is
// set, from the named file.
func resolveText(text, path string) (string, error) {
	if path == "" {
		return text, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading text file: %w", err)
	}
	return string(data), nil
}

// loadVariants reads patient variants from a JSON file holding either
// a bare array or an object with a "variants" key.
func loadVariants(path string) ([]domain.PatientVariant, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading variants file: %w", err)
	}

	var variants []domain.PatientVariant
	if err := json.Unmarshal(data, &variants); err == nil {
		return variants, nil
	}

	var wrapped struct {
		Variants []domain.PatientVariant `json:"variants"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parsing variants file %s: %w", path, err)
	}
	return wrapped.Variants, nil
}

func saveHistory(cfg *config.LiteConfig, text string, assessment domain.RiskAssessment) error {
	if err := cfg.EnsureDataDir(); err != nil {
		return err
	}
	store, err := history.NewSQLiteStore(cfg.HistoryDBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.Save(context.Background(), text, assessment)
	return err
}

func printHistory(cfg *config.LiteConfig, limit int) error {
	store, err := history.NewSQLiteStore(cfg.HistoryDBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(context.Background(), limit)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func exportHistory(cfg *config.LiteConfig) error {
	store, err := history.NewSQLiteStore(cfg.HistoryDBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Export(context.Background(), os.Stdout)
}

func newLogger(level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.WarnLevel
	}
	logger.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

func fatal(logger *logrus.Logger, err error) {
	logger.Error(err)
	os.Exit(1)
}
