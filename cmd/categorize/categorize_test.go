package categorize

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/txn-import/cmd/common"
	"fjacquet/txn-import/cmd/root"
	"fjacquet/txn-import/internal/categorizer"
	"fjacquet/txn-import/internal/config"
	"fjacquet/txn-import/internal/container"
	"fjacquet/txn-import/internal/database"
	"fjacquet/txn-import/internal/ledger"
	"fjacquet/txn-import/internal/logging"
	"fjacquet/txn-import/internal/models"
	"fjacquet/txn-import/internal/pending"
	"fjacquet/txn-import/internal/reconcile"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAI struct {
	category string
	err      error
}

func (s stubAI) Categorize(context.Context, categorizer.AIRequest) (categorizer.AIResponse, error) {
	if s.err != nil {
		return categorizer.AIResponse{}, s.err
	}
	return categorizer.AIResponse{Category: s.category, Confidence: 0.9, Model: "stub"}, nil
}

func setup(t *testing.T, ai categorizer.AIClient) (*config.Config, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Database.Path = filepath.Join(dir, "txn.db")
	cfg.Rules.File = filepath.Join(dir, "rules.yaml")
	cfg.Rules.DefaultCategory = "imported"
	cfg.Auth.User = "alice"
	root.AppConfig = cfg

	db, err := database.OpenAndMigrate(cfg.Database.Path)
	require.NoError(t, err)
	defer db.Close()
	date := time.Date(2021, 9, 14, 0, 0, 0, 0, time.UTC)
	_, err = pending.NewSQLiteStore(db, &logging.MockLogger{}).Insert(context.Background(), "checking", []models.ParsedTransaction{
		models.NewParsedTransaction(date, "Mystery Merchant", decimal.RequireFromString("-12.00"), "imported"),
	})
	require.NoError(t, err)

	if ai != nil {
		common.ContainerOptions = []container.Option{container.WithAIClient(ai)}
	}
	acceptAfter = false
	t.Cleanup(func() {
		root.AppConfig = nil
		common.ContainerOptions = nil
		acceptAfter = false
	})
	var out bytes.Buffer
	Cmd.SetOut(&out)
	return cfg, &out
}

func ledgerEntries(t *testing.T, cfg *config.Config) []models.Transaction {
	t.Helper()
	db, err := database.OpenAndMigrate(cfg.Database.Path)
	require.NoError(t, err)
	defer db.Close()
	txs, err := ledger.NewStore(db, &logging.MockLogger{}).List(context.Background(), ledger.ListFilter{})
	require.NoError(t, err)
	return txs
}

func TestCategorizeCommand_ShowsSuggestion(t *testing.T) {
	cfg, out := setup(t, stubAI{category: "Dining"})

	require.NoError(t, run(Cmd, []string{"1"}))

	assert.Contains(t, out.String(), "[ok] categorize: Categorized as dining")
	assert.Contains(t, out.String(), "Mystery Merchant")
	assert.Empty(t, ledgerEntries(t, cfg))
}

func TestCategorizeCommand_Accept(t *testing.T) {
	cfg, _ := setup(t, stubAI{category: "Dining"})
	acceptAfter = true

	require.NoError(t, run(Cmd, []string{"1"}))

	txs := ledgerEntries(t, cfg)
	require.Len(t, txs, 1)
	assert.Equal(t, "dining", txs[0].Category)
	assert.Equal(t, models.SourceAI, txs[0].CategorySource)
}

func TestCategorizeCommand_AIFailureKeepsRuleCategory(t *testing.T) {
	cfg, out := setup(t, stubAI{err: errors.New("quota exceeded")})
	acceptAfter = true

	assert.ErrorContains(t, run(Cmd, []string{"1"}), "quota exceeded")

	assert.Contains(t, out.String(), "[error] categorize: AI categorization failed")
	assert.Empty(t, ledgerEntries(t, cfg))
}

func TestCategorizeCommand_Disabled(t *testing.T) {
	setup(t, nil)

	assert.ErrorIs(t, run(Cmd, []string{"1"}), reconcile.ErrAIUnavailable)
}
