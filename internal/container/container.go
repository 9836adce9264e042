// Package container provides dependency injection for the txn-import
// application. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fjacquet/txn-import/internal/acceptance"
	"fjacquet/txn-import/internal/categorizer"
	"fjacquet/txn-import/internal/config"
	"fjacquet/txn-import/internal/database"
	"fjacquet/txn-import/internal/ids"
	"fjacquet/txn-import/internal/ledger"
	"fjacquet/txn-import/internal/logging"
	"fjacquet/txn-import/internal/parser"
	"fjacquet/txn-import/internal/pending"
	"fjacquet/txn-import/internal/reconcile"
	"fjacquet/txn-import/internal/store"
)

// Container holds all application dependencies and provides methods to
// access them. It is immutable after creation.
type Container struct {
	logger   logging.Logger
	config   *config.Config
	db       *sql.DB
	pending  *pending.SQLiteStore
	ledger   *ledger.Store
	issuer   ids.Issuer
	rules    *store.CategoryStore
	ruleCat  *categorizer.RuleCategorizer
	gemini   *categorizer.GeminiClient
	aiClient categorizer.AIClient
	ai       *categorizer.AIAdapter
	parser   *parser.LineParser
	workflow *acceptance.Workflow
}

// Option customizes NewContainer.
type Option func(*options)

type options struct {
	logger   logging.Logger
	aiClient categorizer.AIClient
	issuer   ids.Issuer
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithAIClient uses client instead of connecting to Gemini, regardless of
// ai.enabled.
func WithAIClient(client categorizer.AIClient) Option {
	return func(o *options) { o.aiClient = client }
}

// WithIssuer replaces the UUID issuer.
func WithIssuer(issuer ids.Issuer) Option {
	return func(o *options) { o.issuer = issuer }
}

// NewContainer creates and wires all application dependencies.
// Callers must Close the container to release the database.
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// Create logger first as it's needed by other components
	logger := o.logger
	if logger == nil {
		logger = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
	}

	db, err := database.OpenAndMigrate(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	c := &Container{
		logger:  logger,
		config:  cfg,
		db:      db,
		pending: pending.NewSQLiteStore(db, logger),
		ledger:  ledger.NewStore(db, logger),
		issuer:  o.issuer,
	}
	if c.issuer == nil {
		c.issuer = ids.NewUUIDIssuer()
	}

	c.rules = store.NewCategoryStore(cfg.Rules.File, logger)
	c.ruleCat, err = categorizer.NewRuleCategorizerFromSource(c.rules, cfg.Rules.DefaultCategory, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load categorization rules: %w", err)
	}

	c.aiClient = o.aiClient
	if c.aiClient == nil && cfg.AI.Enabled {
		c.gemini, err = categorizer.NewGeminiClient(context.Background(), categorizer.GeminiOptions{
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			Temperature: float32(cfg.AI.Temperature),
			Timeout:     cfg.AITimeout(),
		}, logger)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		c.aiClient = c.gemini
	}
	if c.aiClient != nil {
		c.ai = categorizer.NewAIAdapter(c.aiClient, logger)
		logger.Info("AI categorization enabled", logging.Field{Key: logging.FieldModel, Value: cfg.AI.Model})
	} else {
		logger.Debug("AI categorization disabled")
	}

	c.parser = parser.NewLineParser(c.ruleCat, logger)
	c.workflow = acceptance.NewWorkflow(c.issuer, c.ledger, c.pending, logger)

	logger.Debug("Container initialized",
		logging.Field{Key: logging.FieldDatabase, Value: cfg.Database.Path},
		logging.Field{Key: "ai_enabled", Value: c.ai != nil})

	return c, nil
}

// NewReconciler builds a working set manager over the pending store.
// A nil notifier logs notifications.
func (c *Container) NewReconciler(notifier reconcile.Notifier) *reconcile.Reconciler {
	var ai reconcile.AICategorizer
	if c.ai != nil {
		ai = c.ai
	}
	return reconcile.New(c.pending, c.workflow, c.ruleCat, ai, notifier, c.logger, reconcile.Options{
		AIHint: c.config.Rules.AIHint,
	})
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger { return c.logger }

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config { return c.config }

// GetParser returns the line parser.
func (c *Container) GetParser() *parser.LineParser { return c.parser }

// GetRuleCategorizer returns the rule-based categorizer.
func (c *Container) GetRuleCategorizer() *categorizer.RuleCategorizer { return c.ruleCat }

// GetRuleStore returns the YAML rule store.
func (c *Container) GetRuleStore() *store.CategoryStore { return c.rules }

// GetPendingStore returns the pending record store.
func (c *Container) GetPendingStore() *pending.SQLiteStore { return c.pending }

// GetLedger returns the permanent transaction store.
func (c *Container) GetLedger() *ledger.Store { return c.ledger }

// GetAIClient returns the AI client, or nil when AI is disabled.
func (c *Container) GetAIClient() categorizer.AIClient { return c.aiClient }

// AIEnabled reports whether on-demand AI categorization is available.
func (c *Container) AIEnabled() bool { return c.ai != nil }

// Close releases the database and the Gemini connection.
func (c *Container) Close() error {
	var errs []error
	if c.gemini != nil {
		errs = append(errs, c.gemini.Close())
	}
	if c.db != nil {
		errs = append(errs, c.db.Close())
	}
	return errors.Join(errs...)
}
