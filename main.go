// Package main is the entry point of the txn-import CLI.
package main

import (
	"fmt"
	"os"
	"strings"

	"fjacquet/txn-import/cmd/accept"
	"fjacquet/txn-import/cmd/categorize"
	"fjacquet/txn-import/cmd/discard"
	"fjacquet/txn-import/cmd/importcmd"
	"fjacquet/txn-import/cmd/ledger"
	"fjacquet/txn-import/cmd/pending"
	"fjacquet/txn-import/cmd/review"
	"fjacquet/txn-import/cmd/root"
	"fjacquet/txn-import/cmd/rules"
	"fjacquet/txn-import/cmd/validate"
	"fjacquet/txn-import/internal/config"

	"github.com/sirupsen/logrus"
)

func init() {
	// Environment first, so the early log level below sees .env values.
	_, _ = config.LoadEnv()
	root.Log.SetLevel(earlyLogLevel())

	root.Init()
	root.Cmd.AddCommand(
		validate.Cmd,
		importcmd.Cmd,
		pending.Cmd,
		accept.Cmd,
		discard.Cmd,
		categorize.Cmd,
		review.Cmd,
		ledger.Cmd,
		rules.Cmd,
	)
}

// earlyLogLevel is the level used until the configuration is loaded.
func earlyLogLevel() logrus.Level {
	level, err := logrus.ParseLevel(strings.ToLower(os.Getenv(config.EnvPrefix + "_LOG_LEVEL")))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
