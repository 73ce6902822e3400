package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
	"github.com/vibast-solutions/ms-go-entitlements/app/plan"
	"github.com/vibast-solutions/ms-go-entitlements/app/repository"
	"github.com/vibast-solutions/ms-go-entitlements/app/service"
	"github.com/vibast-solutions/ms-go-entitlements/config"

	_ "github.com/go-sql-driver/mysql"
)

var (
	codePlan      string
	codeEmail     string
	codeName      string
	codeOrderRef  string
	codeMaxUses   int32
	codeValidDays int
)

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "Operator commands for activation codes",
}

var codesGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Mint a new activation code",
	Run: func(_ *cobra.Command, _ []string) {
		planKey := entity.PlanKey("")
		if codePlan != "" {
			key, ok := plan.Canonicalize(codePlan)
			if !ok {
				logrus.WithField("plan", codePlan).Fatal("Unknown plan")
			}
			planKey = key
		}

		issuer, cleanup := mustCreateCodeIssuer()
		defer cleanup()

		code, err := issuer.Generate(context.Background(), service.IssueParams{
			PlanKey:        planKey,
			CustomerEmail:  codeEmail,
			CustomerName:   codeName,
			SourceOrderRef: codeOrderRef,
			MaxUses:        codeMaxUses,
			ValidFor:       time.Duration(codeValidDays) * 24 * time.Hour,
		})
		if err != nil {
			logrus.WithError(err).Fatal("Code generation failed")
		}

		fmt.Println(code)
	},
}

func init() {
	rootCmd.AddCommand(codesCmd)
	codesCmd.AddCommand(codesGenerateCmd)

	codesGenerateCmd.Flags().StringVar(&codePlan, "plan", "", "Plan to bind the code to (default: resolved from code content)")
	codesGenerateCmd.Flags().StringVar(&codeEmail, "email", "", "Customer email to bind")
	codesGenerateCmd.Flags().StringVar(&codeName, "name", "", "Customer name to bind")
	codesGenerateCmd.Flags().StringVar(&codeOrderRef, "order-ref", "", "External order reference")
	codesGenerateCmd.Flags().Int32Var(&codeMaxUses, "uses", 1, "Maximum redemptions")
	codesGenerateCmd.Flags().IntVar(&codeValidDays, "valid-days", 0, "Days until the code itself expires (0 = never)")
}

func mustCreateCodeIssuer() (*service.CodeIssuer, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	issuer := service.NewCodeIssuer(repository.NewActivationCodeRepository(db), cfg.Entitlements)

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return issuer, cleanup
}
