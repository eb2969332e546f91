/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/contacerta/apiserver/config"
	"github.com/contacerta/apiserver/internal/db"
	"github.com/contacerta/apiserver/internal/identity"
	"github.com/contacerta/apiserver/internal/reconcile"
	"github.com/contacerta/apiserver/internal/store"
	"github.com/spf13/cobra"
)

// reconcileCmd runs one drift sweep between the identity provider and the
// local users table.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Detect and heal drift between the identity provider and the local store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		sweeper := reconcile.NewSweeper(
			identity.NewGoTrueClient(cfg.Supabase),
			store.NewUserRepository(dbConn),
			nil,
		)

		report, err := sweeper.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("provider users: %d\n", report.ProviderUsers)
		fmt.Printf("local users:    %d\n", report.LocalUsers)
		fmt.Printf("backfilled:     %d\n", report.Backfilled)
		fmt.Printf("stranded local: %d\n", len(report.StrandedLocal))
		for _, id := range report.StrandedLocal {
			fmt.Printf("  - %s\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
