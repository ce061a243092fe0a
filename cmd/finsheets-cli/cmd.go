package main

import (
	"time"

	"github.com/spf13/cobra"
)

func SetupCommands(newApp func(appConfig) (*App, error)) *cobra.Command {
	var a *App

	rootCmd := &cobra.Command{
		Use:           "finsheets-cli",
		Short:         "Monthly finance sheets from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			a, err = newApp(cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a == nil {
				return nil
			}
			return a.Close()
		},
	}
	registerFlags(rootCmd.PersistentFlags())

	loginCmd := &cobra.Command{
		Use:   "login [password]",
		Short: "Unlock and remember the session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) > 0 {
				password = args[0]
			}
			return a.Login(cmd.Context(), password)
		},
	}

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the remembered session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Logout()
		},
	}

	sheetsCmd := &cobra.Command{
		Use:   "sheets",
		Short: "List sheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ListSheets(cmd.Context())
		},
	}

	useCmd := &cobra.Command{
		Use:   "use <sheet-id>",
		Short: "Select the current sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Use(cmd.Context(), args[0])
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Show(cmd.Context())
		},
	}

	now := time.Now()
	var month, year int
	createCmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a sheet with one row per day",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) > 0 {
				name = args[0]
			}
			return a.Create(cmd.Context(), name, month, year)
		},
	}
	createCmd.Flags().IntVar(&month, "month", int(now.Month()), "month 1-12")
	createCmd.Flags().IntVar(&year, "year", now.Year(), "four-digit year")

	setCmd := &cobra.Command{
		Use:       "set <entry-id> <field> <value>",
		Short:     "Edit overview, amount or work of an entry",
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"overview", "amount", "work"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Set(cmd.Context(), args[0], args[1], args[2])
		},
	}
	// values such as -20000 are amounts, not shorthand flags
	setCmd.Flags().SetInterspersed(false)

	addCmd := &cobra.Command{
		Use:   "add <DD/MM/YYYY | day>",
		Short: "Add another entry for a day of the current sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Add(cmd.Context(), args[0])
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm <entry-id>",
		Short: "Delete an entry (never the last one of a day)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Remove(cmd.Context(), args[0])
		},
	}

	dropCmd := &cobra.Command{
		Use:   "drop <sheet-id>",
		Short: "Delete a sheet and all its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Drop(cmd.Context(), args[0])
		},
	}

	rootCmd.AddCommand(loginCmd, logoutCmd, sheetsCmd, useCmd, showCmd,
		createCmd, setCmd, addCmd, rmCmd, dropCmd)
	return rootCmd
}
