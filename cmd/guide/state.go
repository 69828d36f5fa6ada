package main

import (
	"encoding/json"
	"fmt"

	"browser-guide/internal/infrastructure/store"

	"github.com/spf13/cobra"
)

func newStateCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or delete the saved navigation task",
	}
	cmd.AddCommand(newStateShowCmd(flags), newStateClearCmd(flags))
	return cmd
}

func openStateStore(flags *rootFlags) (*store.SQLiteStore, error) {
	cfg := loadConfig(flags)
	if cfg.StatePath == "" {
		return nil, fmt.Errorf("no state database configured")
	}
	return store.NewSQLiteStore(cfg.StatePath)
}

func newStateShowCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved task as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStateStore(flags)
			if err != nil {
				return err
			}
			defer st.Close()

			state, found, err := st.Load(cmd.Context())
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved navigation")
				return nil
			}
			data, err := json.MarshalIndent(state, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newStateClearCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved task",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStateStore(flags)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved navigation cleared")
			return nil
		},
	}
}
