package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marcus/tdash/internal/db"
	"github.com/marcus/tdash/internal/output"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import tasks from the older action list and GTD exports",
	Long: `Stage legacy JSON exports and run the one-time migration into the unified
collection. The migration only runs while signed out and while the collection
is still empty.`,
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		actions, _ := cmd.Flags().GetString("actions")
		gtd, _ := cmd.Flags().GetString("gtd")
		force, _ := cmd.Flags().GetBool("force")
		if actions == "" && gtd == "" {
			return errors.New("nothing to import: pass --actions and/or --gtd")
		}

		store, err := db.Open(getBaseDir())
		if err != nil {
			return err
		}
		for key, path := range map[string]string{db.LegacyActionsKey: actions, db.LegacyGTDKey: gtd} {
			if path == "" {
				continue
			}
			if err := stageLegacy(store, key, path); err != nil {
				store.Close()
				return err
			}
		}
		_, done, err := store.Get(db.MigratedFlagKey)
		if err == nil && done && force {
			err = store.Delete(db.MigratedFlagKey)
			done = false
		}
		store.Close()
		if err != nil {
			return err
		}
		if done {
			output.Warning("legacy data was already migrated; use --force to run again")
			return nil
		}

		return withSession(cmd.Context(), func(s *session) error {
			raw, ran, err := s.store.Get(db.MigratedFlagKey)
			if err != nil {
				return err
			}
			if !ran {
				if s.IsRemote() {
					output.Warning("signed in: sign out to migrate local legacy data")
				} else {
					output.Warning("collection is not empty: nothing migrated")
				}
				return nil
			}
			var flag struct {
				Count int `json:"count"`
			}
			if err := json.Unmarshal([]byte(raw), &flag); err != nil {
				return fmt.Errorf("read migrated flag: %w", err)
			}
			if flag.Count == 0 {
				output.Info("No legacy tasks to migrate")
				return nil
			}
			output.Success("Migrated %d legacy tasks", flag.Count)
			return nil
		})
	},
}

// stageLegacy copies a JSON array export into its legacy key.
func stageLegacy(store *db.DB, key, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("%s: expected a JSON array: %w", path, err)
	}
	return store.Set(key, string(data))
}

func init() {
	importCmd.Flags().String("actions", "", "Action list export (JSON array)")
	importCmd.Flags().String("gtd", "", "GTD export (JSON array)")
	importCmd.Flags().Bool("force", false, "Clear the migrated flag and run again")

	rootCmd.AddCommand(importCmd)
}
