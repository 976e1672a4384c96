package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fota-tools/fotactl/internal/config"
	"github.com/fota-tools/fotactl/pkg/db"
	"github.com/fota-tools/fotactl/pkg/errors"
)

var historyPrune bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past download attempts",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVar(&historyPrune, "prune", false, "Remove finished attempts after listing")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config load failed")
	}

	// Ensure database directory exists
	if err := ensureDirectories(cfg.SQLitePath, ""); err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.SQLitePath)
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer repo.Close()

	attempts, err := repo.List()
	if err != nil {
		return errors.Wrap(err, "list failed")
	}

	if len(attempts) == 0 {
		fmt.Println("No attempts found")
	} else {
		fmt.Printf("%-38s %-12s %-30s %-10s %-20s\n", "ATTEMPT", "STATUS", "URI", "BYTES", "CREATED")
		fmt.Println("--------------------------------------------------------------------------------------------------------------")

		for _, a := range attempts {
			uri := a.URI
			if len(uri) > 30 {
				uri = uri[:27] + "..."
			}
			fmt.Printf("%-38s %-12s %-30s %-10d %-20s\n",
				a.AttemptID, a.Status, uri, a.Bytes, a.CreatedAt)
		}
	}

	if historyPrune {
		removed, err := repo.PruneTerminal()
		if err != nil {
			return errors.Wrap(err, "prune failed")
		}
		fmt.Printf("🧹 Pruned %d finished attempts\n", removed)
	}

	return nil
}
