package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/tdash/internal/models"
	"github.com/marcus/tdash/internal/output"
	"github.com/marcus/tdash/internal/views"
)

var listCmd = &cobra.Command{
	Use:     "list [view]",
	Aliases: []string{"ls"},
	Short:   "List tasks in a view",
	Long: `List the tasks of one view: inbox, active, waiting, someday, deleted,
projects or all. "type=<type>" lists non-deleted tasks of one type.`,
	GroupID: "query",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		view, _ := cmd.Flags().GetString("view")
		if len(args) == 1 {
			view = args[0]
		}
		category, _ := cmd.Flags().GetString("category")
		tag, _ := cmd.Flags().GetString("tag")
		priority, _ := cmd.Flags().GetString("priority")
		jsonOut, _ := cmd.Flags().GetBool("json")

		return withSession(cmd.Context(), func(s *session) error {
			tasks, err := selectView(s, view)
			if err != nil {
				return err
			}
			if priority != "" {
				p, err := parsePriority(priority)
				if err != nil {
					return err
				}
				tasks = keep(tasks, func(t models.Task) bool { return t.Priority() == p })
			}
			if category != "" {
				tasks = keep(tasks, func(t models.Task) bool { return strings.EqualFold(t.Category, category) })
			}
			if tag != "" {
				tasks = keep(tasks, func(t models.Task) bool { return slices.Contains(t.Tags, tag) })
			}

			if jsonOut {
				if tasks == nil {
					tasks = []models.Task{}
				}
				return output.JSON(tasks)
			}

			if len(tasks) == 0 {
				fmt.Println("No tasks")
				return nil
			}
			width := output.TerminalWidth(0)
			if view != string(views.All) {
				for _, t := range tasks {
					fmt.Println(output.FormatTaskShort(t, width))
				}
				return nil
			}

			// the full collection is grouped by status
			for _, status := range models.AllStatuses() {
				group := keep(tasks, func(t models.Task) bool { return t.Status == status })
				if len(group) == 0 {
					continue
				}
				fmt.Print(output.SectionHeader(output.StatusBadge(status)))
				for _, t := range group {
					fmt.Println(output.FormatTaskShort(t, width))
				}
			}
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show every field of a task",
	GroupID: "query",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")
		return withSession(cmd.Context(), func(s *session) error {
			id, err := resolveID(s, args[0])
			if err != nil {
				return err
			}
			t, err := s.Task(id)
			if err != nil {
				return err
			}
			if jsonOut {
				return output.JSON(t)
			}
			fmt.Print(output.FormatTaskLong(t))
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show view counts and where writes are going",
	GroupID: "query",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")
		return withSession(cmd.Context(), func(s *session) error {
			counts := s.Counts()
			backend := "local"
			if s.IsRemote() {
				backend = "remote"
			}
			used, _ := s.store.Usage()

			if jsonOut {
				return output.JSON(map[string]any{
					"counts":           counts,
					"backend":          backend,
					"local_bytes":      used,
					"local_quota":      s.store.Quota(),
					"todo_completions": s.Ledger().TodoCompletions(),
				})
			}
			fmt.Println(output.FormatCounts(counts))
			fmt.Printf("Backend: %s\n", backend)
			fmt.Printf("Local store: %s of %s\n", output.FormatBytes(used), output.FormatBytes(s.store.Quota()))
			fmt.Printf("Todos completed: %d\n", s.Ledger().TodoCompletions())
			return nil
		})
	},
}

// selectView resolves a view name, including the type=<type> form.
func selectView(s *session, name string) ([]models.Task, error) {
	if typ, ok := strings.CutPrefix(name, "type="); ok {
		t, err := parseType(typ)
		if err != nil {
			return nil, err
		}
		return s.ViewByType(t), nil
	}
	if name == "waiting-for" {
		name = string(views.WaitingFor)
	}
	return s.View(views.Name(name))
}

func keep(tasks []models.Task, fn func(models.Task) bool) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if fn(t) {
			out = append(out, t)
		}
	}
	return out
}

func init() {
	listCmd.Flags().String("view", string(views.Active), "View to list")
	listCmd.Flags().String("category", "", "Only tasks in this category")
	listCmd.Flags().String("tag", "", "Only tasks carrying this tag")
	listCmd.Flags().StringP("priority", "p", "", "Only tasks with this priority")
	listCmd.Flags().Bool("json", false, "Output as JSON")
	showCmd.Flags().Bool("json", false, "Output as JSON")
	statusCmd.Flags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(statusCmd)
}
