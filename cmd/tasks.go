package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/marcus/tdash/internal/dateparse"
	"github.com/marcus/tdash/internal/models"
	"github.com/marcus/tdash/internal/output"
)

var addCmd = &cobra.Command{
	Use:     "add [title]",
	Aliases: []string{"create", "new"},
	Short:   "Create a clarified task",
	Long:    `Create a task with optional type, priority, dates and GTD fields. New tasks are active unless --status says otherwise.`,
	GroupID: "core",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := draftFromFlags(cmd.Flags(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(s *session) error {
			t, err := s.AddTask(cmd.Context(), d)
			if err != nil {
				return err
			}
			return printTask(cmd, t, "CREATED")
		})
	},
}

var captureCmd = &cobra.Command{
	Use:     "capture [title]",
	Aliases: []string{"c", "inbox"},
	Short:   "Drop a thought into the inbox",
	GroupID: "core",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			t, err := s.QuickCapture(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printTask(cmd, t, "CAPTURED")
		})
	},
}

var clarifyCmd = &cobra.Command{
	Use:     "clarify <id>",
	Short:   "Move an inbox item to active with an Eisenhower quadrant",
	GroupID: "workflow",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		urgent, _ := cmd.Flags().GetBool("urgent")
		important, _ := cmd.Flags().GetBool("important")
		return runOnTask(cmd, args[0], "CLARIFIED", func(ctx context.Context, s *session, id string) (models.Task, error) {
			return s.Clarify(ctx, id, urgent, important)
		})
	},
}

var updateCmd = &cobra.Command{
	Use:     "update <id>",
	Aliases: []string{"edit"},
	Short:   "Change fields of a task",
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := patchFromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		return runOnTask(cmd, args[0], "UPDATED", func(ctx context.Context, s *session, id string) (models.Task, error) {
			return s.UpdateTask(ctx, id, p)
		})
	},
}

var doneCmd = &cobra.Command{
	Use:     "done <id>",
	Aliases: []string{"complete", "toggle"},
	Short:   "Toggle completion of a task",
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnTask(cmd, args[0], "", func(ctx context.Context, s *session, id string) (models.Task, error) {
			return s.CompleteTask(ctx, id)
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm", "trash"},
	Short:   "Move a task to the trash",
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnTask(cmd, args[0], "DELETED", func(ctx context.Context, s *session, id string) (models.Task, error) {
			return s.DeleteTask(ctx, id)
		})
	},
}

var restoreCmd = &cobra.Command{
	Use:     "restore <id>",
	Short:   "Bring a task back from the trash",
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnTask(cmd, args[0], "RESTORED", func(ctx context.Context, s *session, id string) (models.Task, error) {
			return s.RestoreTask(ctx, id)
		})
	},
}

var purgeCmd = &cobra.Command{
	Use:     "purge <id>",
	Short:   "Delete a task permanently",
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnTask(cmd, args[0], "PURGED", func(ctx context.Context, s *session, id string) (models.Task, error) {
			return s.PermanentlyDeleteTask(ctx, id)
		})
	},
}

var scheduleCmd = &cobra.Command{
	Use:     "schedule <id> [date]",
	Short:   "Set or clear the scheduled date",
	Long:    `Dates accept today, tomorrow, next-week, +3d, +2w, weekday names and YYYY-MM-DD. Omit the date to clear it.`,
	GroupID: "workflow",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var when *time.Time
		if len(args) == 2 {
			d, err := dateparse.Parse(args[1])
			if err != nil {
				return err
			}
			when = &d
		}
		return runOnTask(cmd, args[0], "SCHEDULED", func(ctx context.Context, s *session, id string) (models.Task, error) {
			return s.ScheduleTask(ctx, id, when)
		})
	},
}

var waitCmd = &cobra.Command{
	Use:     "wait <id> <person>",
	Aliases: []string{"delegate"},
	Short:   "Park a task while someone else acts on it",
	GroupID: "workflow",
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		who := strings.Join(args[1:], " ")
		return runOnTask(cmd, args[0], "WAITING", func(ctx context.Context, s *session, id string) (models.Task, error) {
			return s.MoveToWaitingFor(ctx, id, who)
		})
	},
}

var somedayCmd = &cobra.Command{
	Use:     "someday <id>",
	Aliases: []string{"defer"},
	Short:   "Defer a task to someday/maybe",
	GroupID: "workflow",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnTask(cmd, args[0], "DEFERRED", func(ctx context.Context, s *session, id string) (models.Task, error) {
			return s.MoveToSomeday(ctx, id)
		})
	},
}

var activateCmd = &cobra.Command{
	Use:     "activate <id>",
	Aliases: []string{"next"},
	Short:   "Make a task actionable again",
	GroupID: "workflow",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnTask(cmd, args[0], "ACTIVATED", func(ctx context.Context, s *session, id string) (models.Task, error) {
			return s.MoveToActive(ctx, id)
		})
	},
}

type taskOp func(ctx context.Context, s *session, id string) (models.Task, error)

// runOnTask resolves an id prefix, applies op and prints the result.
func runOnTask(cmd *cobra.Command, idArg, verb string, op taskOp) error {
	ctx := cmd.Context()
	return withSession(ctx, func(s *session) error {
		id, err := resolveID(s, idArg)
		if err != nil {
			return err
		}
		t, err := op(ctx, s, id)
		if err != nil {
			return err
		}
		if verb == "" {
			verb = "REOPENED"
			if t.Completed() {
				verb = "COMPLETED"
			}
		}
		return printTask(cmd, t, verb)
	})
}

func printTask(cmd *cobra.Command, t models.Task, verb string) error {
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		return output.JSON(t)
	}
	fmt.Printf("%s %s\n", verb, output.TaskOneLiner(t))
	return nil
}

func addTaskFlags(fs *pflag.FlagSet) {
	fs.StringP("description", "d", "", "Longer description")
	fs.StringP("type", "t", "", "Task type: todo, not-todo, project, reference")
	fs.StringP("priority", "p", "", "Priority: urgent, high, medium, low")
	fs.Bool("urgent", false, "Mark urgent")
	fs.Bool("important", false, "Mark important")
	fs.StringP("category", "c", "", "Category (default general)")
	fs.String("tags", "", "Comma-separated tags")
	fs.String("context", "", "GTD context, e.g. @home")
	fs.String("next-action", "", "Next physical action")
	fs.String("delegate", "", "Person the task is waiting on")
	fs.String("goal", "", "Goal id the task serves")
	fs.String("due", "", "Due date")
	fs.String("schedule", "", "Scheduled date")
	fs.Int("estimate", 0, "Time estimate in minutes")
}

func draftFromFlags(fs *pflag.FlagSet, title string) (models.Draft, error) {
	d := models.Draft{Title: title}
	d.Description, _ = fs.GetString("description")
	d.Category, _ = fs.GetString("category")
	d.Context, _ = fs.GetString("context")
	d.NextAction, _ = fs.GetString("next-action")
	d.DelegatedTo, _ = fs.GetString("delegate")
	d.GoalID, _ = fs.GetString("goal")

	if s, _ := fs.GetString("type"); s != "" {
		typ, err := parseType(s)
		if err != nil {
			return d, err
		}
		d.Type = typ
	}
	if s, _ := fs.GetString("status"); s != "" {
		st, err := parseStatus(s)
		if err != nil {
			return d, err
		}
		d.Status = st
	}
	if s, _ := fs.GetString("priority"); s != "" {
		p, err := parsePriority(s)
		if err != nil {
			return d, err
		}
		d.Priority = p
	}
	if fs.Changed("urgent") || fs.Changed("important") {
		u, _ := fs.GetBool("urgent")
		i, _ := fs.GetBool("important")
		d.Urgent, d.Important = &u, &i
	}
	if s, _ := fs.GetString("tags"); s != "" {
		d.Tags = splitTags(s)
	}
	var err error
	if d.DueDate, err = dateFlag(fs, "due"); err != nil {
		return d, err
	}
	if d.ScheduledDate, err = dateFlag(fs, "schedule"); err != nil {
		return d, err
	}
	if fs.Changed("estimate") {
		n, _ := fs.GetInt("estimate")
		d.TimeEstimate = &n
	}
	return d, nil
}

func patchFromFlags(fs *pflag.FlagSet) (models.Patch, error) {
	var p models.Patch
	str := func(name string) *string {
		if !fs.Changed(name) {
			return nil
		}
		v, _ := fs.GetString(name)
		return &v
	}
	p.Title = str("title")
	p.Description = str("description")
	p.Category = str("category")
	p.Context = str("context")
	p.NextAction = str("next-action")
	p.DelegatedTo = str("delegate")
	p.GoalID = str("goal")

	if s := str("type"); s != nil {
		typ, err := parseType(*s)
		if err != nil {
			return p, err
		}
		p.Type = &typ
	}
	if s := str("status"); s != nil {
		st, err := parseStatus(*s)
		if err != nil {
			return p, err
		}
		p.Status = &st
	}
	if s := str("priority"); s != nil {
		pr, err := parsePriority(*s)
		if err != nil {
			return p, err
		}
		p.Priority = &pr
	}
	if fs.Changed("urgent") {
		v, _ := fs.GetBool("urgent")
		p.Urgent = &v
	}
	if fs.Changed("important") {
		v, _ := fs.GetBool("important")
		p.Important = &v
	}
	if s := str("tags"); s != nil {
		p.Tags = splitTags(*s)
		if p.Tags == nil {
			p.Tags = []string{}
		}
	}
	var err error
	if p.DueDate, err = dateFlag(fs, "due"); err != nil {
		return p, err
	}
	if p.ScheduledDate, err = dateFlag(fs, "schedule"); err != nil {
		return p, err
	}
	if fs.Changed("estimate") {
		n, _ := fs.GetInt("estimate")
		p.TimeEstimate = &n
	}
	p.ClearDueDate, _ = fs.GetBool("clear-due")
	p.ClearScheduledDate, _ = fs.GetBool("clear-schedule")
	return p, nil
}

func dateFlag(fs *pflag.FlagSet, name string) (*time.Time, error) {
	s, _ := fs.GetString(name)
	if s == "" {
		return nil, nil
	}
	d, err := dateparse.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &d, nil
}

func parseType(s string) (models.Type, error) {
	t := models.NormalizeType(s)
	if !models.IsValidType(t) {
		return "", fmt.Errorf("invalid type: %s (valid: todo, not-todo, project, reference)", s)
	}
	return t, nil
}

func parseStatus(s string) (models.Status, error) {
	st := models.NormalizeStatus(s)
	if !models.IsValidStatus(st) {
		return "", fmt.Errorf("invalid status: %s (valid: inbox, active, waiting-for, someday, completed, deleted)", s)
	}
	return st, nil
}

func parsePriority(s string) (models.Priority, error) {
	p := models.NormalizePriority(s)
	if !models.IsValidPriority(p) {
		return "", fmt.Errorf("invalid priority: %s (valid: urgent, high, medium, low)", s)
	}
	return p, nil
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func init() {
	addTaskFlags(addCmd.Flags())
	addCmd.Flags().String("status", "", "Initial status (default active)")

	addTaskFlags(updateCmd.Flags())
	updateCmd.Flags().String("title", "", "New title")
	updateCmd.Flags().String("status", "", "New status")
	updateCmd.Flags().Bool("clear-due", false, "Remove the due date")
	updateCmd.Flags().Bool("clear-schedule", false, "Remove the scheduled date")

	clarifyCmd.Flags().BoolP("urgent", "u", false, "Task is urgent")
	clarifyCmd.Flags().BoolP("important", "i", false, "Task is important")

	for _, c := range []*cobra.Command{
		addCmd, captureCmd, clarifyCmd, updateCmd, doneCmd, deleteCmd, restoreCmd,
		purgeCmd, scheduleCmd, waitCmd, somedayCmd, activateCmd,
	} {
		c.Flags().Bool("json", false, "Print the resulting task as JSON")
		rootCmd.AddCommand(c)
	}
}
