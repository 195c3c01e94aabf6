package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/KeyIP-Docket/pkg/client"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// NewTasksCmd returns the docket tasks subcommand.
func NewTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Submit and manage tasks",
		Long: `Submit new tasks and drive existing ones through their lifecycle.

A submission creates the task together with its asset, due dates and
accrual. Side effects that fail (document upload, bulletin promotion,
assignment) are reported as warnings; the task itself is kept.`,
	}

	cmd.AddCommand(
		newTaskSubmitCmd(),
		newTaskListCmd(),
		newTaskGetCmd(),
		newTaskStatusCmd(),
		newTaskAssignCmd(),
		newTaskCompleteCmd(),
		newTaskAttachCmd(),
		newTaskDetachCmd(),
		newTaskDeleteCmd(),
	)
	return cmd
}

// readRequestFile decodes a JSON document from path, or stdin for "-".
func readRequestFile(cmd *cobra.Command, path string, dst interface{}) error {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, errors.CodeInvalidParam, "cannot open %s", path)
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrapf(err, errors.CodeInvalidParam, "invalid request document %s", path)
	}
	return nil
}

func parseDateFlag(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidParam, "--%s must be YYYY-MM-DD", name)
	}
	return &t, nil
}

func newTaskSubmitCmd() *cobra.Command {
	var (
		file           string
		taskType       string
		title          string
		description    string
		priority       string
		assetID        string
		bulletinID     string
		assignee       string
		officialDue    string
		free           bool
		idempotencyKey string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new task",
		Long: `Submit a task. The request is read from --file as JSON (use "-" for stdin);
flags override the matching fields of the document.

Examples:
  docket tasks submit --type general --title "Call client" --free
  docket tasks submit -f filing.json --idempotency-key form-000042`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &client.SubmitTaskRequest{}
			if file != "" {
				if err := readRequestFile(cmd, file, req); err != nil {
					return err
				}
			}

			flags := cmd.Flags()
			if flags.Changed("type") {
				req.TaskType = taskType
			}
			if flags.Changed("title") {
				req.Title = title
			}
			if flags.Changed("description") {
				req.Description = description
			}
			if flags.Changed("priority") {
				req.Priority = priority
			}
			if flags.Changed("asset") {
				req.AssetID = assetID
			}
			if flags.Changed("bulletin") {
				req.BulletinID = bulletinID
			}
			if flags.Changed("assignee") {
				req.Assignee = &client.Assignee{ID: assignee}
			}
			if flags.Changed("free") {
				req.Billing.Free = free
			}
			if flags.Changed("official-due") {
				due, err := parseDateFlag("official-due", officialDue)
				if err != nil {
					return err
				}
				req.OfficialDueDate = due
			}
			if strings.TrimSpace(req.TaskType) == "" {
				return errors.New(errors.ErrCodeTaskTypeRequired, "task type is required (--type or task_type in --file)")
			}

			c, ctx, cancel, err := remote(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			res, err := c.Tasks().Submit(ctx, req, idempotencyKey)
			if err != nil {
				return err
			}
			return PrintResult(cmd, submitView{res})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON request document (\"-\" for stdin)")
	cmd.Flags().StringVarP(&taskType, "type", "t", "", "task type")
	cmd.Flags().StringVar(&title, "title", "", "task title (default: derived from the task type)")
	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringVar(&priority, "priority", "", "priority (low, medium, high, urgent)")
	cmd.Flags().StringVar(&assetID, "asset", "", "existing asset id")
	cmd.Flags().StringVar(&bulletinID, "bulletin", "", "bulletin entry id for opposition tasks")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee user id (default: the assignment rule)")
	cmd.Flags().StringVar(&officialDue, "official-due", "", "official due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&free, "free", false, "the transaction carries no fee")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "reject concurrent submissions that share this key")

	return cmd
}

func newTaskListCmd() *cobra.Command {
	var opts client.TaskListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long:  "List the tasks of an assignee (default: the calling user), optionally filtered by status.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := remote(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			list, err := c.Tasks().List(ctx, opts)
			if err != nil {
				return err
			}
			return PrintResult(cmd, taskListView(list.Items))
		},
	}

	cmd.Flags().StringVar(&opts.Assignee, "assignee", "", "assignee user id")
	cmd.Flags().StringVar(&opts.Status, "status", "", "status (open, in-progress, pending, on-hold, completed, cancelled)")
	return cmd
}

func newTaskGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get TASK_ID",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := remote(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			t, err := c.Tasks().Get(ctx, args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, taskView{t})
		},
	}
}

func newTaskStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status TASK_ID STATUS",
		Short: "Change the status of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := remote(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			t, err := c.Tasks().ChangeStatus(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return PrintResult(cmd, taskView{t})
		},
	}
}

func newTaskAssignCmd() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "assign TASK_ID USER_ID",
		Short: "Reassign a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := remote(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			t, err := c.Tasks().Assign(ctx, args[0], client.Assignee{ID: args[1], Name: name, Email: email})
			if err != nil {
				return err
			}
			return PrintResult(cmd, taskView{t})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "assignee display name")
	cmd.Flags().StringVar(&email, "email", "", "assignee email")
	return cmd
}

func newTaskCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete TASK_ID",
		Short: "Complete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := remote(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			t, err := c.Tasks().Complete(ctx, args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, taskView{t})
		},
	}
}

func newTaskAttachCmd() *cobra.Command {
	var contentType string

	cmd := &cobra.Command{
		Use:   "attach TASK_ID FILE",
		Short: "Attach a document to a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[1])
			if err != nil {
				return errors.Wrapf(err, errors.CodeInvalidParam, "cannot read %s", args[1])
			}
			if len(content) == 0 {
				return errors.InvalidParam("file is empty")
			}
			if contentType == "" {
				contentType = mime.TypeByExtension(filepath.Ext(args[1]))
			}

			c, ctx, cancel, err := remote(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			t, err := c.Tasks().AttachDocument(ctx, args[0], client.FileUpload{
				Name:        filepath.Base(args[1]),
				ContentType: contentType,
				Content:     content,
			})
			if err != nil {
				return err
			}
			return PrintResult(cmd, taskView{t})
		},
	}

	cmd.Flags().StringVar(&contentType, "content-type", "", "MIME type (default: from the file extension)")
	return cmd
}

func newTaskDetachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detach TASK_ID DOCUMENT_ID",
		Short: "Remove a document from a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := remote(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			t, err := c.Tasks().DetachDocument(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return PrintResult(cmd, taskView{t})
		},
	}
}

func newTaskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete TASK_ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := remote(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			if err := c.Tasks().Delete(ctx, args[0]); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("task %s deleted", args[0]))
			return nil
		},
	}
}

//Personal.AI order the ending
