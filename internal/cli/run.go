package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	macae "github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/model/workflow"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent/mock"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/approval"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/coordinator"
)

type runFlags struct {
	task        string
	agents      string
	session     string
	autoApprove bool
	mockDelay   time.Duration
	output      string
}

func newRunCommand(global *globalFlags) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one task with the built-in agents and answer checkpoints on the terminal",
		Example: `  macae run --task "Why is PO-2024-118 unpaid?" --agents email,invoice
  macae run --task "Summarise INV-1042" --auto-approve --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd, global, flags)
		},
	}
	cmd.Flags().StringVarP(&flags.task, "task", "t", "", "task description")
	cmd.Flags().StringVarP(&flags.agents, "agents", "a", "", "comma separated agent sequence; empty uses the default plan")
	cmd.Flags().StringVar(&flags.session, "session", "cli", "session id")
	cmd.Flags().BoolVar(&flags.autoApprove, "auto-approve", false, "approve both checkpoints without asking")
	cmd.Flags().DurationVar(&flags.mockDelay, "mock-delay", 0, "simulated latency of the built-in agents")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "text", "output format: text or json")
	_ = cmd.MarkFlagRequired("task")
	return cmd
}

func runTask(cmd *cobra.Command, global *globalFlags, flags *runFlags) error {
	if flags.output != "text" && flags.output != "json" {
		return fmt.Errorf("unsupported output %q", flags.output)
	}
	config, err := loadConfig(viper.New(), global.config)
	if err != nil {
		return err
	}
	logger, err := newLogger(global.debug, zapcore.WarnLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	srv, err := macae.New(macae.WithConfig(config), macae.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := mock.RegisterAll(srv.Registry(), flags.mockDelay); err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = srv.Shutdown(ctx) }()

	seq := srv.Coordinator().Plan(ctx, flags.task).Sequence
	if flags.agents != "" {
		if seq, err = agent.ParseSequence(strings.Split(flags.agents, ",")); err != nil {
			return err
		}
	}

	decide := approval.DecisionFunc(func(*approval.Request) (bool, string) { return true, "approved from command line" })
	if !flags.autoApprove {
		decide = prompter(cmd.InOrStdin(), cmd.ErrOrStderr())
	}
	stop := approval.AutoDecider(ctx, srv.Approvals(), decide, 10*time.Millisecond)
	defer stop()

	out, err := srv.Run(ctx, &coordinator.Request{SessionID: flags.session, TaskDescription: flags.task, Sequence: seq})
	if err != nil {
		return err
	}
	if err := printOutcome(cmd.OutOrStdout(), flags.output, out); err != nil {
		return err
	}
	if out.Status == workflow.StatusFailed {
		return fmt.Errorf("workflow %s failed: %w", out.WorkflowID, out.Err)
	}
	return nil
}

// prompter asks on w and reads y/n answers from r. EOF rejects.
func prompter(r io.Reader, w io.Writer) approval.DecisionFunc {
	reader := bufio.NewReader(r)
	var mu sync.Mutex
	return func(req *approval.Request) (bool, string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "\n%s\n\nApprove %s checkpoint of %s? [y/N] ", req.Payload, req.Checkpoint, req.WorkflowID)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false, "no answer"
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		if answer == "y" || answer == "yes" {
			return true, ""
		}
		return false, "rejected from command line"
	}
}

type outcomeView struct {
	*coordinator.Outcome
	Error string `json:"error,omitempty"`
}

func printOutcome(w io.Writer, format string, out *coordinator.Outcome) error {
	if format == "json" {
		view := outcomeView{Outcome: out}
		if out.Err != nil {
			view.Error = out.Err.Error()
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(view)
	}
	fmt.Fprintf(w, "workflow %s: %s (delivered: %v)\n", out.WorkflowID, out.Status, out.Delivered)
	if out.Err != nil {
		fmt.Fprintf(w, "error: %v\n", out.Err)
	}
	for _, entry := range out.ExecutionLog {
		if entry.Failed() {
			fmt.Fprintf(w, "  [%d] %s failed: %s\n", entry.StepIndex, entry.Agent, entry.Error)
			continue
		}
		fmt.Fprintf(w, "  [%d] %s: %s\n", entry.StepIndex, entry.Agent, entry.ResultSummary)
	}
	if out.Report != nil && out.Delivered {
		fmt.Fprintf(w, "\n%s\n", out.Report.Summary)
	}
	return nil
}
