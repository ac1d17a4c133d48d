package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"formpilot/internal/model"
	"formpilot/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var runCmd = &cobra.Command{
	Use:   "run <form-url>",
	Short: "Submit a batch of responses to a form",
	Long: `Submit a batch of weighted responses to a form.

The settings file overrides the default even weights and field setup:

  weights:
    "123456": {"Yes": 80, "No": 20}
  fields:
    "987654": {include: true, generate: true}

The names file lists first names by gender:

  male: [Arjun, Noah]
  female: [Maya, Zoe]

Interrupting the command stops the batch after the current submission.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

var (
	runCount    int
	runCredits  int
	runSettings string
	runNames    string
	runContext  string
	runDryRun   bool
)

func init() {
	runCmd.Flags().IntVarP(&runCount, "count", "n", 1, "Number of responses to submit")
	runCmd.Flags().IntVar(&runCredits, "credits", 100, "Local credit allowance for this batch")
	runCmd.Flags().StringVar(&runSettings, "settings", "", "YAML file with weights and field settings")
	runCmd.Flags().StringVar(&runNames, "names", "", "YAML file with male/female name lists")
	runCmd.Flags().StringVar(&runContext, "context", "", "Respondent description sent with generated answers")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Print answer sets instead of submitting")
}

// runSettingsFile is the --settings document
type runSettingsFile struct {
	Weights model.WeightTable            `yaml:"weights"`
	Fields  map[string]model.FieldConfig `yaml:"fields"`
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	formSvc := newFormService()
	sel, err := formSvc.Select(ctx, cliUser, args[0])
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	if runSettings != "" {
		var settings runSettingsFile
		if err := readYAML(runSettings, &settings); err != nil {
			return err
		}
		sel, err = formSvc.UpdateSelection(ctx, cliUser, &service.SelectionUpdate{
			Weights: settings.Weights,
			Fields:  settings.Fields,
		})
		if err != nil {
			return fmt.Errorf("invalid settings: %w", err)
		}
	}

	var names model.NameLists
	if runNames != "" {
		if err := readYAML(runNames, &names); err != nil {
			return err
		}
	}
	nameSvc := service.NewNameService(service.StaticNames(names), logger)
	pool, err := nameSvc.Pool(ctx, cliUser)
	if err != nil {
		return err
	}

	answers, err := service.NewAnswerService(ctx, cfg.AI, logger)
	if err != nil {
		return err
	}
	answers.SetContext(runContext)

	var submitter service.Submitter = service.NewFormsClient(cfg.FormsBaseURL, cfg.FormsMaxRetries, logger)
	if runDryRun {
		submitter = &printSubmitter{out: cmd.OutOrStdout()}
	}

	credits := &localCredits{remaining: runCredits}
	submissions := service.NewSubmissionService(submitter, answers, credits, cfg.SubmitDelay, logger)
	submissions.SetBroadcaster(&printBroadcaster{out: cmd.OutOrStdout()})

	run := model.NewRun(uuid.New().String(), cliUser, sel.Form.FormID, runCount, runCredits)
	err = submissions.Execute(ctx, run, &service.BatchRequest{
		UserID:  cliUser,
		Balance: runCredits,
		Count:   runCount,
		Form:    sel.Form,
		Weights: sel.Weights,
		Fields:  sel.Fields,
		Names:   pool,
	})
	if err != nil {
		return err
	}

	snap := run.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d succeeded, %d credits left\n",
		snap.Status, snap.Succeeded, snap.Requested, snap.Remaining)
	return nil
}

func readYAML(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// localCredits is the accountant for offline batches
type localCredits struct {
	mu        sync.Mutex
	remaining int
}

func (c *localCredits) Deduct(_ context.Context, _ string, count int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if count > c.remaining {
		return c.remaining, service.ErrCreditExceeded
	}
	c.remaining -= count
	return c.remaining, nil
}

// printBroadcaster writes each result line as it is recorded
type printBroadcaster struct {
	out io.Writer
}

func (b *printBroadcaster) BroadcastRun(_ string, msgType string, payload interface{}) {
	res, ok := payload.(model.SubmissionResult)
	if !ok || msgType != "submission_result" {
		return
	}
	line := fmt.Sprintf("[%s] #%d %s", res.Timestamp.Format("15:04:05"), res.Seq, res.Status)
	if res.Message != "" {
		line += ": " + res.Message
	}
	fmt.Fprintln(b.out, line)
}

func (b *printBroadcaster) CloseRun(string) {}

// printSubmitter prints answer sets instead of posting them
type printSubmitter struct {
	out io.Writer
}

func (s *printSubmitter) Submit(_ context.Context, formID string, answers model.Answers) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s %s\n", formID, data)
	return nil
}
