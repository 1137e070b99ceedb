package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/rushteam/shoprec/learner"
)

type trainOutput struct {
	Outcome      learner.TrainOutcome `json:"outcome"`
	Interactions int                  `json:"interactions"`
	Pairs        int                  `json:"pairs"`
	Loss         []float64            `json:"loss,omitempty"`
	Accuracy     []float64            `json:"accuracy,omitempty"`
	Duration     string               `json:"duration"`
	Saved        bool                 `json:"saved"`
	Error        string               `json:"error,omitempty"`
	SaveError    string               `json:"save_error,omitempty"`
	State        string               `json:"state"`
	ModelVersion int                  `json:"model_version"`
}

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "train",
		Short: "Train the next-product model on the interaction log and persist it",
		Run:   runTrain,
	})
}

func runTrain(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	s := openStore(ctx)

	catalog := loadCatalog(ctx)
	e := newEngine(s, newLearner(s))
	if err := e.Initialize(ctx, catalog); err != nil {
		exitErr("initialize learner", err)
	}
	report, err := e.Train(ctx, catalog, loadEvents())
	if err != nil {
		exitErr("train", err)
	}

	st := e.Status()
	out := trainOutput{
		Outcome:      report.Outcome,
		Interactions: report.Interactions,
		Pairs:        report.Pairs,
		Loss:         report.History.Loss,
		Accuracy:     report.History.Accuracy,
		Duration:     report.Duration.Round(time.Millisecond).String(),
		Saved:        report.Saved,
		State:        st.State.String(),
		ModelVersion: st.ModelVersion,
	}
	if report.Err != nil {
		out.Error = report.Err.Error()
	}
	if report.SaveErr != nil {
		out.SaveError = report.SaveErr.Error()
	}
	printJSON(out)
}
