package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/archgraph/core/internal/models"
	"github.com/archgraph/core/internal/parser"
	"github.com/archgraph/core/internal/session"
	"github.com/archgraph/core/internal/stage"
	"github.com/spf13/cobra"
)

// incompleteError signals that the design was evaluated but did not meet
// every requirement.
type incompleteError struct {
	completed, total int
}

func (e *incompleteError) Error() string {
	return fmt.Sprintf("%d of %d requirements met", e.completed, e.total)
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "archval",
		Short:         "Validate architecture designs against stage requirements",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.AddCommand(newCheckCmd(), newStagesCmd(), newImportCmd())
	return root
}

func newCheckCmd() *cobra.Command {
	var stagePath, designPath string
	var strict bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate a design graph (JSON) against a stage file (YAML)",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := stage.LoadFile(stagePath)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(designPath)
			if err != nil {
				return fmt.Errorf("reading design: %w", err)
			}
			var g models.Graph
			if err := json.Unmarshal(data, &g); err != nil {
				return fmt.Errorf("decoding design %s: %w", designPath, err)
			}

			s := session.New(st.ID, "archval")
			s.SetRequirements(st.Requirements)
			snap := s.Load(g).Snapshot

			if err := writeJSON(cmd.OutOrStdout(), snap); err != nil {
				return err
			}
			if strict && !snap.AllRequirementsMet {
				return &incompleteError{completed: snap.Progress.Completed, total: snap.Progress.Total}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stagePath, "stage", "", "stage definition file")
	cmd.Flags().StringVar(&designPath, "design", "", "design graph file")
	cmd.Flags().BoolVar(&strict, "fail-incomplete", false, "exit non-zero unless every requirement is met")
	_ = cmd.MarkFlagRequired("stage")
	_ = cmd.MarkFlagRequired("design")
	return cmd
}

func newStagesCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "stages",
		Short: "List the stages defined in a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := stage.LoadDir(dir, nil)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tREQUIREMENTS")
			for _, s := range catalog.List() {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", s.ID, s.Title, len(s.Requirements))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "stages", "stages directory")
	return cmd
}

func newImportCmd() *cobra.Command {
	var statePath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Convert a Terraform state file into a design graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(statePath)
			if err != nil {
				return fmt.Errorf("reading tfstate: %w", err)
			}
			state, err := parser.ParseTfstate(data)
			if err != nil {
				return err
			}

			s := session.New("import", "archval")
			res := s.Load(*parser.BuildGraph(state))
			return writeJSON(cmd.OutOrStdout(), res.Graph)
		},
	}

	cmd.Flags().StringVar(&statePath, "tfstate", "", "Terraform state file")
	_ = cmd.MarkFlagRequired("tfstate")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
