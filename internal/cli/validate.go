package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weftlab/weft/internal/constraint"
	"github.com/weftlab/weft/internal/store"
	"github.com/weftlab/weft/internal/validate"
)

// ValidationReport is the JSON payload of a validate run.
type ValidationReport struct {
	Valid      bool             `json:"valid"`
	NodeCount  int              `json:"node_count"`
	IssueCount int              `json:"issue_count"`
	Issues     []validate.Issue `json:"issues,omitempty"`
	DocumentID string           `json:"document_id,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Validate a tensor-program graph document",
		Long: `Validate a graph document (.json, .yaml, or .yml).

Checks the document envelope against the schema, decodes the graph, and
runs the full constraint suite: reference integrity, shard coverage,
output overlap, projection agreement, and cycle detection.

With --db, the document and the run's issue list are archived.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], dbPath, cmd)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "archive database path (optional)")
	return cmd
}

func runValidate(opts *RootOptions, docPath, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := LoadDocument(docPath)
	if err != nil {
		return outputCommandError(formatter, err)
	}
	formatter.VerboseLog("Loaded %s (%d bytes)", docPath, len(data))

	env := constraint.DefaultEnvironment()
	g, err := env.DecodeDocument(data)
	if err != nil {
		_ = formatter.Error(ErrCodeDecode, err.Error(), nil)
		return WrapExitError(ExitCommandError, "decoding document", err)
	}
	formatter.VerboseLog("Decoded %d nodes", g.Len())

	issues := env.Validate(g)

	report := ValidationReport{
		Valid:      len(issues) == 0,
		NodeCount:  g.Len(),
		IssueCount: len(issues),
		Issues:     issues,
	}

	if dbPath != "" {
		docID, err := archiveRun(cmd, dbPath, data, issues)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "archiving run", err)
		}
		report.DocumentID = docID
		formatter.VerboseLog("Archived document %s", docID)
	}

	return outputReport(formatter, report)
}

// archiveRun stores the document and the run's issues in the archive.
func archiveRun(cmd *cobra.Command, dbPath string, doc []byte, issues []validate.Issue) (string, error) {
	s, err := store.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer s.Close()

	ctx := cmd.Context()
	docID, err := s.PutDocument(ctx, doc)
	if err != nil {
		return "", err
	}
	if _, err := s.RecordRun(ctx, docID, issues); err != nil {
		return "", err
	}
	return docID, nil
}

func outputReport(formatter *OutputFormatter, report ValidationReport) error {
	if formatter.Format == "json" {
		if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		fmt.Fprint(formatter.Writer, validate.Format(report.Issues))
		if report.Valid {
			fmt.Fprintln(formatter.Writer)
		}
	}

	if !report.Valid {
		return NewExitError(ExitFailure,
			fmt.Sprintf("validation failed with %d issue(s)", report.IssueCount))
	}
	return nil
}

// outputCommandError renders a load failure and maps it to exit code 2.
func outputCommandError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		return WrapExitError(ExitCommandError, loadErr.Code, err)
	}
	_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, "command failed", err)
}
