package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bidwell-group/tender-cli/internal/ingest"
)

var (
	ingestProjectID  string
	ingestContractor string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest extracted tender documents",
	Long:  "Loads canonical JSON output from the extraction service into a project: the ITT bill of quantities and contractor response files.",
}

// -- ingest itt --

var ingestITTCmd = &cobra.Command{
	Use:   "itt <file>",
	Short: "Replace the project's bill of quantities",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		records, err := ingest.LoadLineItems(args[0])
		if err != nil {
			return err
		}

		result, err := ingest.New(st).ITT(ctx, ingestProjectID, records)
		if err != nil {
			return eris.Wrap(err, "ingest itt")
		}

		zap.L().Info("itt ingested",
			zap.String("project_id", ingestProjectID),
			zap.String("file", args[0]),
			zap.Int("items", result.Items),
			zap.Int("sections", result.Sections),
		)
		fmt.Printf("Ingested %d items across %d sections.\n", result.Items, result.Sections)
		return nil
	},
}

// -- ingest response --

var ingestResponseCmd = &cobra.Command{
	Use:   "response <file> [<file>...]",
	Short: "Ingest contractor response files",
	Long: `Ingests one or more canonical response JSON files. With --contractor all
files belong to that contractor; otherwise each argument takes the form
<contractor>=<path>. Files are processed concurrently and a failing file
does not stop the others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		files, err := responseFileArgs(args, ingestContractor)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		outcomes, err := ingest.New(st).ResponseFiles(ctx, ingestProjectID, files)
		for _, o := range outcomes {
			if o.Err != nil {
				fmt.Fprintf(os.Stderr, "FAILED  %s: %v\n", o.File.Path, o.Err)
				continue
			}
			fmt.Printf("OK      %s: %d items for %s\n",
				o.File.Path, o.Result.Items, o.Result.Contractor.Name)
		}
		if err != nil {
			return eris.Wrap(err, "ingest response")
		}

		zap.L().Info("responses ingested",
			zap.String("project_id", ingestProjectID),
			zap.Int("files", len(files)),
		)
		return nil
	},
}

func init() {
	ingestCmd.PersistentFlags().StringVar(&ingestProjectID, "project", "", "project id (required)")
	_ = ingestCmd.MarkPersistentFlagRequired("project")

	ingestResponseCmd.Flags().StringVar(&ingestContractor, "contractor", "", "contractor name for all files")

	ingestCmd.AddCommand(ingestITTCmd)
	ingestCmd.AddCommand(ingestResponseCmd)
	rootCmd.AddCommand(ingestCmd)
}

// responseFileArgs pairs each file argument with its contractor. A set
// contractor flag covers every file; otherwise arguments must be
// <contractor>=<path> pairs.
func responseFileArgs(args []string, contractor string) ([]ingest.ResponseFile, error) {
	files := make([]ingest.ResponseFile, 0, len(args))
	for _, arg := range args {
		if contractor != "" {
			files = append(files, ingest.ResponseFile{Contractor: contractor, Path: arg})
			continue
		}
		name, path, ok := strings.Cut(arg, "=")
		if !ok || name == "" || path == "" {
			return nil, eris.Errorf("expected <contractor>=<path>, got %q (or pass --contractor)", arg)
		}
		files = append(files, ingest.ResponseFile{Contractor: name, Path: filepath.Clean(path)})
	}
	return files, nil
}
