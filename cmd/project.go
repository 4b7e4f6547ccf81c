package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bidwell-group/tender-cli/internal/model"
)

var (
	projectName   string
	projectClient string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage tender projects",
}

// -- project create --

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new tender project",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		project, err := st.CreateProject(ctx, projectName, projectClient)
		if err != nil {
			return eris.Wrap(err, "project create")
		}

		zap.L().Info("project created",
			zap.String("project_id", project.ID),
			zap.String("name", project.Name),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(project)
	},
}

// -- project list --

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tender projects",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		projects, err := st.ListProjects(ctx)
		if err != nil {
			return eris.Wrap(err, "project list")
		}

		if len(projects) == 0 {
			fmt.Fprintln(os.Stderr, "No projects found.")
			return nil
		}

		formatProjects(os.Stdout, projects)
		return nil
	},
}

func init() {
	projectCreateCmd.Flags().StringVar(&projectName, "name", "", "project name (required)")
	projectCreateCmd.Flags().StringVar(&projectClient, "client", "", "client name")
	_ = projectCreateCmd.MarkFlagRequired("name")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	rootCmd.AddCommand(projectCmd)
}

// formatProjects writes a tabular project list to out.
func formatProjects(out io.Writer, projects []model.Project) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCLIENT\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t-------")

	for _, p := range projects {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			p.ID, p.Name, p.ClientName, p.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}
