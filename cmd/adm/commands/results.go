package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"repairlog/internal/models"
	"repairlog/internal/observability"
	"repairlog/internal/services"
	contextutils "repairlog/internal/utils"

	"github.com/spf13/cobra"
)

// ResultsCommands returns the repair result inspection commands
func ResultsCommands(results *services.RepairResultService, logger *observability.Logger) *cobra.Command {
	resultsCmd := &cobra.Command{
		Use:   "results",
		Short: "Repair result inspection commands",
	}

	resultsCmd.AddCommand(listResultsCmd(results, logger))

	return resultsCmd
}

func listResultsCmd(results *services.RepairResultService, logger *observability.Logger) *cobra.Command {
	var (
		productID  int
		resultType string
		page       int
		pageSize   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored repair results",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx := context.Background()

			records, total, err := results.ListRepairResults(ctx, productID, 0, resultType, page, pageSize)
			if err != nil {
				logger.Error(ctx, "Failed to list repair results", err, map[string]interface{}{"product_id": productID})
				return contextutils.WrapError(err, "failed to list repair results")
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPRODUCT\tTYPE\tDATE\tFAULT\tNOTES")
			for _, r := range records {
				fault := "-"
				if r.FaultDiagnosed.Valid {
					fault = fmt.Sprintf("%d", r.FaultDiagnosed.Int64)
				}
				notes := "-"
				if r.Notes.Valid && r.Notes.String != "" {
					notes = r.Notes.String
				}
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n",
					r.ID, r.ProductID, r.Type, r.Date.Format(models.DateLayout), fault, notes)
			}
			if err := w.Flush(); err != nil {
				return contextutils.WrapError(err, "failed to flush output")
			}

			fmt.Printf("\n%d of %d results (page %d)\n", len(records), total, page)
			return nil
		},
	}

	cmd.Flags().IntVar(&productID, "product", 0, "Filter by product ID (0 for all)")
	cmd.Flags().StringVar(&resultType, "type", "", "Filter by result type (R, P or N)")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "Results per page")

	return cmd
}
