package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var signaturesCmd = &cobra.Command{
	Use:   "signatures",
	Short: "Manage enrolled voice signatures",
}

var signaturesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled voice signatures",
	Args:  cobra.NoArgs,
	RunE:  runSignaturesList,
}

var signaturesDeleteCmd = &cobra.Command{
	Use:   "delete [signature id]",
	Short: "Delete a voice signature and erase its biometric data",
	Args:  cobra.ExactArgs(1),
	RunE:  runSignaturesDelete,
}

func init() {
	rootCmd.AddCommand(signaturesCmd)
	signaturesCmd.AddCommand(signaturesListCmd)
	signaturesCmd.AddCommand(signaturesDeleteCmd)
}

func runSignaturesList(cmd *cobra.Command, args []string) error {
	eng, _, _, err := loadEngine()
	if err != nil {
		return err
	}

	summaries := eng.Signatures()

	return renderOutput(map[string]any{"signatures": summaries}, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tENROLLED\tSAMPLES\tQUALITY\tSTATUS")
		for _, sig := range summaries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.1f\t%s\n",
				sig.ID,
				sig.Name,
				sig.EnrolledAt.Format("2006-01-02 15:04"),
				sig.SamplesCount,
				sig.QualityScore,
				sig.Status)
		}
		if len(summaries) == 0 {
			fmt.Fprintln(w, "(no signatures enrolled)")
		}
	})
}

func runSignaturesDelete(cmd *cobra.Command, args []string) error {
	eng, _, _, err := loadEngine()
	if err != nil {
		return err
	}

	if err := eng.DeleteSignature(args[0]); err != nil {
		return err
	}

	fmt.Printf("Deleted signature %s\n", args[0])
	return nil
}
