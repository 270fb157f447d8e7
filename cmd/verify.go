package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/voxmaster/voice-engine/internal/engine"
)

var (
	verifySignatureID string
	verifyAudioType   string
)

var verifyCmd = &cobra.Command{
	Use:   "verify [audio file]",
	Short: "Verify a probe sample against enrolled signatures",
	Long: `Verify scores a probe recording against one signature (with
--signature-id) or against every enrolled signature. Anti-spoofing
checks run alongside matching; a replay or synthesis signal rejects
the match regardless of similarity.

Examples:
  voice-engine verify probe.wav
  voice-engine verify --signature-id 4f3c... probe.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifySignatureID, "signature-id", "",
		"verify against this signature only (1:1); empty searches all (1:N)")
	verifyCmd.Flags().StringVar(&verifyAudioType, "audio-type", "spoken",
		"audio type of the probe (spoken, sung)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	eng, _, _, err := loadEngine()
	if err != nil {
		return err
	}

	payload, err := readAudioFile(args[0], verifyAudioType)
	if err != nil {
		return err
	}

	resp, err := eng.Verify(cmd.Context(), &engine.VerifyRequest{
		Audio:       payload,
		SignatureID: verifySignatureID,
	})
	if err != nil {
		return err
	}

	return renderOutput(resp, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Match:\t%t\n", resp.Match)
		fmt.Fprintf(w, "Confidence:\t%.1f\n", resp.Confidence)
		if resp.MatchedSignatureID != "" {
			fmt.Fprintf(w, "Matched signature:\t%s (%s)\n",
				resp.MatchedSignatureName, resp.MatchedSignatureID)
		}
		fmt.Fprintf(w, "Replay detected:\t%t\n", resp.AntiSpoofing.ReplayDetected)
		fmt.Fprintf(w, "AI generated:\t%t\n", resp.AntiSpoofing.AIGenerated)
		fmt.Fprintf(w, "Liveness verified:\t%t\n", resp.AntiSpoofing.LivenessVerified)
	})
}
