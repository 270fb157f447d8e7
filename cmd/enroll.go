package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/voxmaster/voice-engine/internal/engine"
)

var (
	enrollName      string
	enrollAudioType string
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [audio files...]",
	Short: "Enroll a voice signature from multiple samples",
	Long: `Enroll builds a voice signature from three or more audio samples.
Each sample is decoded, normalized, and reduced to a speaker embedding;
the raw audio is discarded once the embedding is derived. Samples that
are too short or fail to decode are skipped.

Examples:
  voice-engine enroll --name alice take1.wav take2.wav take3.wav
  voice-engine enroll --name bob --audio-type sung verse*.wav`,
	Args: cobra.MinimumNArgs(3),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().StringVar(&enrollName, "name", "",
		"display name for the signature (required)")
	enrollCmd.Flags().StringVar(&enrollAudioType, "audio-type", "spoken",
		"audio type of the samples (spoken, sung)")
	enrollCmd.MarkFlagRequired("name")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	eng, _, _, err := loadEngine()
	if err != nil {
		return err
	}

	samples := make([]engine.AudioPayload, 0, len(args))
	for _, path := range args {
		payload, err := readAudioFile(path, enrollAudioType)
		if err != nil {
			return err
		}
		samples = append(samples, payload)
	}

	resp, err := eng.Enroll(cmd.Context(), &engine.EnrollRequest{
		Name:    enrollName,
		Samples: samples,
	})
	if err != nil {
		return err
	}

	return renderOutput(resp, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Signature ID:\t%s\n", resp.SignatureID)
		fmt.Fprintf(w, "Name:\t%s\n", resp.Name)
		fmt.Fprintf(w, "Samples used:\t%d of %d\n", resp.SamplesCount, len(args))
		fmt.Fprintf(w, "Quality score:\t%.1f\n", resp.QualityScore)
		fmt.Fprintf(w, "Spoken centroid:\t%t\n", resp.HasSpokenCentroid)
		fmt.Fprintf(w, "Singing centroid:\t%t\n", resp.HasSingingCentroid)
		fmt.Fprintf(w, "Status:\t%s\n", resp.Status)
	})
}
