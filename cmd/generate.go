package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/voxmaster/voice-engine/internal/engine"
)

var (
	generateSignatureID string
	generateVoiceType   string
	generateProfile     string
	generateAudioType   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Score generated audio and inspect generation catalogs",
}

var generateScoreCmd = &cobra.Command{
	Use:   "score [audio file]",
	Short: "Score generated audio against a target signature and style",
	Long: `Score rates a generated recording on three axes: identity match
against the target signature's centroid, voice type accuracy against
the requested delivery style, and perceptual match against the
requested optimization profile.

Examples:
  voice-engine generate score --signature-id 4f3c... output.wav
  voice-engine generate score --signature-id 4f3c... --voice-type command --profile broadcast output.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerateScore,
}

var voiceTypesCmd = &cobra.Command{
	Use:   "voice-types",
	Short: "List supported voice types and their targets",
	Args:  cobra.NoArgs,
	RunE:  runVoiceTypes,
}

var profilesCmd = &cobra.Command{
	Use:   "perceptual-profiles",
	Short: "List supported perceptual profiles and their target metrics",
	Args:  cobra.NoArgs,
	RunE:  runProfiles,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.AddCommand(generateScoreCmd)
	generateCmd.AddCommand(voiceTypesCmd)
	generateCmd.AddCommand(profilesCmd)

	generateScoreCmd.Flags().StringVar(&generateSignatureID, "signature-id", "",
		"target signature the audio was generated for (required)")
	generateScoreCmd.Flags().StringVar(&generateVoiceType, "voice-type", "storyteller",
		"requested delivery style (command, intimate, storyteller, whisper, urgent)")
	generateScoreCmd.Flags().StringVar(&generateProfile, "profile", "podcast",
		"requested optimization profile (podcast, warm, broadcast, asmr)")
	generateScoreCmd.Flags().StringVar(&generateAudioType, "audio-type", "spoken",
		"audio type of the recording (spoken, sung)")
	generateScoreCmd.MarkFlagRequired("signature-id")
}

func runGenerateScore(cmd *cobra.Command, args []string) error {
	eng, _, _, err := loadEngine()
	if err != nil {
		return err
	}

	payload, err := readAudioFile(args[0], generateAudioType)
	if err != nil {
		return err
	}

	resp, err := eng.ScoreGeneration(cmd.Context(), &engine.GenerationScoreRequest{
		Audio:             payload,
		SignatureID:       generateSignatureID,
		VoiceType:         engine.VoiceType(generateVoiceType),
		PerceptualProfile: engine.PerceptualProfile(generateProfile),
	})
	if err != nil {
		return err
	}

	return renderOutput(resp, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Identity match:\t%.1f\n", resp.IdentityMatch)
		fmt.Fprintf(w, "Voice type accuracy:\t%.1f\n", resp.VoiceTypeAccuracy)
		fmt.Fprintf(w, "Perceptual match:\t%.1f\n", resp.PerceptualMatch)
	})
}

func runVoiceTypes(cmd *cobra.Command, args []string) error {
	types := engine.VoiceTypeCatalog()

	return renderOutput(map[string]any{"voice_types": types}, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
		for _, vt := range types {
			fmt.Fprintf(w, "%s\t%s\t%s\n", vt.ID, vt.Name, vt.Description)
		}
	})
}

func runProfiles(cmd *cobra.Command, args []string) error {
	profiles := engine.PerceptualProfileCatalog()

	return renderOutput(map[string]any{"profiles": profiles}, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tCLARITY\tWARMTH\tPRESENCE")
		for _, p := range profiles {
			fmt.Fprintf(w, "%s\t%s\t%.0f\t%.0f\t%.0f\n",
				p.ID, p.Name,
				p.TargetMetrics["clarity"],
				p.TargetMetrics["warmth"],
				p.TargetMetrics["presence"])
		}
	})
}
