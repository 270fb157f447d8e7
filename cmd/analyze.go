package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/voxmaster/voice-engine/internal/engine"
)

var (
	analyzeAudioType  string
	analyzePromptType string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [audio file]",
	Short: "Analyze the vocal features of an audio file",
	Long: `Analyze decodes an audio file, extracts acoustic features and maps
them onto perceptual scores: timbre, weight, placement, and the sweet
spot composite.

Examples:
  voice-engine analyze take1.wav
  voice-engine analyze --audio-type sung --prompt-type verse chorus.mp3
  voice-engine analyze -o json take1.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeAudioType, "audio-type", "spoken",
		"audio type (spoken, sung)")
	analyzeCmd.Flags().StringVar(&analyzePromptType, "prompt-type", "sustained",
		"prompt type (sustained, passage, verse)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	eng, _, _, err := loadEngine()
	if err != nil {
		return err
	}

	payload, err := readAudioFile(args[0], analyzeAudioType)
	if err != nil {
		return err
	}

	resp, err := eng.Analyze(cmd.Context(), &engine.AnalyzeRequest{
		Audio:      payload,
		PromptType: analyzePromptType,
	})
	if err != nil {
		return err
	}

	return renderOutput(resp, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "File:\t%s\n", resp.Filename)
		fmt.Fprintf(w, "Audio type:\t%s\n", resp.AudioType)
		fmt.Fprintf(w, "Prompt type:\t%s\n", resp.PromptType)
		if resp.LowConfidence {
			fmt.Fprintf(w, "Confidence:\tlow (no voiced frames)\n")
		}
		fmt.Fprintln(w)

		fmt.Fprintln(w, "TIMBRE\t")
		fmt.Fprintf(w, "  Brightness:\t%.1f\n", resp.Timbre.Brightness)
		fmt.Fprintf(w, "  Breathiness:\t%.1f\n", resp.Timbre.Breathiness)
		fmt.Fprintf(w, "  Warmth:\t%.1f\n", resp.Timbre.Warmth)
		fmt.Fprintf(w, "  Roughness:\t%.1f\n", resp.Timbre.Roughness)

		fmt.Fprintln(w, "WEIGHT\t")
		fmt.Fprintf(w, "  Weight:\t%.1f\n", resp.Weight.Weight)
		fmt.Fprintf(w, "  Pressed:\t%.1f\n", resp.Weight.Pressed)

		fmt.Fprintln(w, "PLACEMENT\t")
		fmt.Fprintf(w, "  Forwardness:\t%.1f\n", resp.Placement.Forwardness)
		fmt.Fprintf(w, "  Ring index:\t%.1f\n", resp.Placement.RingIndex)
		fmt.Fprintf(w, "  Nasality:\t%.1f\n", resp.Placement.Nasality)

		fmt.Fprintln(w, "SWEET SPOT\t")
		fmt.Fprintf(w, "  Clarity:\t%.1f\n", resp.SweetSpot.Clarity)
		fmt.Fprintf(w, "  Warmth:\t%.1f\n", resp.SweetSpot.Warmth)
		fmt.Fprintf(w, "  Presence:\t%.1f\n", resp.SweetSpot.Presence)
		fmt.Fprintf(w, "  Smoothness:\t%.1f\n", resp.SweetSpot.Smoothness)
		fmt.Fprintf(w, "  Harshness penalty:\t%.1f\n", resp.SweetSpot.HarshnessPenalty)
		fmt.Fprintf(w, "  Total:\t%.1f\n", resp.SweetSpot.Total)

		if resp.Features != nil {
			fmt.Fprintln(w, "FEATURES\t")
			fmt.Fprintf(w, "  F0 mean:\t%.1f Hz\n", resp.Features.F0Mean)
			fmt.Fprintf(w, "  Spectral centroid:\t%.1f Hz\n", resp.Features.SpectralCentroid)
			fmt.Fprintf(w, "  HNR:\t%.1f dB\n", resp.Features.HNR)
			fmt.Fprintf(w, "  CPP:\t%.1f dB\n", resp.Features.CPP)
			fmt.Fprintf(w, "  H1-H2:\t%.1f dB\n", resp.Features.H1H2)
			fmt.Fprintf(w, "  Formants:\t%.0f / %.0f / %.0f Hz\n",
				resp.Features.Formants.F1, resp.Features.Formants.F2, resp.Features.Formants.F3)
		}
	})
}
