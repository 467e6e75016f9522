package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/SaloEater/varefined/internal/toolchain"
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Check for required external tools",
	Long:  `Check whether sox_ng/sox, ffmpeg and ffprobe are installed and available.`,
	Run: func(cmd *cobra.Command, args []string) {
		green := lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
		red := lipgloss.NewStyle().Foreground(lipgloss.Color("#E95420"))
		gray := lipgloss.NewStyle().Foreground(lipgloss.Color("#9A9EA0"))
		bold := lipgloss.NewStyle().Bold(true)

		fmt.Println()
		fmt.Println(bold.Render("External tools:"))
		fmt.Println()

		allRequiredOk := true
		for _, r := range toolchain.CheckAll() {
			var status string
			switch {
			case r.Available:
				status = green.Render("✓")
			case r.Tool.Required:
				status = red.Render("✗")
				allRequiredOk = false
			default:
				status = gray.Render("○")
			}
			name := r.Tool.Name
			if r.Tool.Fallback != "" {
				name += " (or " + r.Tool.Fallback + ")"
			}
			fmt.Printf("  %s %s\n", status, bold.Render(name))
			fmt.Printf("    %s\n", gray.Render(r.Tool.Description))
			if r.Available {
				fmt.Printf("    Path: %s\n", r.Path)
			} else {
				fmt.Printf("    %s\n", gray.Render("Override with "+r.Tool.EnvVar))
			}
			fmt.Println()
		}

		if allRequiredOk {
			fmt.Println(green.Render("All required tools are installed!"))
		} else {
			fmt.Println(red.Render("Some required tools are missing."))
			fmt.Println("Install them or point the environment overrides at local binaries.")
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(depsCmd)
}
