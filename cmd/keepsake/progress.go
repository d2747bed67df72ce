package main

import (
	"fmt"
	"slices"
	"strings"

	"keepsake/internal/app"
	"keepsake/internal/progress"

	"github.com/spf13/cobra"
)

// progress command
var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show statistics, achievements and badges",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return withApp("Progress", func(a *app.App) error {
			a.MarkMutating("achievements")
			sum, err := a.Tracker().Refresh()
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(sum)
			}
			printSummary(sum)
			return nil
		})
	},
}

func printSummary(sum *progress.Summary) {
	st := sum.Stats
	fmt.Printf("%s  level %d\n\n", bold("Progress"), sum.Level)
	fmt.Printf("  Photos      %3d  %s %3d%%\n", st.Total.Photo, progressBar(st.Completion.Photo), st.Completion.Photo)
	fmt.Printf("  Characters  %3d  %s %3d%%\n", st.Total.Character, progressBar(st.Completion.Character), st.Completion.Character)
	fmt.Printf("  Skills      %3d  %s %3d%%\n", st.Total.Skill, progressBar(st.Completion.Skill), st.Completion.Skill)
	fmt.Printf("  Overall          %s %3d%%\n\n", progressBar(st.Overall.CompletionRate), st.Overall.CompletionRate)

	fmt.Printf("  Exercises %d, streak %d day(s), about %d minutes spent\n",
		st.Overall.TotalExercises, st.Overall.StreakDays, st.Overall.TotalTimeSpent)
	fmt.Printf("  Insights %d (average answer %d chars)\n\n", st.Insights.TotalInsights, st.Insights.AvgAnswerLength)

	fmt.Println(bold("Achievements"))
	for _, r := range progress.Rules {
		earned := slices.ContainsFunc(sum.Achievements, func(e progress.Rule) bool { return e.ID == r.ID })
		switch {
		case slices.Contains(sum.NewlyEarned, r.ID):
			fmt.Printf("  %s %s  %s  %s\n", r.Icon, green(r.Name), r.Description, yellow("new!"))
		case earned:
			fmt.Printf("  %s %s  %s\n", r.Icon, green(r.Name), r.Description)
		default:
			fmt.Printf("  %s %s  %s\n", faint("··"), faint(r.Name), faint(r.Description))
		}
	}
	fmt.Printf("\n%s %s\n", bold("Badges"), strings.Join(sum.Badges, ", "))
}

// exercise command
var exerciseCmd = &cobra.Command{
	Use:   "exercise",
	Short: "Track exercise completion",
}

var exerciseCompleteCmd = &cobra.Command{
	Use:   "complete EXERCISE_ID",
	Short: "Mark an exercise completed and advance an ability",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ability, _ := cmd.Flags().GetString("ability")
		return withApp("CompleteExercise", func(a *app.App) error {
			a.MarkMutating(args[0])
			badges, err := a.Tracker().CompleteExercise(args[0], ability)
			if err != nil {
				return err
			}
			fmt.Printf("Completed %s\n", args[0])
			for _, b := range badges {
				fmt.Printf("Badge earned: %s\n", green(b))
			}
			return nil
		})
	},
}

// reflect command
var reflectCmd = &cobra.Command{
	Use:   "reflect TEXT...",
	Short: "Add a dated reflection",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("AddReflection", func(a *app.App) error {
			a.MarkMutating("reflection")
			r, err := a.Tracker().AddReflection(strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Printf("Reflection saved for %s\n", r.Date)
			return nil
		})
	},
}

// analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze PHOTO_ID",
	Short: "Recompute answer statistics of a photo analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("AnalyzePhoto", func(a *app.App) error {
			a.MarkMutating(args[0])
			st, err := a.Tracker().AnalyzePhoto(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Answered   %d/%d  %s %d%%\n", st.AnsweredQuestions, st.TotalQuestions, progressBar(st.CompletionRate), st.CompletionRate)
			fmt.Printf("Meaningful %d\n", st.MeaningfulAnswers)
			fmt.Printf("Emotion    %d (%s)\n", st.EmotionScore, st.EmotionLevel)
			fmt.Printf("Density    %d%%\n", st.ValueDensity)
			return nil
		})
	},
}

func init() {
	progressCmd.Flags().Bool("json", false, "Print the summary as JSON")
	exerciseCompleteCmd.Flags().String("ability", "", "Ability advanced by this exercise")
	exerciseCmd.AddCommand(exerciseCompleteCmd)

	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(exerciseCmd)
	rootCmd.AddCommand(reflectCmd)
	rootCmd.AddCommand(analyzeCmd)
}
