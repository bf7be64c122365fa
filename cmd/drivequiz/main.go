// Command drivequiz searches a route for historical spots and composes
// quizzes from the terminal, without the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/famolydrive/drivequiz/internal/classify"
	"github.com/famolydrive/drivequiz/internal/config"
	"github.com/famolydrive/drivequiz/internal/drivequiz"
	"github.com/famolydrive/drivequiz/internal/kmlexport"
	"github.com/famolydrive/drivequiz/internal/openai"
	"github.com/famolydrive/drivequiz/internal/quiz"
	"github.com/famolydrive/drivequiz/internal/trip"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "drivequiz",
		Short:        "Historical spot quizzes for a family drive",
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().String("env-file", ".env", "dotenv file merged into the environment")
	root.PersistentFlags().Bool("verbose", false, "log provider calls to stderr")

	root.AddCommand(newSearchCmd(), newQuizCmd())
	return root
}

// setup loads configuration and a stderr logger for a subcommand.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}

	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return cfg, logger, nil
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Resolve a route and list the historical spots along it",
		Long: `Resolve a driving route between two places and list the historical spots
near it. Without GOOGLE_MAPS_API_KEY the built-in Tokyo to Kamakura route is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			origin, _ := cmd.Flags().GetString("origin")
			destination, _ := cmd.Flags().GetString("destination")
			kmlPath, _ := cmd.Flags().GetString("kml")

			planner, err := trip.NewFromConfig(cfg, logger)
			if err != nil {
				return err
			}
			res, err := planner.Search(cmd.Context(), origin, destination)
			if err != nil {
				return err
			}

			printSearch(cmd.OutOrStdout(), res)

			if kmlPath != "" {
				f, err := os.Create(kmlPath)
				if err != nil {
					return fmt.Errorf("creating kml file: %w", err)
				}
				defer f.Close()
				if err := kmlexport.Write(f, res.Route, res.Spots); err != nil {
					return fmt.Errorf("writing kml: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nKML written to %s\n", kmlPath)
			}
			return nil
		},
	}
	cmd.Flags().StringP("origin", "o", "", "starting point")
	cmd.Flags().StringP("destination", "d", "", "destination")
	cmd.Flags().String("kml", "", "write the route and spots to this KML file")
	cmd.MarkFlagRequired("origin")
	cmd.MarkFlagRequired("destination")
	return cmd
}

func printSearch(w io.Writer, res trip.Result) {
	r := res.Route
	fmt.Fprintf(w, "%s → %s\n", r.Origin, r.Destination)
	fmt.Fprintf(w, "距離: %s  所要時間: %s\n\n", r.Distance, r.Duration)
	if res.UsedSample {
		fmt.Fprintln(w, "(no spots found along the route, showing sample spots)")
	}
	for i, s := range res.Spots {
		fmt.Fprintf(w, "%d. %s [%s] %s\n", i+1, s.Name, s.Difficulty.Label(), s.PlaceID)
		if s.Address != "" {
			fmt.Fprintf(w, "   %s\n", s.Address)
		}
		fmt.Fprintf(w, "   %s\n", s.Description)
	}
}

func newQuizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Compose one quiz for a venue and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("name")
			types, _ := cmd.Flags().GetStringSlice("types")
			difficulty, _ := cmd.Flags().GetString("difficulty")
			generate, _ := cmd.Flags().GetBool("generate")

			spot := classify.Apply(drivequiz.HistoricalSpot{
				PlaceID: "cli",
				Name:    strings.TrimSpace(name),
				Types:   types,
			})
			d := spot.Difficulty
			if difficulty != "" {
				d = drivequiz.ParseDifficulty(difficulty)
			}

			qcfg := quiz.Config{Timeout: cfg.ProviderTimeout, Logger: logger}
			if generate {
				if !cfg.Generative() {
					return fmt.Errorf("--generate needs OPENAI_API_KEY")
				}
				qcfg.Generator = openai.New(cfg.OpenAIAPIKey, openai.Options{
					Model:       cfg.OpenAIModel,
					MaxTokens:   cfg.OpenAIMaxTokens,
					Temperature: cfg.OpenAITemperature,
				})
			}

			q, err := quiz.New(qcfg).Compose(cmd.Context(), spot, d)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(q)
		},
	}
	cmd.Flags().StringP("name", "n", "", "venue name")
	cmd.Flags().StringSlice("types", nil, "place types, for example shrine,tourist_attraction")
	cmd.Flags().String("difficulty", "", "elementary, middle, high or adult (default: derived from the name)")
	cmd.Flags().Bool("generate", false, "compose with the text generation provider")
	cmd.MarkFlagRequired("name")
	return cmd
}
