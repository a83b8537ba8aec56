package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/routerlab/routerbench/internal/config"
	"github.com/routerlab/routerbench/internal/routing"
	"github.com/routerlab/routerbench/internal/runner"
	"github.com/routerlab/routerbench/pkg/azureopenai"
)

var (
	runProfile  string
	runTarget   int
	runLimit    int
	runProfiles string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the batch against the router deployment",
	Long:  "Routes prompts one at a time until the sink holds the target number of results for the profile. Interrupted runs resume where they left off; failed calls are logged and skipped, never retried. Exits nonzero if the prompt set runs out before the target is reached.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if runProfile != "" {
			cfg.Run.Profile = runProfile
		}
		if runTarget > 0 {
			cfg.Run.Target = runTarget
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		registry, err := config.LoadProfiles(runProfiles)
		if err != nil {
			return err
		}
		deployment := registry.Deployment(cfg.Run.Profile, cfg.Azure.Deployment)

		sk, err := initSink(ctx)
		if err != nil {
			return err
		}
		defer sk.Close()

		client := azureopenai.NewClient(
			cfg.Azure.Endpoint,
			deployment,
			cfg.Azure.APIKey,
			azureopenai.WithAPIVersion(cfg.Azure.APIVersion),
			azureopenai.WithTimeout(time.Duration(cfg.Run.TimeoutSecs)*time.Second),
		)
		router := routing.New(client, cfg.Run.Profile)

		zap.L().Info("run configured",
			zap.String("profile", cfg.Run.Profile),
			zap.String("deployment", deployment),
			zap.Int("target", cfg.Run.Target),
		)

		r := runner.New(initSource(), router, sk, runner.Options{
			Target: cfg.Run.Target,
			Limit:  runLimit,
			RPS:    cfg.Run.RPS,
		})

		summary, err := r.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "batch run")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return eris.Wrap(err, "encode summary")
		}

		if !summary.TargetReached() {
			return eris.Errorf("prompt source exhausted at %d/%d successes",
				summary.Succeeded+summary.Resumed, summary.Target)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runProfile, "profile", "", "routing profile name (default from config)")
	runCmd.Flags().IntVar(&runTarget, "target", 0, "success count to stop at (default from config)")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "max prompts to load from the dataset (0 = all)")
	runCmd.Flags().StringVar(&runProfiles, "profiles-file", "profiles.yaml", "optional profile-to-deployment mapping")
	rootCmd.AddCommand(runCmd)
}
