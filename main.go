// Copyright 2025 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cloudwego/transworker/internal/artifact"
	"github.com/cloudwego/transworker/internal/config"
	"github.com/cloudwego/transworker/internal/log"
	"github.com/cloudwego/transworker/internal/pipeline"
	"github.com/cloudwego/transworker/internal/queue"
	"github.com/cloudwego/transworker/internal/store"
	"github.com/cloudwego/transworker/internal/worker"
	"github.com/cloudwego/transworker/lang/cxx"
	"github.com/cloudwego/transworker/lang/java"
	"github.com/cloudwego/transworker/llm"
	"github.com/cloudwego/transworker/llm/prompt"
	"github.com/cloudwego/transworker/version"
)

const Usage = `transworker <Action> [Args] [Flags]
Action:
   worker       consume translation jobs and publish their results
   enqueue      upload a C++ file and submit a translation job for it
   normalize    print the Java type name derived from file names
   schema       print the JSON Schema of the inbound or outbound message
   republish    publish journaled results whose notification never went out
   version      print the version of transworker
`

var (
	flagConfig  string
	flagEnv     []string
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:           "transworker",
		Short:         "C++ to Java translation worker",
		Long:          Usage,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "YAML config file.")
	root.PersistentFlags().StringSliceVar(&flagEnv, "env-file", nil, "dotenv files to load (default: ./.env if present).")
	root.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Verbose mode.")

	root.AddCommand(
		newWorkerCmd(),
		newEnqueueCmd(),
		newNormalizeCmd(),
		newSchemaCmd(),
		newRepublishCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "print the version of transworker",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", version.Version)
			},
		},
	)

	if err := root.Execute(); err != nil {
		log.Error("%v", err)
		log.Sync()
		os.Exit(1)
	}
	log.Sync()
}

// loadConfig reads configuration and sets up logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig, flagEnv...)
	if err != nil {
		return nil, err
	}
	if err := log.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}
	if flagVerbose {
		log.SetLogLevel(log.DebugLevel)
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newWorkerCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "consume translation jobs and publish their results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if id == "" {
				id = uuid.NewString()
			}
			ctx, stop := signalContext()
			defer stop()
			return runWorker(ctx, cfg, id)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "consumer id, also names its private work dir (default: random)")
	return cmd
}

func runWorker(ctx context.Context, cfg *config.Config, id string) error {
	artifacts, err := artifact.NewStore(cfg.Paths.UploadDir, cfg.Paths.OutputDir, filepath.Join(cfg.Paths.WorkDir, id))
	if err != nil {
		return err
	}
	orch, err := newOrchestrator(ctx, cfg, artifacts)
	if err != nil {
		return err
	}

	var journal worker.Journal
	if cfg.Journal.Path != "" {
		j, err := store.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer j.Close()
		journal = j
	}

	qopts := cfg.QueueOptions()
	consumer := worker.NewConsumer(
		worker.Config{ID: id, InboundQueue: cfg.Broker.InboundQueue, ReconnectDelay: cfg.Broker.ReconnectDelay},
		func(ctx context.Context) (queue.Broker, error) { return queue.Dial(ctx, qopts) },
		orch,
		worker.NewNotifier(cfg.Broker.OutboundQueue, journal),
		artifacts,
	)
	log.Info("transworker %s: consumer %s, model %s via %s, max retries %d",
		version.Version, id, cfg.LLM.ModelName, cfg.LLM.APIType, cfg.Translation.MaxRetries)
	return consumer.Run(ctx)
}

func newOrchestrator(ctx context.Context, cfg *config.Config, artifacts *artifact.Store) (*pipeline.Orchestrator, error) {
	oracle, err := llm.NewOracle(ctx, cfg.LLM.ModelConfig)
	if err != nil {
		return nil, errors.Wrap(err, "create llm oracle")
	}
	system, err := prompt.LoadSystem(cfg.LLM.SystemPrompt, cfg.LLM.SystemPromptFile, prompt.SystemData{JavaRelease: cfg.Compiler.Release})
	if err != nil {
		return nil, err
	}
	deps := pipeline.Deps{
		Oracle:    oracle,
		Compiler:  java.NewCompiler(cfg.CompilerOptions()),
		Artifacts: artifacts,
		Prompts:   prompt.NewBuilder(cfg.Compiler.Release),
		Sanitizer: prompt.NewSanitizer(cfg.Translation.LogMaxLines, cfg.Translation.LogMaxChars),
	}
	if cfg.Translation.CustomHints {
		deps.Hints = cxx.NewExtractor()
	}
	return pipeline.NewOrchestrator(deps, pipeline.Options{
		MaxRetries:    cfg.Translation.MaxRetries,
		OracleTimeout: cfg.LLM.Timeout,
		SystemPrompt:  system.String(),
	})
}
