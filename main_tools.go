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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cloudwego/transworker/internal/job"
	"github.com/cloudwego/transworker/internal/log"
	"github.com/cloudwego/transworker/internal/queue"
	"github.com/cloudwego/transworker/internal/store"
	"github.com/cloudwego/transworker/internal/worker"
	"github.com/cloudwego/transworker/lang/identifier"
)

func newEnqueueCmd() *cobra.Command {
	var (
		id           string
		instructions string
		headers      []string
		testFile     string
	)
	cmd := &cobra.Command{
		Use:   "enqueue <file.cpp>",
		Short: "upload a C++ file and submit a translation job for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if id == "" {
				id = uuid.NewString()
			}
			j := job.Job{
				ID:             id,
				SourceFilename: filepath.Base(args[0]),
				Instructions:   instructions,
				TestReference:  testFile,
			}
			if len(headers) > 0 {
				j.Headers = make(map[string]string, len(headers))
				for _, h := range headers {
					bs, err := os.ReadFile(h)
					if err != nil {
						return errors.Wrap(err, "read header")
					}
					j.Headers[filepath.Base(h)] = string(bs)
				}
			}

			src, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "read source")
			}
			if err := os.MkdirAll(cfg.Paths.UploadDir, 0o755); err != nil {
				return errors.Wrap(err, "create upload dir")
			}
			// uploads are stored under the job id, the way the ingestion service does it
			dst := filepath.Join(cfg.Paths.UploadDir, id+".cpp")
			if err := os.WriteFile(dst, src, 0o644); err != nil {
				return errors.Wrap(err, "store upload")
			}

			body, err := json.Marshal(j.Message())
			if err != nil {
				return errors.Wrap(err, "encode job")
			}
			ctx, stop := signalContext()
			defer stop()
			broker, err := queue.Dial(ctx, cfg.QueueOptions())
			if err != nil {
				return err
			}
			defer broker.Close()
			if err := broker.Publish(ctx, cfg.Broker.InboundQueue, body); err != nil {
				return err
			}
			log.Info("enqueued job %s for %s (%s)", id, j.SourceFilename, identifier.FromFilename(j.SourceFilename))
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "job id (default: random)")
	cmd.Flags().StringVarP(&instructions, "prompt", "p", "", "custom instructions appended to the prompt")
	cmd.Flags().StringSliceVar(&headers, "header", nil, "header files sent as extra context, support multiple values")
	cmd.Flags().StringVar(&testFile, "test-file", "", "reference passed through to test generation")
	return cmd
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <name>...",
		Short: "print the Java type name derived from file names",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			for _, a := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", a, identifier.FromFilename(a))
			}
		},
	}
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema <inbound|outbound>",
		Short:     "print the JSON Schema of the inbound or outbound message",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"inbound", "outbound"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var v any
			switch args[0] {
			case "inbound":
				v = &job.InboundMessage{}
			case "outbound":
				v = &job.OutboundMessage{}
			default:
				return errors.Errorf("unknown message %q, want inbound or outbound", args[0])
			}
			r := &jsonschema.Reflector{ExpandedStruct: true}
			bs, err := json.MarshalIndent(r.Reflect(v), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(bs))
			return nil
		},
	}
}

func newRepublishCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "republish",
		Short: "publish journaled results whose notification never went out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Journal.Path == "" {
				return errors.New("journal.path is not configured")
			}
			j, err := store.Open(cfg.Journal.Path)
			if err != nil {
				return err
			}
			defer j.Close()

			ctx, stop := signalContext()
			defer stop()
			entries, err := j.Unpublished(ctx, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to republish")
				return nil
			}
			broker, err := queue.Dial(ctx, cfg.QueueOptions())
			if err != nil {
				return err
			}
			defer broker.Close()
			n, err := worker.NewNotifier(cfg.Broker.OutboundQueue, j).Republish(ctx, broker, entries)
			fmt.Fprintf(cmd.OutOrStdout(), "republished %d of %d results\n", n, len(entries))
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "max results to republish (0: all)")
	return cmd
}
