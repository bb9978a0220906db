// Copyright (c) 2016-2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/uber/modelpull/lib/cancellation"
	"github.com/uber/modelpull/utils/log"
)

// Execute runs the command line in os.Args and exits the process.
func Execute() {
	os.Exit(Run(os.Args[1:]))
}

// Run executes the modelpull command line given by args and returns the
// process exit code.
func Run(args []string, opts ...Option) int {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var (
		configFile  string
		coordinator *cancellation.Coordinator
	)

	// with wraps a command body with the app lifecycle.
	with := func(f func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
		return func(c *cobra.Command, args []string) error {
			a, err := newApp(configFile, o)
			if err != nil {
				return err
			}
			defer a.close()
			coordinator = a.coordinator
			return f(context.Background(), a, args)
		}
	}

	rootCmd := &cobra.Command{
		Use:           "modelpull",
		Short:         "modelpull downloads models from the Ollama library and Hugging Face into a local model store.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(
		&configFile, "config", "", "", "configuration file path")

	var (
		libraryPage, libraryPageSize int
		hfPage, hfPageSize           int
	)

	listModelsCmd := &cobra.Command{
		Use:   "list-models",
		Short: "Lists the models of the Ollama library. Without --page and --page-size every model is listed.",
		Args:  cobra.NoArgs,
		RunE: with(func(ctx context.Context, a *app, _ []string) error {
			header := "Model identifiers"
			if libraryPage > 0 && libraryPageSize > 0 {
				header = fmt.Sprintf("Model identifiers, page %d", libraryPage)
			}
			return a.list(header, func() ([]string, error) {
				return a.registry.ListLibraryModels(ctx, libraryPage, libraryPageSize)
			})
		}),
	}
	listModelsCmd.Flags().IntVar(&libraryPage, "page", 0, "page to list, starting at 1")
	listModelsCmd.Flags().IntVar(&libraryPageSize, "page-size", 0, "models per page")

	listTagsCmd := &cobra.Command{
		Use:   "list-tags MODEL",
		Short: "Lists the tags of an Ollama library model, e.g. llama3.1.",
		Args:  cobra.ExactArgs(1),
		RunE: with(func(ctx context.Context, a *app, args []string) error {
			return a.list("Model tags", func() ([]string, error) {
				return a.registry.ListLibraryTags(ctx, args[0])
			})
		}),
	}

	pullCmd := &cobra.Command{
		Use:   "pull MODEL[:TAG]",
		Short: "Downloads an Ollama library model, e.g. llama3.1:8b. The tag defaults to latest.",
		Args:  cobra.ExactArgs(1),
		RunE: with(func(ctx context.Context, a *app, args []string) error {
			return a.pull(ctx, a.registry.Library(), args[0])
		}),
	}

	hfListModelsCmd := &cobra.Command{
		Use:   "hf-list-models",
		Short: "Lists Hugging Face models which can be downloaded into Ollama.",
		Args:  cobra.NoArgs,
		RunE: with(func(ctx context.Context, a *app, _ []string) error {
			header := fmt.Sprintf("Model identifiers, page %d", hfPage)
			return a.list(header, func() ([]string, error) {
				return a.registry.ListModels(ctx, hfPage, hfPageSize)
			})
		}),
	}
	hfListModelsCmd.Flags().IntVar(&hfPage, "page", 1, "page to list, starting at 1")
	hfListModelsCmd.Flags().IntVar(&hfPageSize, "page-size", 25, "models per page, at most 100")

	hfListTagsCmd := &cobra.Command{
		Use:   "hf-list-tags USER/REPO",
		Short: "Lists the quantisations of a Hugging Face model as tags.",
		Args:  cobra.ExactArgs(1),
		RunE: with(func(ctx context.Context, a *app, args []string) error {
			return a.list("Model tags", func() ([]string, error) {
				return a.registry.ListTags(ctx, args[0])
			})
		}),
	}

	hfPullCmd := &cobra.Command{
		Use:   "hf-pull USER/REPO[:QUANT]",
		Short: "Downloads a Hugging Face GGUF model, e.g. unsloth/gemma-3-270m-it-GGUF:Q4_K_M.",
		Args:  cobra.ExactArgs(1),
		RunE: with(func(ctx context.Context, a *app, args []string) error {
			return a.pull(ctx, a.registry.HuggingFace(), args[0])
		}),
	}

	showConfigCmd := &cobra.Command{
		Use:   "show-config",
		Short: "Prints the loaded configuration as YAML.",
		Args:  cobra.NoArgs,
		RunE: with(func(_ context.Context, a *app, _ []string) error {
			return a.showConfig()
		}),
	}

	rootCmd.AddCommand(
		listModelsCmd, listTagsCmd, pullCmd,
		hfListModelsCmd, hfListTagsCmd, hfPullCmd,
		showConfigCmd)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	if err != nil {
		log.Errorf("Command failed: %s", err)
	}
	return exitCode(err, coordinator)
}
