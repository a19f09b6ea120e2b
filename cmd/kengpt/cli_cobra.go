package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kengpt/kengpt/pkg/chat"
	"github.com/kengpt/kengpt/pkg/logger"
)

func executeCLI() error {
	root := buildRootCommand()
	if err := root.Execute(); err != nil {
		return err
	}
	return nil
}

func buildRootCommand() *cobra.Command {
	var showVersion bool

	root := &cobra.Command{
		Use:   "kengpt",
		Short: "Terminal chat client with persistent memory, profiles, and speech",
		Long: strings.TrimSpace(`kengpt is a terminal client for a KenGPT chat backend.

Use CLI commands to onboard, chat interactively or one-shot, manage the
conversation memory and persona profiles, list backend models, and export
the transcript to HTML.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion()
				return nil
			}
			_ = cmd.Help()
			return fmt.Errorf("a subcommand is required")
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "Show build/version metadata")

	root.AddCommand(newOnboardCommand())
	root.AddCommand(newChatCommand())
	root.AddCommand(newModelsCommand())
	root.AddCommand(newProfilesCommand())
	root.AddCommand(newMemoryCommand())
	root.AddCommand(newExportCommand())
	root.AddCommand(newStatusCommand())
	root.AddCommand(newVersionCommand())

	return root
}

func newOnboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "onboard",
		Short:   "Initialize ~/.kengpt config",
		Long:    "Create a default configuration file for a new kengpt installation.",
		Example: "  kengpt onboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return onboard()
		},
	}
}

func newChatCommand() *cobra.Command {
	var (
		message string
		speak   bool
		debug   bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the backend (interactive or one-shot)",
		Long:  "Run an interactive chat session or send a one-shot message. Memory persists across runs.",
		Example: strings.Join([]string{
			"  kengpt chat",
			"  kengpt chat --message \"what did we discuss yesterday?\"",
			"  kengpt chat --speak",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				logger.SetLevel(logger.DEBUG)
			}
			return chatCmd(strings.TrimSpace(message), speak)
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "One-shot message to send")
	cmd.Flags().BoolVarP(&speak, "speak", "s", false, "Save synthesized speech for each reply")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

func newModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "models",
		Short:   "List models the backend offers",
		Example: "  kengpt models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return modelsCmd()
		},
	}
}

func newProfilesCommand() *cobra.Command {
	profilesRoot := &cobra.Command{
		Use:   "profiles",
		Short: "Manage persona profiles",
		Long:  "List, switch, and edit the persona profiles requests are sent with.",
	}

	profilesRoot.AddCommand(&cobra.Command{
		Use:     "list",
		Short:   "List saved profiles",
		Example: "  kengpt profiles list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return profilesListCmd()
		},
	})

	use := &cobra.Command{
		Use:     "use <botname>",
		Short:   "Make a saved profile active",
		Args:    cobra.ExactArgs(1),
		Example: "  kengpt profiles use \"KenGPT Oracle\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			return profilesUseCmd(args[0])
		},
	}
	profilesRoot.AddCommand(use)

	var (
		username    string
		botname     string
		instruction string
		model       string
	)

	set := &cobra.Command{
		Use:   "set",
		Short: "Save a profile and make it active",
		Long:  "Create or update a profile under its botname. Saving also activates it.",
		Example: strings.Join([]string{
			"  kengpt profiles set --botname Tutor --instruction \"You are a patient tutor.\"",
			"  kengpt profiles set --botname Tutor --instruction \"...\" --model gpt-4o-mini",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return profilesSetCmd(chat.Profile{
				Username:    username,
				Botname:     botname,
				Instruction: instruction,
				Model:       model,
			})
		},
	}
	set.Flags().StringVarP(&username, "username", "u", "", "How the backend should address you")
	set.Flags().StringVarP(&botname, "botname", "b", "", "Profile name (required)")
	set.Flags().StringVarP(&instruction, "instruction", "i", "", "System instruction (required)")
	set.Flags().StringVar(&model, "model", "", "Backend model override")
	profilesRoot.AddCommand(set)

	return profilesRoot
}

func newMemoryCommand() *cobra.Command {
	memoryRoot := &cobra.Command{
		Use:   "memory",
		Short: "Manage the persisted conversation memory",
	}

	memoryRoot.AddCommand(&cobra.Command{
		Use:     "clear",
		Short:   "Delete the whole transcript",
		Example: "  kengpt memory clear",
		RunE: func(cmd *cobra.Command, args []string) error {
			return memoryClearCmd()
		},
	})

	rewind := &cobra.Command{
		Use:     "rewind <timestamp-ms>",
		Short:   "Delete messages at or after a timestamp",
		Long:    "Remove every message whose timestamp is at or after the cutoff, rewinding the conversation to that point.",
		Args:    cobra.ExactArgs(1),
		Example: "  kengpt memory rewind 1719430000000",
		RunE: func(cmd *cobra.Command, args []string) error {
			cutoff, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid timestamp %q: %w", args[0], err)
			}
			return memoryRewindCmd(cutoff)
		},
	}
	memoryRoot.AddCommand(rewind)

	return memoryRoot
}

func newExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Export the transcript as a standalone HTML page",
		Example: "  kengpt export --output transcript.html",
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportCmd(output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "transcript.html", "Output file path")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show configuration, memory, and backend readiness",
		Example: "  kengpt status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return statusCmd()
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Show build/version metadata",
		Example: "  kengpt version",
		RunE: func(cmd *cobra.Command, args []string) error {
			printVersion()
			return nil
		},
	}
}
