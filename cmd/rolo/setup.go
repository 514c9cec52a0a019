package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/rolodex-dev/rolodex/internal/config"
	"github.com/rolodex-dev/rolodex/internal/ui"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "setup",
	Short:   "Manage the rolodex.toml config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default settings",
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		path := configPath()

		if err := config.WriteDefault(path, force); err != nil {
			if errors.Is(err, config.ErrExists) {
				fatalf("%s already exists (use --force to overwrite)", path)
			}
			fatalf("%v", err)
		}
		fmt.Printf("%s Wrote %s\n", ui.RenderPass("✓"), path)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <section.key> <value>",
	Short: "Set one setting in the config file",
	Long: `Set one setting in the config file, creating the file if needed.

Examples:
  rolo config set source.path ~/Exports/contacts.json
  rolo config set tagging.batch_size 20
  rolo config set source.consent false`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		path := configPath()
		if err := config.Set(path, args[0], parseValue(args[1])); err != nil {
			fatalf("%v", err)
		}
		if _, err := config.Load(path); err != nil {
			fmt.Fprintln(os.Stderr, ui.RenderWarn("Warning: "+err.Error()))
		}
		fmt.Printf("%s %s = %s\n", ui.RenderPass("✓"), args[0], args[1])
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Run: func(cmd *cobra.Command, args []string) {
		v := config.New(configFile)
		_ = v.ReadInConfig()
		if used := v.ConfigFileUsed(); used != "" {
			fmt.Printf("# %s\n", used)
		}
		if err := toml.NewEncoder(os.Stdout).Encode(v.AllSettings()); err != nil {
			fatalf("failed to encode settings: %v", err)
		}
	},
}

var authCmd = &cobra.Command{
	Use:     "auth",
	GroupID: "setup",
	Short:   "Manage the tagging API key",
	Long: `Manage the tagging API key.

The key is looked up at start in this order:
  1. ROLO_TAGGING_API_KEY environment variable
  2. the dotenv file named by tagging.env_file (default .env)
  3. the OS keyring (written by 'rolo auth login')`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the tagging API key in the OS keyring",
	Run: func(cmd *cobra.Command, args []string) {
		fromStdin, _ := cmd.Flags().GetBool("stdin")

		var key string
		var err error
		if fromStdin {
			key, err = bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && key == "" {
				fatalf("failed to read key from stdin: %v", err)
			}
		} else {
			key, err = ui.Secret(context.Background(), "Tagging API key")
			if errors.Is(err, ui.ErrNotInteractive) {
				fatalf("no terminal; pipe the key with --stdin or set %s", config.EnvAPIKey)
			}
			if err != nil {
				fatalf("%v", err)
			}
		}

		if err := config.StoreAPIKey(key); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("%s API key stored in the OS keyring\n", ui.RenderPass("✓"))
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the tagging API key from the OS keyring",
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.DeleteAPIKey(); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("%s API key removed from the OS keyring\n", ui.RenderPass("✓"))
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the tagging API key would be read from",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		_, from, err := config.ResolveAPIKey(cfg.Tagging.EnvFile)
		if err != nil {
			fmt.Println(ui.RenderWarn(err.Error()))
			os.Exit(1)
		}
		fmt.Printf("%s API key found (%s)\n", ui.RenderPass("✓"), from)
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configSetCmd, configShowCmd)

	authLoginCmd.Flags().Bool("stdin", false, "read the key from standard input")
	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authStatusCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(authCmd)
}

// configPath is --config, else the file Load would pick, else the default.
func configPath() string {
	if configFile != "" {
		return configFile
	}
	v := config.New("")
	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed()
	}
	return config.DefaultFile()
}

// parseValue keeps booleans and integers typed in the TOML output.
func parseValue(s string) any {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
