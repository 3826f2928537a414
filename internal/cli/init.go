package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/fleetwatch/internal/config"
	"github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/ui"
	"github.com/spf13/cobra"
)

const (
	authKey      = "key"
	authPassword = "password"

	defaultKeyFile = "~/.ssh/id_ed25519"
)

// initAnswers are the values the init form collects.
type initAnswers struct {
	Username   string
	Auth       string
	KeyFile    string
	Password   string
	ServerName string
	Hostname   string
	Port       int
}

type initOptions struct {
	Path           string
	Force          bool
	NonInteractive bool
	Answers        initAnswers
}

var initOpts initOptions

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter config file",
	Long: `Create a fleetwatch config with global SSH defaults and a first server.

Runs an interactive form unless --non-interactive is given, in which case
--username, --name and --hostname are required.

Examples:
  fleetwatch init
  fleetwatch init --non-interactive --username ops --name web01 --hostname 10.0.0.5
  fleetwatch init --path ~/.config/fleetwatch/config.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand(cmd.OutOrStdout(), initOpts)
	},
}

func init() {
	f := initCmd.Flags()
	f.StringVar(&initOpts.Path, "path", config.ConfigFileName, "where to write the config")
	f.BoolVarP(&initOpts.Force, "force", "f", false, "overwrite an existing config")
	f.BoolVar(&initOpts.NonInteractive, "non-interactive", false, "take every value from flags, no prompts")
	f.StringVar(&initOpts.Answers.Username, "username", "", "SSH user for every server")
	f.StringVar(&initOpts.Answers.KeyFile, "key-file", "", "private key for every server (default "+defaultKeyFile+")")
	f.StringVar(&initOpts.Answers.ServerName, "name", "", "name of the first server")
	f.StringVar(&initOpts.Answers.Hostname, "hostname", "", "address or ~/.ssh/config alias of the first server")
	f.IntVar(&initOpts.Answers.Port, "port", config.DefaultPort, "SSH port of the first server")

	rootCmd.AddCommand(initCmd)
}

func initCommand(out io.Writer, opts initOptions) error {
	path := config.ExpandTilde(opts.Path)
	answers := opts.Answers

	if _, err := os.Stat(path); err == nil && !opts.Force {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				"Config file already exists: "+path,
				"Use --force to overwrite it.")
		}
		overwrite, err := confirmOverwrite(path)
		if err != nil {
			return err
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	if !opts.NonInteractive {
		if !ui.IsTerminal(os.Stdin) {
			return errors.New(errors.ErrConfig,
				"Can't prompt for values: stdin is not a terminal",
				"Run with --non-interactive and pass --username, --name and --hostname.")
		}
		if err := runInitForm(&answers); err != nil {
			return err
		}
	}

	file, err := buildInitFile(answers)
	if err != nil {
		return err
	}

	if err := config.Write(path, file, true); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write config file: "+path,
			"Check directory permissions.")
	}

	fmt.Fprintf(out, "%s Created %s\n\n", ui.SymbolSuccess, path)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  fleetwatch add     - Add more servers")
	fmt.Fprintln(out, "  fleetwatch check   - Test every connection")
	fmt.Fprintln(out, "  fleetwatch         - Start watching")
	return nil
}

// buildInitFile turns answers into a config and validates it before anything is written.
func buildInitFile(a initAnswers) (*config.File, error) {
	file := config.DefaultFile()
	file.Global.Username = strings.TrimSpace(a.Username)

	switch a.Auth {
	case authPassword:
		file.Global.Password = a.Password
	default:
		file.Global.KeyFilename = strings.TrimSpace(a.KeyFile)
		if file.Global.KeyFilename == "" {
			file.Global.KeyFilename = defaultKeyFile
		}
	}

	srv := config.Server{
		Name:     strings.TrimSpace(a.ServerName),
		Hostname: strings.TrimSpace(a.Hostname),
	}
	if a.Port != 0 && a.Port != config.DefaultPort {
		srv.Port = a.Port
	}
	file.Servers = append(file.Servers, srv)

	if _, err := config.Resolve(file); err != nil {
		return nil, err
	}
	return file, nil
}

func confirmOverwrite(path string) (bool, error) {
	var overwrite bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", path)).
				Value(&overwrite),
		),
	)
	if err := form.Run(); err != nil {
		return false, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Try running with --force to overwrite")
	}
	return overwrite, nil
}

func runInitForm(a *initAnswers) error {
	if a.Auth == "" {
		a.Auth = authKey
	}
	if a.KeyFile == "" {
		a.KeyFile = defaultKeyFile
	}
	port := strconv.Itoa(a.Port)
	if a.Port == 0 {
		port = strconv.Itoa(config.DefaultPort)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("SSH user").
				Description("Used for every server unless a server sets its own").
				Placeholder("ops").
				Value(&a.Username).
				Validate(required("SSH user")),
			huh.NewSelect[string]().
				Title("Authentication").
				Options(
					huh.NewOption("Private key file", authKey),
					huh.NewOption("Password", authPassword),
				).
				Value(&a.Auth),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Private key file").
				Value(&a.KeyFile).
				Validate(required("key file")),
		).WithHideFunc(func() bool { return a.Auth != authKey }),
		huh.NewGroup(
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&a.Password).
				Validate(required("password")),
		).WithHideFunc(func() bool { return a.Auth != authPassword }),
		huh.NewGroup(
			huh.NewInput().
				Title("First server name").
				Description("A short label shown in the table").
				Placeholder("web01").
				Value(&a.ServerName).
				Validate(serverName),
			huh.NewInput().
				Title("Hostname").
				Description("IP, DNS name or ~/.ssh/config alias").
				Placeholder("10.0.0.5").
				Value(&a.Hostname).
				Validate(required("hostname")),
			huh.NewInput().
				Title("SSH port").
				Value(&port).
				Validate(validPort),
		),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility or use --non-interactive")
	}

	a.Port, _ = strconv.Atoi(strings.TrimSpace(port))
	return nil
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

func serverName(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("server name is required")
	}
	if strings.ContainsAny(s, " \t\n") {
		return fmt.Errorf("server name cannot contain whitespace")
	}
	return nil
}

func validPort(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}
