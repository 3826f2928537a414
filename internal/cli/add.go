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
	"github.com/rileyhilliard/fleetwatch/pkg/sshutil"
	"github.com/spf13/cobra"
)

// manualEntry is the picker value for typing a hostname instead of choosing an alias.
const manualEntry = ""

type addOptions struct {
	ConfigPath string
	Server     config.Server

	// Interactive forces the form even when --name and --hostname are set.
	Interactive bool
}

var addServer config.Server

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a server to the config",
	Long: `Append a server to the servers list of an existing config, keeping
its comments and layout.

With --name and --hostname the server is added directly. Otherwise a form
asks for the values and offers the hosts defined in ~/.ssh/config.

Examples:
  fleetwatch add
  fleetwatch add --name db01 --hostname 10.0.0.9
  fleetwatch add --name gpu --hostname gpu-box --key-file ~/.ssh/gpu_ed25519`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return addCommand(cmd.OutOrStdout(), addOptions{
			ConfigPath:  cfgFile,
			Server:      addServer,
			Interactive: addServer.Name == "" || addServer.Hostname == "",
		})
	},
}

func init() {
	f := addCmd.Flags()
	f.StringVar(&addServer.Name, "name", "", "server name shown in the table")
	f.StringVar(&addServer.Hostname, "hostname", "", "address or ~/.ssh/config alias")
	f.StringVar(&addServer.Username, "username", "", "SSH user (default: global username)")
	f.StringVar(&addServer.KeyFilename, "key-file", "", "private key (default: global credential)")
	f.IntVar(&addServer.Port, "port", 0, "SSH port (default: global port)")

	rootCmd.AddCommand(addCmd)
}

func addCommand(out io.Writer, opts addOptions) error {
	path, err := config.Find(opts.ConfigPath)
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New(errors.ErrConfig,
			"No config file found",
			"Run 'fleetwatch init' first, or pass --config.")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	srv := opts.Server
	if opts.Interactive {
		if !ui.IsTerminal(os.Stdin) {
			return errors.New(errors.ErrConfig,
				"Can't prompt for values: stdin is not a terminal",
				"Pass --name and --hostname.")
		}
		aliases, err := sshutil.ParseSSHConfig()
		if err != nil {
			fmt.Fprintf(out, "%s Couldn't read ~/.ssh/config: %v\n", ui.SymbolFail, err)
		}
		if err := runAddForm(&srv, aliases, cfg.HostNames()); err != nil {
			return err
		}
	}

	srv.Name = strings.TrimSpace(srv.Name)
	srv.Hostname = strings.TrimSpace(srv.Hostname)
	if err := validateNewServer(srv, cfg.HostNames()); err != nil {
		return err
	}

	if err := config.AppendServer(path, srv); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to add server to "+path,
			"Check the file is valid YAML and writable.")
	}

	if _, err := config.Load(path); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Added '%s' but %s no longer validates", srv.Name, path),
			"Edit the new entry at the end of the servers list.")
	}

	fmt.Fprintf(out, "%s Added server '%s' to %s\n", ui.SymbolSuccess, srv.Name, path)
	return nil
}

// validateNewServer checks what the config loader can't see before the entry exists.
func validateNewServer(srv config.Server, existing []string) error {
	if err := serverName(srv.Name); err != nil {
		return errors.New(errors.ErrConfig, "Invalid server name", err.Error())
	}
	if srv.Hostname == "" {
		return errors.New(errors.ErrConfig,
			"Server '"+srv.Name+"' has no hostname",
			"Pass --hostname with an address or ~/.ssh/config alias.")
	}
	if srv.Port < 0 || srv.Port > 65535 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Port %d is out of range", srv.Port),
			"Use a port between 1 and 65535, or leave it out.")
	}
	for _, name := range existing {
		if name == srv.Name {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Server '%s' already exists", srv.Name),
				"Pick another name.")
		}
	}
	return nil
}

// aliasOptions lists ~/.ssh/config hosts for the picker, manual entry first.
func aliasOptions(aliases []sshutil.SSHHostEntry) []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(aliases)+1)
	options = append(options, huh.NewOption("Enter a hostname", manualEntry))
	for _, a := range aliases {
		label := a.Alias
		if desc := a.Description(); desc != a.Alias {
			label += " - " + desc
		}
		options = append(options, huh.NewOption(label, a.Alias))
	}
	return options
}

func runAddForm(srv *config.Server, aliases []sshutil.SSHHostEntry, existing []string) error {
	alias := manualEntry
	if len(aliases) > 0 && srv.Hostname == "" {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Pick a host from ~/.ssh/config").
					Options(aliasOptions(aliases)...).
					Value(&alias),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't get your selection",
				"Try again or use: fleetwatch add --name <name> --hostname <host>")
		}
		if alias != manualEntry {
			srv.Hostname = alias
			if srv.Name == "" {
				srv.Name = alias
			}
		}
	}

	port := ""
	if srv.Port != 0 {
		port = strconv.Itoa(srv.Port)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server name").
				Value(&srv.Name).
				Validate(func(s string) error {
					if err := serverName(s); err != nil {
						return err
					}
					for _, name := range existing {
						if name == strings.TrimSpace(s) {
							return fmt.Errorf("server '%s' already exists", name)
						}
					}
					return nil
				}),
			huh.NewInput().
				Title("Hostname").
				Description("IP, DNS name or ~/.ssh/config alias").
				Value(&srv.Hostname).
				Validate(required("hostname")),
			huh.NewInput().
				Title("SSH user").
				Description("Leave empty to use the global username").
				Value(&srv.Username),
			huh.NewInput().
				Title("SSH port").
				Description("Leave empty to use the global port").
				Value(&port).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					return validPort(s)
				}),
		),
	)
	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't get your input",
			"Try again or use: fleetwatch add --name <name> --hostname <host>")
	}

	srv.Port, _ = strconv.Atoi(strings.TrimSpace(port))
	return nil
}
