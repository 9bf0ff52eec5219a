package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/nerrad567/sqlgate/internal/access"
	"github.com/nerrad567/sqlgate/internal/sqlfunc"
)

var configFlag = &cli.StringFlag{
	Name:      "config",
	Aliases:   []string{"c"},
	Usage:     "path to a .yaml or .toml configuration file",
	EnvVars:   []string{"SQLGATE_CONFIG"},
	Value:     defaultConfigPath,
	TakesFile: true,
}

// newApp builds the command-line application.
func newApp() *cli.App {
	return &cli.App{
		Name:    "sqlgate",
		Usage:   "execute SQL over HTTP against a single SQLite database",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Flags:   []cli.Flag{configFlag},
		Action:  serveAction,
		Commands: []*cli.Command{
			serveCmd,
			functionsCmd,
			checkConfigCmd,
			hashSecretCmd,
		},
	}
}

var serveCmd = &cli.Command{
	Name:   "serve",
	Usage:  "run the gateway (default)",
	Action: serveAction,
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c.String(configFlag.Name), c.IsSet(configFlag.Name))
	if err != nil {
		return err
	}
	return run(c.Context, cfg)
}

var functionsCmd = &cli.Command{
	Name:      "functions",
	Usage:     "list the SQL functions available to queries",
	ArgsUsage: "[name]",
	Action: func(c *cli.Context) error {
		registry, err := sqlfunc.Default()
		if err != nil {
			return fmt.Errorf("registering SQL functions: %w", err)
		}

		if name := c.Args().First(); name != "" {
			return describeFunction(c, registry, name)
		}

		tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tSIGNATURE")
		for _, n := range registry.Names() {
			sig, _ := registry.Signature(n)
			fmt.Fprintf(tw, "%s\t%s\n", n, sig)
		}
		return tw.Flush()
	},
}

func describeFunction(c *cli.Context, registry *sqlfunc.Registry, name string) error {
	sig, ok := registry.Signature(name)
	if !ok {
		return fmt.Errorf("unknown function %q", name)
	}
	doc, _ := registry.Documentation(name)

	fmt.Fprintf(c.App.Writer, "%s%s\n", strings.ToUpper(name), sig)
	if doc != "" {
		fmt.Fprintf(c.App.Writer, "\n%s\n", doc)
	}
	return nil
}

var checkConfigCmd = &cli.Command{
	Name:  "check-config",
	Usage: "load and validate the configuration, then print a summary",
	Action: func(c *cli.Context) error {
		path := c.String(configFlag.Name)
		cfg, err := loadConfig(path, c.IsSet(configFlag.Name))
		if err != nil {
			return err
		}

		w := c.App.Writer
		fmt.Fprintf(w, "configuration OK (%s)\n", path)
		fmt.Fprintf(w, "  listen:          %s:%d (tls: %t)\n", cfg.API.Host, cfg.API.Port, cfg.API.TLS.Enabled)
		fmt.Fprintf(w, "  route:           %s\n", cfg.Gateway.Route)
		fmt.Fprintf(w, "  database:        %s\n", cfg.Database.Path)
		fmt.Fprintf(w, "  startup script:  %s\n", cfg.Database.StartupScript)
		fmt.Fprintf(w, "  allowed IPs:     %s\n", listOrAll(cfg.Gateway.AllowedIPs))
		fmt.Fprintf(w, "  secret required: %t (%d entries)\n", cfg.SecretRequired(), len(cfg.Gateway.AllowedPasswords))
		fmt.Fprintf(w, "  query timeout:   %s\n", durationOrNone(cfg.Gateway.QueryTimeout))
		fmt.Fprintf(w, "  rate limit:      %t\n", cfg.Security.RateLimit.Enabled)
		fmt.Fprintf(w, "  mqtt:            %t\n", cfg.MQTT.Enabled)
		fmt.Fprintf(w, "  influxdb:        %t\n", cfg.InfluxDB.Enabled)
		return nil
	},
}

var hashSecretCmd = &cli.Command{
	Name:      "hash-secret",
	Usage:     "hash a shared secret for gateway.allowed_passwords",
	ArgsUsage: "[secret]",
	Description: `Prints an Argon2id PHC string. Without an argument the secret is read
   from the first line of standard input, which keeps it out of shell history.`,
	Action: func(c *cli.Context) error {
		secret := c.Args().First()
		if secret == "" {
			line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
			if err != nil && line == "" {
				return errors.New("no secret given")
			}
			secret = strings.TrimRight(line, "\r\n")
		}

		hash, err := access.HashSecret(secret)
		if err != nil {
			return fmt.Errorf("hashing secret: %w", err)
		}
		fmt.Fprintln(c.App.Writer, hash)
		return nil
	},
}

func listOrAll(items []string) string {
	if len(items) == 0 {
		return "any"
	}
	return strings.Join(items, ", ")
}

func durationOrNone(secs int) string {
	if secs == 0 {
		return "none"
	}
	return fmt.Sprintf("%ds", secs)
}
