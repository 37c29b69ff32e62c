package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/5amu/adhound/internal/config"
	"github.com/5amu/adhound/internal/printer"
	"github.com/5amu/adhound/internal/runner"
	"github.com/jessevdk/go-flags"
)

type Options struct {
	Targets struct {
		TARGETS []string `description:"Provide Domain Controller IP/FQDN/CIDR/FILE"`
	} `positional-args:"yes"`

	Config string `long:"config" description:"Load settings from a YAML file, flags take precedence"`

	Connection struct {
		Username string `short:"u" description:"Provide a username"`
		Password string `short:"p" description:"Provide a password"`
		NTLM     string `short:"H" long:"hashes" description:"Authenticate with NTLM hash"`
		Kerberos bool   `short:"k" long:"kerberos" description:"Authenticate with Kerberos"`
		Krb5Conf string `long:"krb5-conf" default:"/etc/krb5.conf" description:"krb5.conf used for Kerberos authentication"`
		Domain   string `short:"d" long:"domain" description:"Provide domain"`
		Port     int    `long:"port" description:"Ldap port to contact (default 389, 636 with --ssl)"`
		SSL      bool   `short:"s" long:"ssl" description:"Use ssl to interact with ldap"`
		UseTLS   bool   `long:"tls" description:"Upgrade the ldap connection"`
	} `group:"Connection Options" description:"Connection Options"`

	Collect struct {
		Collection []string `short:"c" long:"collection" description:"Which information to collect. Supported: Trusts, ACL, Container, Default, DCOnly, All (other collector methods are accepted and ignored). Defaults to Default (Trusts)"`
		OutputDir  string   `short:"o" long:"output-dir" description:"Directory where domains.json is written"`
		Prefix     string   `long:"prefix" description:"Prefix of the output file name"`
		Timestamp  bool     `long:"timestamp" description:"Prepend a timestamp to the output file name"`
		Workers    int      `short:"w" long:"workers" description:"Number of targets collected in parallel"`
	} `group:"Collection Options" description:"Collection Options"`

	Verbose bool `short:"v" long:"verbose" description:"Debug output and indented JSON"`
	NoColor bool `long:"no-color" description:"Disable colored output"`
}

// merge applies the flags that were set on top of cfg.
func (o *Options) merge(cfg *config.Config) {
	if len(o.Targets.TARGETS) > 0 {
		cfg.Targets = o.Targets.TARGETS
	}
	c := o.Connection
	if c.Username != "" {
		cfg.Auth.Username = c.Username
	}
	if c.Password != "" {
		cfg.Auth.Password = c.Password
	}
	if c.NTLM != "" {
		cfg.Auth.NTLMHash = c.NTLM
	}
	if c.Kerberos {
		cfg.Auth.Kerberos = true
	}
	if cfg.Auth.Krb5Conf == "" {
		cfg.Auth.Krb5Conf = c.Krb5Conf
	}
	if c.Domain != "" {
		cfg.Domain = c.Domain
	}
	if c.SSL {
		cfg.SSL = true
		if c.Port == 0 && cfg.Port == config.DefaultPort {
			cfg.Port = config.DefaultSSLPort
		}
	}
	if c.Port != 0 {
		cfg.Port = c.Port
	}
	if c.UseTLS {
		cfg.StartTLS = true
	}

	col := o.Collect
	if len(col.Collection) > 0 {
		cfg.Collection = col.Collection
	}
	if col.OutputDir != "" {
		cfg.Output.Dir = col.OutputDir
	}
	if col.Prefix != "" {
		cfg.Output.Prefix = col.Prefix
	}
	if col.Timestamp {
		cfg.Output.Timestamp = true
	}
	if col.Workers > 0 {
		cfg.Workers = col.Workers
	}
	if o.Verbose {
		cfg.Verbose = true
	}
	if o.NoColor {
		cfg.NoColor = true
	}
}

func (o *Options) load() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if o.Config != "" {
		var err error
		if cfg, err = config.LoadFromPath(o.Config); err != nil {
			return nil, err
		}
	}
	o.merge(cfg)
	return cfg, nil
}

func main() {
	p := flags.NewNamedParser("bhdomain", flags.Default)

	var opts Options
	if _, err := p.AddGroup("Application Options", "", &opts); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if _, err := p.Parse(); err != nil {
		os.Exit(1)
	}

	cfg, err := opts.load()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	log := printer.New(os.Stderr, "LDAP", level, cfg.NoColor)

	r, err := runner.New(cfg, log)
	if err != nil {
		log.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results := r.Run(ctx)
	fmt.Println()
	runner.PrintSummary(os.Stdout, results, cfg.NoColor)
	fmt.Println()

	if runner.Failed(results) {
		stop()
		os.Exit(1)
	}
}
