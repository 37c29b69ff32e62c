package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/5amu/adhound/internal/config"
	"github.com/5amu/adhound/internal/directory"
	"github.com/5amu/adhound/pkg/bloodhound"
	"github.com/5amu/adhound/pkg/ldap"
	"github.com/fatih/color"
	"github.com/rodaine/table"
	"golang.org/x/sync/errgroup"
)

const TimestampLayout = "20060102150405"

// ConnectFunc opens an authenticated directory session to target. The
// returned function releases it.
type ConnectFunc func(ctx context.Context, target string) (directory.Searcher, func(), error)

type Result struct {
	Target string
	Domain string
	File   string
	Err    error
}

type Runner struct {
	cfg     *config.Config
	log     *slog.Logger
	methods bloodhound.CollectionMethod
	workers int
	now     func() time.Time

	// Connect defaults to an LDAP bind with the configured credentials.
	Connect ConnectFunc
}

func New(cfg *config.Config, log *slog.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	methods, err := cfg.Methods()
	if err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = config.DefaultWorkers
	}
	r := &Runner{cfg: cfg, log: log, methods: methods, workers: workers, now: time.Now}
	r.Connect = r.connectLDAP
	return r, nil
}

// Run collects the domain record from every target, at most cfg.Workers at a
// time (config.DefaultWorkers when unset). Per-target failures are reported in the results.
func (r *Runner) Run(ctx context.Context) []Result {
	targets := config.ExpandTargets(r.cfg.Targets)
	results := make([]Result, len(targets))

	var timestamp string
	if r.cfg.Output.Timestamp {
		timestamp = r.now().Format(TimestampLayout) + "_"
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			results[i] = r.collect(ctx, target, len(targets) > 1, timestamp)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Runner) collect(ctx context.Context, target string, multi bool, timestamp string) Result {
	res := Result{Target: target, Domain: r.cfg.Domain}
	log := r.log.With("target", target)

	searcher, release, err := r.Connect(ctx, target)
	if err != nil {
		log.Error("Could not connect", "error", err)
		res.Err = err
		return res
	}
	defer release()

	dir, err := directory.New(searcher, r.cfg.Domain, r.cfg.CacheSize, log)
	if err != nil {
		res.Err = err
		return res
	}

	prefix := r.cfg.Output.Prefix
	if multi {
		prefix = joinPrefix(prefix, target)
	}
	assembler := bloodhound.NewAssembler(dir, bloodhound.NewACLParser(dir, r.cfg.Domain), bloodhound.Options{
		Domain:     r.cfg.Domain,
		BaseDN:     dir.BaseDN(),
		Collection: r.methods,
		OutputDir:  r.cfg.Output.Dir,
		Prefix:     prefix,
		Timestamp:  timestamp,
		Indent:     r.cfg.Verbose,
	}, log)

	log.Info("Collecting domain", "collection", r.methods.String())
	res.File, res.Err = assembler.Dump(ctx)
	if res.Err == nil {
		log.Info("Domain written", "file", res.File)
	}
	return res
}

func joinPrefix(prefix, target string) string {
	if prefix == "" {
		return target
	}
	return prefix + "_" + target
}

func (r *Runner) connectLDAP(_ context.Context, target string) (directory.Searcher, func(), error) {
	c := ldap.NewLdapClient(target, r.cfg.Port, r.cfg.Domain, r.cfg.SSL, !r.cfg.StartTLS)
	if err := c.Connect(); err != nil {
		return nil, nil, err
	}

	var err error
	auth := r.cfg.Auth
	switch {
	case auth.Kerberos:
		err = c.AuthenticateKerberos(auth.Username, auth.Password, auth.Krb5Conf)
	case auth.NTLMHash != "":
		err = c.AuthenticateNTLM(auth.Username, auth.NTLMHash)
	default:
		err = c.Authenticate(auth.Username, auth.Password)
	}
	if err != nil {
		c.Close()
		return nil, nil, fmt.Errorf("bind as %s: %w", auth.Username, err)
	}
	return c, c.Close, nil
}

// PrintSummary renders one row per target.
func PrintSummary(w io.Writer, results []Result, nocolor bool) {
	tbl := table.New("Module", "Target", "Domain", "Status", "File").WithWriter(w)
	if !nocolor {
		tbl.WithHeaderFormatter(color.New(color.FgGreen, color.Underline).SprintfFunc()).
			WithFirstColumnFormatter(color.New(color.FgYellow).SprintfFunc())
	}
	for _, r := range results {
		status := "OK"
		if r.Err != nil {
			status = r.Err.Error()
		}
		file := "-"
		if r.File != "" {
			file = filepath.Base(r.File)
		}
		tbl.AddRow("LDAP", r.Target, r.Domain, status, file)
	}
	tbl.Print()
}

// Failed reports whether any target failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}
