package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/stockdesk/schemachain"
	"github.com/stockdesk/schemachain/database"
	"github.com/stockdesk/schemachain/migrations"
	"github.com/stockdesk/schemachain/schema"
)

type command struct {
	name    string
	args    string
	summary string
	nargs   int
	run     func(ctx context.Context, w io.Writer, p *schemachain.Provider, args []string) error
}

// commands are listed in usage order. Those without run are handled before connecting.
var commands = []command{
	{name: "up", summary: "Apply every pending step", run: cmdUp},
	{name: "up-by-one", summary: "Apply the next pending step", run: cmdUpByOne},
	{name: "up-to", args: "REVISION", nargs: 1, summary: "Apply steps up to and including REVISION", run: cmdUpTo},
	{name: "down", summary: "Roll back the current step", run: cmdDown},
	{name: "down-to", args: "REVISION", nargs: 1, summary: "Roll back steps until REVISION is current (base for all)", run: cmdDownTo},
	{name: "redo", summary: "Roll back the current step and apply it again", run: cmdRedo},
	{name: "reset", summary: "Roll back every step", run: cmdReset},
	{name: "status", summary: "Print the state of every step", run: cmdStatus},
	{name: "version", summary: "Print the current revision of the database", run: cmdVersion},
	{name: "history", summary: "Print every recorded revision change", run: cmdHistory},
	{name: "force", args: "REVISION", nargs: 1, summary: "Record REVISION as current without running anything", run: cmdForce},
	{name: "plan", args: "REVISION", nargs: 1, summary: "Print the steps that moving to REVISION would run", run: cmdPlan},
	{name: "sql", args: "REVISION", summary: "Print the DDL from -from (default base) to REVISION without connecting"},
	{name: "validate", summary: "Check the chain and that every step renders for the dialect"},
	{name: "create", args: "NAME", summary: "Write the scaffold of a step after head into -dir"},
	{name: "env", summary: "Print the environment settings"},
}

func runCommand(ctx context.Context, w io.Writer, p *schemachain.Provider, name string, args []string) error {
	for _, c := range commands {
		if c.name != name || c.run == nil {
			continue
		}
		if len(args) != c.nargs {
			return fmt.Errorf("%s takes %d argument(s), got %d", name, c.nargs, len(args))
		}
		return c.run(ctx, w, p, args)
	}
	return fmt.Errorf("unknown command %q", name)
}

func cmdUp(ctx context.Context, w io.Writer, p *schemachain.Provider, _ []string) error {
	results, err := p.Up(ctx)
	return printResults(w, results, err)
}

func cmdUpByOne(ctx context.Context, w io.Writer, p *schemachain.Provider, _ []string) error {
	result, err := p.UpByOne(ctx)
	if err != nil {
		return printResults(w, nil, err)
	}
	return printResults(w, []*schemachain.MigrationResult{result}, nil)
}

func cmdUpTo(ctx context.Context, w io.Writer, p *schemachain.Provider, args []string) error {
	results, err := p.UpTo(ctx, args[0])
	return printResults(w, results, err)
}

func cmdDown(ctx context.Context, w io.Writer, p *schemachain.Provider, _ []string) error {
	result, err := p.Down(ctx)
	if err != nil {
		return printResults(w, nil, err)
	}
	return printResults(w, []*schemachain.MigrationResult{result}, nil)
}

func cmdDownTo(ctx context.Context, w io.Writer, p *schemachain.Provider, args []string) error {
	results, err := p.DownTo(ctx, args[0])
	return printResults(w, results, err)
}

func cmdRedo(ctx context.Context, w io.Writer, p *schemachain.Provider, _ []string) error {
	results, err := p.Redo(ctx)
	return printResults(w, results, err)
}

func cmdReset(ctx context.Context, w io.Writer, p *schemachain.Provider, _ []string) error {
	results, err := p.Reset(ctx)
	return printResults(w, results, err)
}

func cmdStatus(ctx context.Context, w io.Writer, p *schemachain.Provider, _ []string) error {
	status, err := p.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "    Applied At                  Revision")
	fmt.Fprintln(w, "    =======================================")
	for _, s := range status {
		var appliedAt string
		switch {
		case s.State == schemachain.StateDirty:
			appliedAt = "Dirty"
		case s.State == schemachain.StatePending:
			appliedAt = "Pending"
		case s.AppliedAt.IsZero():
			appliedAt = "Applied"
		default:
			appliedAt = s.AppliedAt.Format(time.ANSIC)
		}
		fmt.Fprintf(w, "    %-24s -- %s\n", appliedAt, s.Step.Revision)
	}
	return nil
}

func cmdVersion(ctx context.Context, w io.Writer, p *schemachain.Provider, _ []string) error {
	rev, err := p.GetRevision(ctx)
	if err != nil {
		return err
	}
	if rev == "" {
		rev = schemachain.Base
	}
	fmt.Fprintf(w, "revision %s\n", rev)
	return nil
}

func cmdHistory(ctx context.Context, w io.Writer, p *schemachain.Provider, _ []string) error {
	history, err := p.History(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tREVISION\tDIRTY\tRECORDED AT")
	for _, h := range history {
		rev := h.Revision
		if rev == "" {
			rev = schemachain.Base
		}
		fmt.Fprintf(tw, "%d\t%s\t%t\t%s\n", h.Seq, rev, h.Dirty, h.Timestamp.Format(time.RFC3339))
	}
	return tw.Flush()
}

func cmdForce(ctx context.Context, w io.Writer, p *schemachain.Provider, args []string) error {
	if err := p.Force(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(w, "forced revision %s\n", args[0])
	return nil
}

func cmdPlan(ctx context.Context, w io.Writer, p *schemachain.Provider, args []string) error {
	plan, err := p.Plan(ctx, args[0])
	if err != nil {
		return err
	}
	printPlan(w, plan)
	return nil
}

func printPlan(w io.Writer, plan *schemachain.Plan) {
	from, to := plan.From, plan.To
	if from == "" {
		from = schemachain.Base
	}
	if to == "" {
		to = schemachain.Base
	}
	if len(plan.Steps) == 0 {
		fmt.Fprintf(w, "nothing to do, already at %s\n", to)
		return
	}
	fmt.Fprintf(w, "%s -> %s (%s, %d steps)\n", from, to, plan.Direction, len(plan.Steps))
	for _, s := range plan.Steps {
		fmt.Fprintf(w, "    %s\n", s.Revision)
	}
}

func printResults(w io.Writer, results []*schemachain.MigrationResult, err error) error {
	var partialErr *schemachain.PartialError
	if errors.As(err, &partialErr) {
		results = append(slices.Clone(partialErr.Applied), partialErr.Failed)
	}
	for _, r := range results {
		fmt.Fprintln(w, r)
	}
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(w, "no steps to run")
	}
	return nil
}

// render prints the statements that move a database from one revision to another.
func render(w io.Writer, dialect database.Dialect, from, to string) error {
	chain, err := migrations.Chain()
	if err != nil {
		return err
	}
	plan, err := chain.Plan(to, from)
	if err != nil {
		return err
	}
	for _, s := range plan.Steps {
		fmt.Fprintf(w, "-- %s %s\n", plan.Direction, s.Revision)
		ops := s.Up
		if plan.Direction == schemachain.DirectionDown {
			ops = s.Down
		}
		for _, op := range ops {
			stmts, err := database.RenderStatements(dialect, op)
			if err != nil {
				return fmt.Errorf("%s: %w", s.Revision, err)
			}
			for _, stmt := range stmts {
				fmt.Fprintf(w, "%s;\n", stmt)
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}

// validate checks the chain and renders every operation in both directions.
func validate(w io.Writer, dialect database.Dialect) error {
	chain, err := migrations.Chain()
	if err != nil {
		return err
	}
	for _, s := range chain.Steps() {
		for _, op := range append(append([]schema.Operation(nil), s.Up...), s.Down...) {
			if _, err := database.RenderStatements(dialect, op); err != nil {
				return fmt.Errorf("%s: %w", s.Revision, err)
			}
		}
	}
	fmt.Fprintf(w, "OK: %d steps, head %s, %s\n", chain.Len(), chain.Head().Revision, dialect)
	return nil
}
