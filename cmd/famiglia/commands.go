package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"famiglia/internal/core"
	"famiglia/pkg/domain"
)

var errStepsFailed = errors.New("scenario steps failed")

func newRunCmd(opts *rootOptions) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Build an organization from a scenario and replay its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := loadScenario(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, cmd.ErrOrStderr(), strict, func(a *app) error {
				failed, err := replay(cmd.Context(), a.svc, sc, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				if failed > 0 && strict {
					return fmt.Errorf("%w: %d", errStepsFailed, failed)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "block integrity violations and fail on any failed step")
	return cmd
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var archiveKey string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored organization tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, cmd.ErrOrStderr(), false, func(a *app) error {
				var (
					snap domain.Snapshot
					err  error
				)
				if archiveKey != "" {
					snap, err = a.svc.LoadArchive(cmd.Context(), archiveKey)
				} else {
					snap, err = a.svc.Snapshot(cmd.Context())
				}
				if err != nil {
					return err
				}
				return printTree(cmd.OutOrStdout(), snap)
			})
		},
	}
	cmd.Flags().StringVar(&archiveKey, "archive", "", "print an exported snapshot instead of the live store")
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the current snapshot to the archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, cmd.ErrOrStderr(), false, func(a *app) error {
				info, err := a.svc.ExportSnapshot(cmd.Context(), key)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %s (%d bytes)\n", info.Key, info.Size)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "archive key (default snapshots/<uuid>.json)")
	return cmd
}

// replay founds the organization, recruits the scenario members and runs each
// step, printing one line per step. It returns the number of failed steps.
func replay(ctx context.Context, svc *core.Service, sc scenario, out io.Writer) (int, error) {
	if _, _, err := svc.Found(ctx, sc.Godfather.member()); err != nil {
		return 0, fmt.Errorf("found: %w", err)
	}
	for _, m := range sc.Members {
		if _, _, err := svc.AddMember(ctx, m.member()); err != nil {
			return 0, fmt.Errorf("recruit %d: %w", m.ID, err)
		}
	}

	failed := 0
	for _, st := range sc.Steps {
		line, res, err := runStep(ctx, svc, st)
		switch {
		case errors.Is(err, domain.ErrNoSuccessorAvailable):
			line += ": gap (no successor)"
			failed++
		case err != nil:
			line += ": error: " + err.Error()
			failed++
		}
		if _, werr := fmt.Fprintln(out, line); werr != nil {
			return failed, werr
		}
		for _, v := range res.Violations {
			if v.Severity == domain.SeverityLog {
				continue
			}
			if _, werr := fmt.Fprintf(out, "  %s %s: %s\n", v.Severity, v.Rule, v.Message); werr != nil {
				return failed, werr
			}
		}
	}
	return failed, nil
}

func runStep(ctx context.Context, svc *core.Service, st step) (string, domain.Result, error) {
	switch {
	case st.Imprison != nil:
		res, err := svc.SendToPrison(ctx, domain.MemberID(*st.Imprison))
		return okLine(fmt.Sprintf("imprison %d", *st.Imprison), err), res, err
	case st.Release != nil:
		res, err := svc.ReleaseFromPrison(ctx, domain.MemberID(*st.Release))
		return okLine(fmt.Sprintf("release %d", *st.Release), err), res, err
	case st.BigBosses != nil:
		label := fmt.Sprintf("big_bosses >%d", *st.BigBosses)
		bosses, err := svc.FindBigBosses(ctx, *st.BigBosses)
		if err != nil {
			return label, domain.Result{}, err
		}
		return label + ": " + formatIDs(bosses), domain.Result{}, nil
	case st.Compare != nil:
		a, b := domain.MemberID(st.Compare[0]), domain.MemberID(st.Compare[1])
		label := fmt.Sprintf("compare %d %d", a, b)
		higher, ok, err := svc.CompareMembers(ctx, a, b)
		if err != nil {
			return label, domain.Result{}, err
		}
		if !ok {
			return label + ": none", domain.Result{}, nil
		}
		return fmt.Sprintf("%s: %d", label, higher.ID), domain.Result{}, nil
	default:
		label := "export " + st.Export
		info, err := svc.ExportSnapshot(ctx, st.Export)
		if err != nil {
			return label, domain.Result{}, err
		}
		return fmt.Sprintf("%s: %d bytes", label, info.Size), domain.Result{}, nil
	}
}

func okLine(label string, err error) string {
	if err != nil {
		return label
	}
	return label + ": ok"
}

func formatIDs(members []domain.Member) string {
	parts := make([]string, 0, len(members))
	for _, m := range members {
		parts = append(parts, fmt.Sprint(m.ID))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// printTree writes the godfather's tree following boss links, then the prison.
func printTree(out io.Writer, snap domain.Snapshot) error {
	if snap.Empty() {
		_, err := fmt.Fprintln(out, "no organization")
		return err
	}
	nodes := make(map[domain.MemberID]domain.Member, len(snap.Nodes))
	for _, n := range snap.Nodes {
		nodes[n.ID] = n
	}
	prison := make(map[domain.MemberID]bool, len(snap.Prison))
	for _, id := range snap.Prison {
		prison[id] = true
	}

	var b strings.Builder
	seen := make(map[domain.MemberID]bool, len(nodes))
	var walk func(id domain.MemberID, depth int)
	walk = func(id domain.MemberID, depth int) {
		if seen[id] {
			return
		}
		seen[id] = true
		n := nodes[id]
		b.WriteString(strings.Repeat("  ", depth))
		fmt.Fprintf(&b, "%d (age %d)", n.ID, n.Age)
		if prison[id] {
			b.WriteString(" [prison]")
		}
		b.WriteByte('\n')
		for _, sub := range n.Subordinates {
			if boss, ok := nodes[sub].BossID(); ok && boss == id {
				walk(sub, depth+1)
			}
		}
	}
	walk(snap.Godfather, 0)

	var detached []int
	for _, id := range snap.Members {
		if !seen[id] {
			detached = append(detached, int(id))
		}
	}
	if len(detached) > 0 {
		sort.Ints(detached)
		fmt.Fprintf(&b, "detached: %v\n", detached)
	}
	if len(snap.Prison) > 0 {
		fmt.Fprintf(&b, "prison: %v\n", snap.Prison)
	}
	_, err := io.WriteString(out, b.String())
	return err
}
