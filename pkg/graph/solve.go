package graph

import (
	"context"
	"time"

	"github.com/matzehuels/treeflow/pkg/datatree"
	"github.com/matzehuels/treeflow/pkg/errors"
	"github.com/matzehuels/treeflow/pkg/observability"
)

// Solve pass modes, as reported in [Report.Mode] and to observability hooks.
const (
	ModeFull  = "full"
	ModeQuick = "quick"
)

// Report summarizes one solve pass.
type Report struct {
	Mode     string
	Order    []ComponentID         // topological order used for the pass
	Solved   []ComponentID         // components whose LocalSolve succeeded
	Failed   []ComponentID         // enabled components left Unsolved by this pass
	Skipped  []ComponentID         // disabled, or already Solved in a quick pass
	Errors   map[ComponentID]error // soft failures by component
	Duration time.Duration
}

// OK reports whether every enabled component ended the pass Solved.
func (r *Report) OK() bool { return r != nil && len(r.Failed) == 0 }

// LocalSolve runs one component's solve regardless of its current Solved
// flag and publishes the results to its outputs and every linked input.
//
// It reports true when the walk completed cleanly. If any input is empty,
// every output is cleared and LocalSolve reports false with a nil error.
// A failing PreSolve or SolveFunc, or a SolveFunc returning the wrong
// number of values, leaves the previous outputs in place and returns a
// SOLVE_FAILED error. An output whose list grafting meets an inconsistent
// shape is published empty and reported as INCONSISTENT_SHAPE.
func (g *Graph) LocalSolve(id ComponentID) (bool, error) {
	c, err := g.component(id)
	if err != nil {
		return false, err
	}
	return g.localSolve(context.Background(), c)
}

func (g *Graph) localSolve(ctx context.Context, c *Component) (ok bool, err error) {
	start := time.Now()
	defer func() {
		observability.Solve().OnComponentSolve(ctx, c.def.Type, ok, time.Since(start), err)
	}()

	c.solved = false

	if c.hasEmptyInput() {
		inv := invalidation{}
		for i := range c.outputs {
			inv.merge(g.publish(SlotRef{c.id, i}, datatree.New()))
		}
		g.apply(inv)
		g.logger.Debug("input empty, outputs cleared", "component", c)
		return false, nil
	}

	if c.def.PreSolve != nil {
		if err := c.def.PreSolve(); err != nil {
			return false, errors.Wrap(errors.ErrCodeSolveFailed, err, "pre-solve %s", c)
		}
	}

	results, err := g.walk(c)
	if err != nil {
		return false, err
	}

	var shapeErr error
	for i, def := range c.def.Outputs {
		if def.Access != datatree.AccessList {
			continue
		}
		grafted, err := results[i].OneToManyGraft()
		if err != nil {
			shapeErr = errors.Wrap(errors.ErrCodeInconsistentShape, err, "output %d of %s", i, c)
			grafted = datatree.New()
		}
		results[i] = grafted
	}

	inv := invalidation{}
	for i, tree := range results {
		inv.merge(g.publish(SlotRef{c.id, i}, tree))
	}
	delete(inv, c.id)
	g.apply(inv)

	if shapeErr != nil {
		return false, shapeErr
	}
	c.solved = true
	return true, nil
}

// walk zips the inputs branch by branch with longest-list matching and
// collects SolveFunc results into fresh output trees.
func (g *Graph) walk(c *Component) ([]*datatree.Tree, error) {
	results := make([]*datatree.Tree, len(c.outputs))
	for i := range results {
		results[i] = datatree.New()
	}

	if len(c.inputs) == 0 {
		if err := g.call(c, nil, datatree.P(0), results); err != nil {
			return nil, err
		}
		return results, nil
	}

	inputs := make([]*datatree.Tree, len(c.inputs))
	driver := 0
	for i, in := range c.inputs {
		inputs[i] = in.tree.Clone()
		inputs[i].Begin()
		if inputs[i].NumBranches() > inputs[driver].NumBranches() {
			driver = i
		}
	}

	args := make([]datatree.Value, len(inputs))
	for range inputs[driver].NumBranches() {
		path := inputs[driver].CurrentPath()

		maxArgs := 0
		for i, t := range inputs {
			maxArgs = max(maxArgs, t.NumItemsAtBranch(t.CurrentPath(), c.def.Inputs[i].Access))
		}

		for range maxArgs {
			for i, t := range inputs {
				args[i] = t.NextItem(c.def.Inputs[i].Access)
			}
			if err := g.call(c, args, path, results); err != nil {
				return nil, err
			}
		}

		for _, t := range inputs {
			t.NextBranch()
		}
	}
	return results, nil
}

func (g *Graph) call(c *Component, args []datatree.Value, path datatree.Path, results []*datatree.Tree) error {
	out, err := c.def.Solve(args)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSolveFailed, err, "solve %s at %s", c, path)
	}
	if len(out) != len(results) {
		return errors.New(errors.ErrCodeSolveFailed, "solve %s returned %d values for %d outputs", c, len(out), len(results))
	}
	for i, v := range out {
		results[i].Add(path, v)
	}
	return nil
}

// IsAcyclic reports whether the component graph has no cycle and returns
// the topological order used for solving. Fan-in from the same upstream
// component through several links counts once. On false the order is
// incomplete and must not be used.
func (g *Graph) IsAcyclic() (bool, []ComponentID) {
	ids, ok := g.Dependencies().TopoSort()
	order := make([]ComponentID, len(ids))
	for i, id := range ids {
		order[i] = ComponentID(id)
	}
	return ok, order
}

// TopoSolve runs LocalSolve on every enabled component in topological
// order. If the graph is cyclic it returns a CYCLE_DETECTED error before
// any component runs.
func (g *Graph) TopoSolve(ctx context.Context) (*Report, error) {
	return g.solvePass(ctx, ModeFull)
}

// QuickTopoSolve is TopoSolve restricted to components that are not
// already Solved. It is the entry point after a local edit: HardSet,
// linking and upstream re-solves revoke Solved on everything downstream of
// the change, so only that part of the graph runs again.
func (g *Graph) QuickTopoSolve(ctx context.Context) (*Report, error) {
	return g.solvePass(ctx, ModeQuick)
}

func (g *Graph) solvePass(ctx context.Context, mode string) (*Report, error) {
	start := time.Now()
	report := &Report{Mode: mode, Errors: map[ComponentID]error{}}
	hooks := observability.Solve()

	ok, order := g.IsAcyclic()
	if !ok {
		members := g.Dependencies().CycleMembers()
		err := errors.New(errors.ErrCodeCycleDetected, "cycle detected among components %v", members)
		g.logger.Warn("solve aborted", "mode", mode, "cyclic", members)
		hooks.OnPassComplete(ctx, mode, 0, 0, time.Since(start), err)
		return report, err
	}
	report.Order = order

	pending := 0
	for _, id := range order {
		if c := g.comps[id]; c.enabled && (mode == ModeFull || !c.solved) {
			pending++
		}
	}
	hooks.OnPassStart(ctx, mode, pending)
	g.logger.Debug("solve pass started", "mode", mode, "components", len(order), "pending", pending)

	for _, id := range order {
		c := g.comps[id]
		if !c.enabled || (mode == ModeQuick && c.solved) {
			report.Skipped = append(report.Skipped, id)
			continue
		}
		solved, err := g.localSolve(ctx, c)
		if err != nil {
			report.Errors[id] = err
			g.logger.Warn("component failed", "component", c, "err", err)
		}
		if solved {
			report.Solved = append(report.Solved, id)
		}
	}

	for _, id := range order {
		if c := g.comps[id]; c.enabled && !c.solved {
			report.Failed = append(report.Failed, id)
		}
	}

	report.Duration = time.Since(start)
	hooks.OnPassComplete(ctx, mode, len(report.Solved), len(report.Failed), report.Duration, nil)
	g.logger.Debug("solve pass finished", "mode", mode, "solved", len(report.Solved),
		"failed", len(report.Failed), "skipped", len(report.Skipped), "duration", report.Duration)
	return report, nil
}
