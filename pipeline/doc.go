// Package pipeline runs items through a chain of named stages.
//
// Every stage applies a per-item transform under one of several dispatch
// modes, settles completely, and is then reduced by an error-handling
// strategy before the next stage starts. A failing item never affects its
// siblings: its failure travels on as an outcome, normalized at each stage
// boundary, and is never handed to a later transform.
//
// # Modes
//
//   - Sequential: one item at a time, input order
//   - BoundedAsync: every item at once, input order
//   - WorkerPool(n): n workers, completion order
//   - Streaming(buffer): at most buffer in flight, completion order
//   - Compute(backend): one batch call to a ComputeBackend, input order
//
// Outcomes carry their input position in Index; outcome.SortByIndex restores
// input order after an unordered stage.
//
// # Strategies
//
// A stage is reduced by its Strategy field, else by the first strategy tag
// on its outcomes (see WithStrategy), else by the context's default. Names
// resolve through the context's strategy.Registry.
//
// # Usage
//
//	pc := pipeline.NewContext()
//	p := pipeline.FromSlice([]int{1, 2, 3, 4, 5})
//	doubled := pipeline.Then(p, pipeline.Async("double", func(_ context.Context, n int) (int, error) {
//	    return n * 2, nil
//	}))
//	squared := pipeline.Then(doubled, pipeline.Parallel("square", 4, square).WithStrategy("Ignore"))
//	out, err := pipeline.Collect(ctx, pc, squared)
//
// Lazy: nothing runs until Collect, Drain or ForEach pulls the final stage.
// An invalid stage (worker pool below 1, stream buffer below 1, missing
// compute backend) aborts the run with an INVALID_STAGE error.
package pipeline
