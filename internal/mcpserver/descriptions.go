package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describePruneModule() string {
	return `Removes unreferenced top-level code from one JavaScript or TypeScript module that carries a "use client" directive and returns the pruned source.

USE WHEN:
- Checking what a client component compiles down to once server-only helpers are gone
- Verifying that an import is dropped from a client bundle
- Previewing the effect of export stubbing or call nulling on a module

INTERPRETING RESULTS:
- removed lists each deleted binding with its kind and declaration line
- live lists every top-level name that survived
- skipped = no_directive means the module was returned unchanged because it is not a client module
- A syntax, static_name, name_collision or inconsistent error means nothing was rewritten

METRICS RETURNED:
- path, directive, changed, removed, live, stubbed, nulled_calls
- bytes_before, bytes_after
- output: the pruned module source`
}

func describeCheckPaths() string {
	return `Scans files or directories for client modules and reports which top-level bindings would be removed, without writing anything.

USE WHEN:
- Auditing a codebase for dead code inside client components
- Estimating bundle savings before enabling pruning in a build
- Finding modules that fail to parse or use computed exports

INTERPRETING RESULTS:
- summary.removed_bindings counts bindings that pruning would delete
- mean_reduction and stddev_reduction describe per-module byte savings (0.0-1.0)
- failures lists modules left untouched, with a code per failure
- Modules without a directive are counted as skipped

METRICS RETURNED:
- summary: modules, changed, skipped, failed, removed_bindings, byte totals, reduction statistics
- modules: per-module results
- failures: path, code, error`
}
