// Package baseline derives performance-regression baselines from
// process-monitor statistics and tests new measurements against them.
//
// A Tracker is configured once with a multiplier mapping (metric key →
// allowed ratio), an algorithm (max, or mean+2·stddev), and a rebase
// threshold. Callers feed it reference-run samples via Accumulate, freeze
// per-metric baseline values with Finalize, then call Test for each new
// measurement. Test reports violations as human-readable messages plus a
// count of near-misses that suggest rebaselining.
//
// The package performs no I/O and keeps no clock; raw collector output is
// parsed by internal/statblock and handed in as a Sample.
package baseline
