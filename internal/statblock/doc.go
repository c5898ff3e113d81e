// Package statblock extracts the token-delimited statistics block from
// procmon collector output and parses it into a metric → value mapping.
//
// The block sits between a "# STAT_BEGIN" line and a "# STAT END" line and
// contains one mapping literal of quoted string keys to numbers. Extract
// consumes a complete stdout capture; ExtractLines streams line-oriented
// readers. Parsing is a strict grammar, not expression evaluation —
// arbitrary code in the block is rejected, not run.
package statblock
