// Package promstat turns a Prometheus text exposition into a stat sample,
// for monitored processes that expose standard process metrics instead of
// printing a procmon stat block. A resident-memory point sample stands in
// for peak RSS; CI captures are taken at the end of the run, where the two
// are closest.
package promstat
