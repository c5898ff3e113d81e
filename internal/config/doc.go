// Package config loads and watches the gate configuration file
// (perfgate.yaml): the per-metric multiplier mapping, the baselining
// algorithm, the rebase threshold, the reference-run capture files, and
// the capture format.
//
// Load(path) reads the YAML file, applies defaults (max algorithm, 0.05
// rebase threshold, statblock format), then validates enums and value
// ranges. Watch(ctx, path, onChange, onError) uses fsnotify to detect file
// changes and calls onChange with the newly parsed Config, handling the
// rename→create pattern used by atomic-save editors.
package config
