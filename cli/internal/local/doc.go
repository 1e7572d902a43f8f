// Package local runs leak-off calculations on the workstation, without a
// server. Requests and valve geometry come from JSON or YAML files; results
// are written atomically via renameio so watchers never see half a file.
// Run fans a directory of requests out over a bounded errgroup.
package local
