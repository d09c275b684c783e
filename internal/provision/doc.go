// Package provision builds and executes the installer's step plan.
//
// A Plan is an ordered list of steps derived from the configuration. The
// Executor runs them strictly in sequence: the first failing step aborts
// the run and every later step is reported as skipped. There are no
// retries and no rollback; a failed run leaves whatever the completed steps
// produced on disk.
//
// Verify inspects an already-provisioned dependency directory and reports
// whether it has the expected shape.
package provision
