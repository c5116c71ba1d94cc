// Package scheduler runs the engine's periodic jobs in the host process.
// Each job has a schedule, runs behind a single flight guard and can be
// switched off through a feature gate key.
package scheduler
