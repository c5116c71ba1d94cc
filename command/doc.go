// Package command exposes go-command compatible command handlers implementing
// the engine's write side: activity recording, streak transitions, reputation
// awards and decay, badge awards and leaderboard recomputation. Commands are
// wired by the service layer and invoked by event handlers and scheduled jobs.
package command
