// Package query hosts the read side of the engine: leaderboard pages and
// positions, reputation with tier and trend, streak status and badge
// listings. Every query implements gocommand.Querier and reports lookup and
// validation failures as go-errors values.
package query
