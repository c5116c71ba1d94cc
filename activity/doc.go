// Package activity provides the Bun-backed activity store. Records are
// append-only; the repository exposes the counts and grouped aggregates that
// streak, badge and leaderboard flows read. Host applications can swap the
// repository for any implementation of types.ActivityRepository.
package activity
