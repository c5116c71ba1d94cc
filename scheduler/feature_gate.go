package scheduler

import (
	"context"

	featuregate "github.com/goliatone/go-featuregate/gate"
)

const jobFeaturePrefix = "gamification.jobs."

// JobFeatureKey is the gate key that toggles a job.
func JobFeatureKey(name string) string {
	return jobFeaturePrefix + name
}

func jobEnabled(ctx context.Context, gate featuregate.FeatureGate, name string) (bool, error) {
	if gate == nil {
		return true, nil
	}
	return gate.Enabled(ctx, JobFeatureKey(name), featuregate.WithScopeSet(featuregate.ScopeSet{System: true}))
}
