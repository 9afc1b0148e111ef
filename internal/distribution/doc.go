// Package distribution builds and publishes access-controlled views of the
// source graph.
//
// An Engine owns one Profile. Each Run stages a fresh scratch graph,
// lets the profile's collectors fill it with lineage-tagged resources,
// copies their details, filters what the audience may not see, reconciles
// the previously published target graph and finally copies scratch into
// target:
//
//	stage → collect → details → filter → reconcile → copy → dispose
//
// Every stage is logged, traced and timed. A failing stage aborts the run,
// but the scratch graph is still dropped. At most one run per engine is in
// flight; a concurrent Run returns ErrRunInProgress.
//
// Runs are detached from caller cancellation.
package distribution
