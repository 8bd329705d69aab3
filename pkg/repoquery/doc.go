// Package repoquery exposes go-repository-bun reads as cacheable queries.
//
// Lookups are tagged with the resource name and "<resource>:<id>", lists with
// the resource name and "<resource>:list", so writes can evict exactly what
// they affect:
//
//	bowlers := repoquery.Resource("bowlers")
//	byID := querycache.NewOutcome(repoquery.NewByIDHandler[Bowler](repo), store)
//	out, err := byID.Handle(ctx, bowlers.ByID("b-1"))
//
//	inv := repoquery.NewInvalidation[Bowler]("bowlers", querycache.NewInvalidator(store))
//	_ = inv.Changed(ctx, updated)
//
// A missing record is returned as a Failure outcome and is therefore never
// cached.
package repoquery
