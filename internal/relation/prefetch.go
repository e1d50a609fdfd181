package relation

// PrefetchPlan describes one deferred child fetch: the decoding key of the
// prefetched rows and the pivot-first association steps reaching them from
// the parent relation. Feeding the steps to NewAssociation and
// DestinationRelation yields the secondary query for a set of parent rows.
type PrefetchPlan struct {
	Key   string
	Steps []Step
}

// PrefetchPlans lists the relation's deferred fetches in declaration order.
//
// AllNotPrefetched children are pure bridges: they contribute a step to the
// chains of the prefetches nested inside them, nothing else. Prefetches
// hanging under a joined child hop through it the same way, with the join
// key prefixed onto theirs.
func (r Relation) PrefetchPlans() []PrefetchPlan {
	var plans []PrefetchPlan
	for _, entry := range r.Children {
		child := entry.Child
		bridge := Step{
			Key:       FixedKey(entry.Key),
			Condition: child.Condition,
			Relation:  child.Relation,
		}
		switch child.Kind {
		case AllPrefetched:
			bridge.Cardinality = ToMany
			plans = append(plans, PrefetchPlan{Key: entry.Key, Steps: []Step{bridge}})

		case AllNotPrefetched:
			bridge.Cardinality = ToOne
			for _, inner := range child.Relation.PrefetchPlans() {
				steps := append([]Step{bridge}, inner.Steps...)
				plans = append(plans, PrefetchPlan{Key: inner.Key, Steps: steps})
			}

		default:
			bridge.Cardinality = ToOne
			for _, inner := range child.Relation.PrefetchPlans() {
				steps := append([]Step{bridge}, inner.Steps...)
				plans = append(plans, PrefetchPlan{Key: entry.Key + "." + inner.Key, Steps: steps})
			}
		}
	}
	return plans
}
