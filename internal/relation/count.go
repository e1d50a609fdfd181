package relation

// NeedsTrivialCount reports whether counting the relation requires wrapping
// it in SELECT COUNT(*) FROM (...) rather than rewriting its selection to a
// COUNT expression. GROUP BY, LIMIT, and CTEs change what a row means, and
// so does any joined child that can filter or duplicate parent rows.
func (r Relation) NeedsTrivialCount() bool {
	if !r.GroupPromise.IsZero() || r.Limit != nil || len(r.CTEs) > 0 {
		return true
	}
	for _, entry := range r.Children {
		if entry.Child.Kind.ImpactsParentCount() {
			return true
		}
	}
	return false
}
