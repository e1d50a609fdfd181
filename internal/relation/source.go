package relation

import (
	"fmt"

	"github.com/roach88/relq/internal/sqlexpr"
)

// Source is the FROM-clause contributor of a relation: a table name plus an
// optional alias. Most relations start unaliased; generation creates an
// anonymous alias for every source it flattens into one statement.
type Source struct {
	Table string
	Alias *sqlexpr.TableAlias
}

// EnsureAlias returns the source's alias, creating and binding an anonymous
// one when none exists yet.
func (s *Source) EnsureAlias() (*sqlexpr.TableAlias, error) {
	if s.Alias == nil {
		s.Alias = sqlexpr.NewTableAlias("")
	}
	if err := s.Alias.BindTable(s.Table); err != nil {
		return nil, err
	}
	return s.Alias, nil
}

// Merged unifies two sources. Table names must match exactly; aliases merge
// by proxy-unification when both exist, or by adoption of whichever side
// has one.
func (s Source) Merged(other Source) (Source, error) {
	if s.Table != other.Table {
		return Source{}, &MergeError{
			Code:    ErrCodeTableMismatch,
			Message: fmt.Sprintf("cannot merge relations reading %q and %q", s.Table, other.Table),
		}
	}

	merged := Source{Table: s.Table}
	switch {
	case s.Alias != nil && other.Alias != nil:
		if err := s.Alias.BecomeProxyOf(other.Alias); err != nil {
			return Source{}, &MergeError{Code: ErrCodeAliasConflict, Message: err.Error()}
		}
		merged.Alias = other.Alias
	case s.Alias != nil:
		merged.Alias = s.Alias
	default:
		merged.Alias = other.Alias
	}
	return merged, nil
}
