package record

// Query is a small boolean AST over a record's tag set, mirroring the WQL
// subset the original wallet search restricted proof-credential lookups to:
// $and/$or/$in/$eq restrictions over attribute-name tags.
type Query interface {
	eval(tags map[string]string) bool
}

// Eq matches records whose tag Key equals Value.
type Eq struct {
	Key   string
	Value string
}

func (q Eq) eval(tags map[string]string) bool { return tags[q.Key] == q.Value }

// In matches records whose tag Key is one of Values.
type In struct {
	Key    string
	Values []string
}

func (q In) eval(tags map[string]string) bool {
	v, ok := tags[q.Key]
	if !ok {
		return false
	}
	for _, want := range q.Values {
		if v == want {
			return true
		}
	}
	return false
}

// And matches records satisfying every sub-query.
type And []Query

func (q And) eval(tags map[string]string) bool {
	for _, sub := range q {
		if !sub.eval(tags) {
			return false
		}
	}
	return true
}

// Or matches records satisfying at least one sub-query.
type Or []Query

func (q Or) eval(tags map[string]string) bool {
	for _, sub := range q {
		if sub.eval(tags) {
			return true
		}
	}
	return false
}

// Not inverts a sub-query.
type Not struct{ Query Query }

func (q Not) eval(tags map[string]string) bool { return !q.Query.eval(tags) }

// All matches every record; used when a proof-request restriction is empty.
var All Query = allQuery{}

type allQuery struct{}

func (allQuery) eval(map[string]string) bool { return true }

// Match reports whether tags satisfies q. A nil q matches everything.
func Match(q Query, tags map[string]string) bool {
	if q == nil {
		return true
	}
	return q.eval(tags)
}
