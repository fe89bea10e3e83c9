package holder

import (
	"context"
	"strconv"

	"github.com/gravitational/vcagent/crypto"
	"github.com/gravitational/vcagent/lib/errcode"
	"github.com/gravitational/vcagent/model"
	"github.com/gravitational/vcagent/record"
)

// SearchHandle addresses an outstanding credentials-for-proof-request
// search, scoped to this Engine instance (spec §4.4.6 / §5: searches are
// owned by a single caller and must be closed before the wallet closes).
type SearchHandle uint32

type credentialSearch struct {
	items []record.Item
	pos   int
}

// CredentialsForProofRequest is the result shape for operation 5.
type CredentialsForProofRequest struct {
	Attrs      map[string][]CredentialMatch
	Predicates map[string][]CredentialMatch
}

// CredentialMatch is one candidate credential for a proof-request ref.
type CredentialMatch struct {
	CredID string
	Values map[string]model.AttrValue
}

// ProofRequestExtraQuery lets callers add restrictions beyond the
// proof-request's own, keyed by ref.
type ProofRequestExtraQuery map[string]record.Query

// GetCredentialsForProofRequest implements operation 5.
func (e *Engine) GetCredentialsForProofRequest(ctx context.Context, req crypto.ProofRequest, extra ProofRequestExtraQuery) (CredentialsForProofRequest, error) {
	result := CredentialsForProofRequest{Attrs: map[string][]CredentialMatch{}, Predicates: map[string][]CredentialMatch{}}

	for ref, info := range req.RequestedAttributes {
		matches, err := e.searchOne(ctx, ref, extra, nil)
		if err != nil {
			return result, err
		}
		_ = info
		result.Attrs[ref] = matches
	}
	for ref, info := range req.RequestedPredicates {
		pred := info
		matches, err := e.searchOne(ctx, ref, extra, &pred)
		if err != nil {
			return result, err
		}
		result.Predicates[ref] = matches
	}
	return result, nil
}

func (e *Engine) searchOne(ctx context.Context, ref string, extra ProofRequestExtraQuery, pred *crypto.PredicateInfo) ([]CredentialMatch, error) {
	q := record.All
	if extraQ, ok := extra[ref]; ok {
		q = extraQ
	}
	items, err := e.store.Search(ctx, model.TypeCredential, q)
	if err != nil {
		return nil, errcode.Ledger(err)
	}
	var out []CredentialMatch
	for _, item := range items {
		var cred model.Credential
		if err := item.Unwrap(&cred); err != nil {
			continue
		}
		if pred != nil {
			v, ok := cred.Values[pred.Name]
			if !ok {
				continue
			}
			ok, err := attributeSatisfiesPredicate(v.Raw, pred.PType, pred.PValue)
			if err != nil || !ok {
				continue
			}
		}
		out = append(out, CredentialMatch{CredID: cred.ID, Values: cred.Values})
	}
	return out, nil
}

func attributeSatisfiesPredicate(raw, ptype string, pvalue int32) (bool, error) {
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return false, errcode.InvalidStructure("predicate attribute %q is not numeric: %v", raw, err)
	}
	n := int32(parsed)
	switch ptype {
	case ">=":
		return n >= pvalue, nil
	case ">":
		return n > pvalue, nil
	case "<=":
		return n <= pvalue, nil
	case "<":
		return n < pvalue, nil
	default:
		return false, errcode.InvalidStructure("unknown predicate type %q", ptype)
	}
}

// SearchCredentialsForProofRequest implements the paginated search form
// (operation 6): opens a cursor and returns its handle.
func (e *Engine) SearchCredentialsForProofRequest(ctx context.Context, req crypto.ProofRequest, extra ProofRequestExtraQuery) (SearchHandle, error) {
	all, err := e.GetCredentialsForProofRequest(ctx, req, extra)
	if err != nil {
		return 0, err
	}
	var flat []record.Item
	seen := map[string]bool{}
	for _, matches := range all.Attrs {
		for _, m := range matches {
			if !seen[m.CredID] {
				seen[m.CredID] = true
				flat = append(flat, record.Item{ID: m.CredID})
			}
		}
	}
	for _, matches := range all.Predicates {
		for _, m := range matches {
			if !seen[m.CredID] {
				seen[m.CredID] = true
				flat = append(flat, record.Item{ID: m.CredID})
			}
		}
	}

	e.searchMu.Lock()
	defer e.searchMu.Unlock()
	e.nextSearch++
	h := e.nextSearch
	e.searches[h] = &credentialSearch{items: flat}
	return h, nil
}

// FetchCredentialForProofRequest advances a search by one and returns the
// next matching credential id, or ok=false when exhausted.
func (e *Engine) FetchCredentialForProofRequest(h SearchHandle) (credID string, ok bool, err error) {
	e.searchMu.Lock()
	defer e.searchMu.Unlock()
	s, found := e.searches[h]
	if !found {
		return "", false, errcode.NotFound("search handle %d not found", h)
	}
	if s.pos >= len(s.items) {
		return "", false, nil
	}
	item := s.items[s.pos]
	s.pos++
	return item.ID, true, nil
}

// CloseCredentialsSearchForProofReq implements the close half of
// operation 6.
func (e *Engine) CloseCredentialsSearchForProofReq(h SearchHandle) error {
	e.searchMu.Lock()
	defer e.searchMu.Unlock()
	if _, ok := e.searches[h]; !ok {
		return errcode.NotFound("search handle %d not found", h)
	}
	delete(e.searches, h)
	return nil
}
