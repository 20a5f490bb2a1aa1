package reconcile

import (
	"sort"

	"relation-manager/core/utils"
)

// Pair couples an incoming update record with the persisted child it describes.
type Pair struct {
	Record Record
	Child  Child
}

// IdentifierOf returns the normalized identifier of a record.
// JSON numbers are rendered without exponent so 7 and "7" agree.
func IdentifierOf(rec Record, key string) string {
	return utils.ToString(rec[key])
}

// PartitionByIdentifierPresence splits records into new ones (empty identifier)
// and updates (everything else). Relative order is kept in both halves.
func PartitionByIdentifierPresence(records []Record, key string) (newRecords, updateRecords []Record) {
	for _, rec := range records {
		if IdentifierOf(rec, key) == "" {
			newRecords = append(newRecords, rec)
		} else {
			updateRecords = append(updateRecords, rec)
		}
	}
	return newRecords, updateRecords
}

// MatchSorted sorts both sides by identifier with the same string comparison
// and pairs them positionally. Callers must have queried persisted children with
// exactly the identifiers of updateRecords: a length mismatch, or a pair whose
// identifiers differ, is a ContractViolation.
func MatchSorted(updateRecords []Record, persisted []Child, key string) ([]Pair, error) {
	if len(updateRecords) != len(persisted) {
		return nil, violation("match", "%d update records but %d persisted children", len(updateRecords), len(persisted))
	}

	records := make([]Record, len(updateRecords))
	copy(records, updateRecords)
	sort.SliceStable(records, func(i, j int) bool {
		return IdentifierOf(records[i], key) < IdentifierOf(records[j], key)
	})

	children := make([]Child, len(persisted))
	copy(children, persisted)
	sort.SliceStable(children, func(i, j int) bool {
		return children[i].Identifier() < children[j].Identifier()
	})

	pairs := make([]Pair, len(records))
	for i := range records {
		recID, childID := IdentifierOf(records[i], key), children[i].Identifier()
		if recID != childID {
			return nil, violation("match", "record %q paired with persisted child %q", recID, childID)
		}
		pairs[i] = Pair{Record: records[i], Child: children[i]}
	}
	return pairs, nil
}

// ComputeMissing returns the persisted children whose identifier appears in
// none of the incoming records.
func ComputeMissing(persisted []Child, incoming []Record, key string) []Child {
	present := make(map[string]struct{}, len(incoming))
	for _, rec := range incoming {
		if id := IdentifierOf(rec, key); id != "" {
			present[id] = struct{}{}
		}
	}

	var missing []Child
	for _, child := range persisted {
		if _, ok := present[child.Identifier()]; !ok {
			missing = append(missing, child)
		}
	}
	return missing
}

// Identifiers returns the non-empty identifiers of records, deduplicated, in input order.
func Identifiers(records []Record, key string) []string {
	seen := make(map[string]struct{}, len(records))
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		id := IdentifierOf(rec, key)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// ChildIdentifiers returns the identifiers of children in order.
func ChildIdentifiers(children []Child) []string {
	ids := make([]string, len(children))
	for i, c := range children {
		ids[i] = c.Identifier()
	}
	return ids
}

func withoutIdentifier(rec Record, key string) Record {
	attrs := make(Record, len(rec))
	for k, v := range rec {
		if k != key {
			attrs[k] = v
		}
	}
	return attrs
}

func duplicateIdentifiers(records []Record, key string) []string {
	seen := make(map[string]int, len(records))
	var dups []string
	for _, rec := range records {
		id := IdentifierOf(rec, key)
		if id == "" {
			continue
		}
		seen[id]++
		if seen[id] == 2 {
			dups = append(dups, id)
		}
	}
	return dups
}
