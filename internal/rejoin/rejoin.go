// Package rejoin stitches flat domain records to their referenced records in
// memory. It is the manual-join half of the retrieval path: when the record
// store could not embed relations, the coordinator fetches reference sets
// separately and this package resolves the foreign keys.
package rejoin

import "github.com/ecotraq/be-waste-dashboard/internal/record"

// KeySpec declares one foreign key on a screen's primary table.
type KeySpec struct {
	// Field is the raw foreign-key column, e.g. "responsible_id".
	Field string
	// As is the field the resolved projection is written under, e.g.
	// "responsible". Embedded results from the declarative-join tier arrive
	// under the same name, which is what makes normalization tier-agnostic.
	As string
	// RefTable is the referenced table the reference set is built from.
	RefTable string
	// Project lists the reference-set columns kept in the projection.
	Project []string
}

// RefSet maps a referenced id to a minimal projection of the related record.
type RefSet map[string]record.Row

// BuildRefSet indexes fetched reference rows by id, keeping only the
// projected columns. Rows without a string id are skipped.
func BuildRefSet(rows []record.Row, project []string) RefSet {
	set := make(RefSet, len(rows))
	for _, row := range rows {
		id, ok := row.String("id")
		if !ok || id == "" {
			continue
		}
		set[id] = projectRow(row, project)
	}
	return set
}

// CollectIDs returns the distinct unresolved foreign-key ids per reference
// table. Rows whose key is already resolved (or marked unavailable) do not
// contribute.
func CollectIDs(rows []record.Row, keys []KeySpec) map[string][]string {
	seen := make(map[string]map[string]bool)
	out := make(map[string][]string)
	for _, key := range keys {
		if seen[key.RefTable] == nil {
			seen[key.RefTable] = make(map[string]bool)
		}
		for _, row := range rows {
			if resolved(row, key) {
				continue
			}
			id, ok := row.String(key.Field)
			if !ok || id == "" || seen[key.RefTable][id] {
				continue
			}
			seen[key.RefTable][id] = true
			out[key.RefTable] = append(out[key.RefTable], id)
		}
	}
	return out
}

// Rejoin produces normalized view records: every declared foreign key is
// resolved against its reference set, replaced by the projection when found
// and by the explicit unavailable marker when not. A nil or absent key field
// means the relation does not apply and is left untouched. Already-resolved
// fields are left alone, which makes the operation idempotent and lets it
// run safely over declarative-join output with partially embedded relations.
// The input rows are not mutated.
func Rejoin(rows []record.Row, refs map[string]RefSet, keys []KeySpec) []record.Row {
	out := make([]record.Row, len(rows))
	for i, row := range rows {
		next := row.Clone()
		for _, key := range keys {
			resolveKey(next, refs[key.RefTable], key)
		}
		out[i] = next
	}
	return out
}

func resolveKey(row record.Row, refs RefSet, key KeySpec) {
	if resolved(row, key) {
		return
	}

	id, ok := row.String(key.Field)
	if !ok || id == "" {
		// Relation not applicable to this row. An embedded nil left by the
		// declarative-join tier stays nil only in this case; see below for
		// the broken-relation path.
		return
	}

	if ref, found := refs[id]; found {
		row[key.As] = ref.Clone()
		return
	}
	// Referenced but unresolvable — distinct from "no relation".
	row[key.As] = record.Unavailable{}
}

// resolved reports whether the row already carries a usable value under the
// key's embed field: a projection object or the unavailable marker.
func resolved(row record.Row, key KeySpec) bool {
	v, ok := row[key.As]
	if !ok || v == nil {
		return false
	}
	if record.IsUnavailable(v) {
		return true
	}
	switch v.(type) {
	case record.Row, map[string]any:
		return true
	}
	return false
}

func projectRow(row record.Row, project []string) record.Row {
	if len(project) == 0 {
		return row.Clone()
	}
	out := make(record.Row, len(project))
	for _, col := range project {
		if v, ok := row[col]; ok {
			out[col] = v
		}
	}
	return out
}
