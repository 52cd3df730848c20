package domain

// Record is one document from a family collection, carried with enough
// addressing information (collection + id) to delete it, archive it, or
// re-insert it verbatim during a restore.
type Record struct {
	ID         string         `json:"id"`
	Family     Family         `json:"family"`
	Collection string         `json:"collection"`
	Data       map[string]any `json:"data"`
}

// Ref returns the minimal address of the record.
func (r Record) Ref() RecordRef {
	return RecordRef{ID: r.ID, Collection: r.Collection}
}

// RecordRef addresses a single document by collection and id. Rollback
// manifests are lists of RecordRefs.
type RecordRef struct {
	ID         string `json:"id"`
	Collection string `json:"collection"`
}
