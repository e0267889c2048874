package model

import "strconv"

// Scope is the derived (category, subcategory) namespace within which document
// display order is defined. It is never persisted; every document belongs to
// exactly one scope at a time.
type Scope struct {
	CategoryID    int64
	SubcategoryID *int64
}

// Key returns a stable string form of the scope, usable as a lock key.
func (s Scope) Key() string {
	k := strconv.FormatInt(s.CategoryID, 10)
	if s.SubcategoryID != nil {
		k += "/" + strconv.FormatInt(*s.SubcategoryID, 10)
	}
	return k
}
