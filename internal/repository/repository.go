package repository

import "errors"

// Package repository contains data access layer abstractions.
// Implementations can live in subpackages (e.g., postgres) inside this directory.

// ErrScopeMembersChanged is returned by Reorder when the submitted id set no
// longer matches the scope's current membership (a concurrent upload, delete
// or reassign won the race). The caller must re-read the scope and retry.
var ErrScopeMembersChanged = errors.New("repository: scope membership changed")
