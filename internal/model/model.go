package model

// Package model contains domain models/data structures.
// Keep it free of persistence and transport concerns; no business logic here.
