package catalog

import "errors"

// Sentinel errors for catalog lookups.
var (
	ErrInvalidCatalog   = errors.New("invalid catalog")
	ErrCareerNotFound   = errors.New("career not found")
	ErrCategoryNotFound = errors.New("skill category not found")
)
