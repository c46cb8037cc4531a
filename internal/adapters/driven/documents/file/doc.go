// Package file reads the document corpus from a JSON or YAML file and
// watches that file for content changes.
//
// File format:
//
//	{"documents": [{"title": "...", "category": "...", "source": "...", "content": "..."}]}
//
// The YAML form uses the same keys. Files ending in .yaml or .yml are read as
// YAML, everything else as JSON.
package file
