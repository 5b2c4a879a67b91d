//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Catalog groups targets for the SQLite publication catalog.
type Catalog mg.Namespace

// Rebuild repopulates the catalog from the Markdown collection.
func (Catalog) Rebuild() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "catalog", "rebuild")
}

// Export writes the collection as CSL-YAML to publications.yaml.
func (Catalog) Export() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "catalog", "export", "--output", "publications.yaml")
}

// Runs lists the most recent sync runs.
func (Catalog) Runs() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "catalog", "runs")
}
