//go:build mage

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Download acquires the PDFs of the last saved search into downloads/.
func Download() error {
	mg.Deps(Init, Build)
	saved := filepath.Join("data", "last-search.yaml")
	if _, err := os.Stat(saved); err != nil {
		return mg.Fatalf(1, "no saved search at %s; run mage search first", saved)
	}
	return sh.RunV(filepath.Join(binDir, binName), "acquire", "--from", saved)
}
