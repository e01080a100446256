//go:build mage

package main

import (
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Search runs a patent search across all sources and saves it to
// data/last-search.yaml. Keywords are separated by commas.
func Search(keywords string) error {
	mg.Deps(Init, Build)
	args := []string{"search", "--save", filepath.Join("data", "last-search.yaml")}
	for _, kw := range strings.Split(keywords, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			args = append(args, kw)
		}
	}
	return sh.RunV(filepath.Join(binDir, binName), args...)
}
