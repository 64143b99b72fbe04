package main

import (
	"path/filepath"

	"picshield/pkg/raster"
)

// outputPath places protected_<name> next to the source.
func outputPath(src, format string) string {
	dir, base := filepath.Split(src)
	return filepath.Join(dir, raster.FileName("protected_"+base, format))
}
