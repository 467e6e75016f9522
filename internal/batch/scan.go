package batch

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/SaloEater/varefined/internal/pipeline"
)

// WorkItem is one input file plus its two derived output paths. Items
// are created during the scan, consumed exactly once by a worker, and
// never mutated afterwards.
type WorkItem struct {
	Input     string // absolute input path
	Rel       string // path relative to the scan root
	NormalOut string // mirrored loudness-normalised output
	HelmetOut string // m_-prefixed helmet variant
}

// eligible reports whether a filename is a processable input: the
// recognised extension, not already a helmet variant, not a partial
// output marker.
func eligible(name string) bool {
	if !strings.EqualFold(filepath.Ext(name), pipeline.OutputExt) {
		return false
	}
	if strings.HasPrefix(strings.ToLower(name), HelmetPrefix) {
		return false
	}
	if strings.HasPrefix(name, tmpPrefix) {
		return false
	}
	return true
}

// Plan walks the root and derives the work list in deterministic sorted
// order. Anything already inside the output directory is excluded so
// re-runs never consume their own outputs.
func Plan(cfg *Config) ([]WorkItem, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}
	outAbs, err := filepath.Abs(cfg.OutDir)
	if err != nil {
		return nil, err
	}

	var items []WorkItem
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Never descend into the output tree.
			if !cfg.InPlace && samePathOrBelow(path, outAbs) && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if !eligible(d.Name()) {
			return nil
		}
		if !cfg.InPlace && samePathOrBelow(path, outAbs) {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		items = append(items, makeItem(path, rel, outAbs, cfg.InPlace))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Rel < items[j].Rel })
	return items, nil
}

// makeItem derives the two output paths for one input. The normal
// output mirrors the relative path under the output root; the helmet
// output is its m_-prefixed sibling, or sits next to the source when
// running in place.
func makeItem(input, rel, outAbs string, inPlace bool) WorkItem {
	normal := filepath.Join(outAbs, rel)
	helmet := filepath.Join(filepath.Dir(normal), HelmetPrefix+filepath.Base(normal))
	if inPlace {
		helmet = filepath.Join(filepath.Dir(input), HelmetPrefix+filepath.Base(input))
	}
	return WorkItem{Input: input, Rel: rel, NormalOut: normal, HelmetOut: helmet}
}

// samePathOrBelow reports whether path equals base or lies inside it.
func samePathOrBelow(path, base string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && rel != "")
}
