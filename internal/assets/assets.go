// Package assets embeds tokf's built-in filter definitions into the
// binary so a fresh install has working filters with no setup step.
package assets

import (
	"embed"
	"io/fs"
	"path"

	"github.com/mpecan/tokf-sub002/internal/filterdef"
)

//go:embed stdlib
var stdlibFS embed.FS

// Stdlib is the AssetDir backing tokf's built-in filter table, mounted at
// filterdef.PriorityMax so any user-supplied filter with the same name
// shadows it.
var Stdlib filterdef.AssetDir = dirAsset{fsys: stdlibFS, root: "stdlib"}

type dirAsset struct {
	fsys fs.FS
	root string
}

// Find implements filterdef.AssetDir. glob is matched against the relative
// path beneath root using path.Match semantics per path segment via
// fs.Glob's "**"-unaware matcher, so a "**/*.toml" glob is handled here by
// walking the whole tree and filtering on extension instead of relying on
// fs.Glob's single-level "*" semantics.
func (d dirAsset) Find(glob string) ([]filterdef.AssetFile, error) {
	var out []filterdef.AssetFile
	err := fs.WalkDir(d.fsys, d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel := trimRoot(d.root, p)
		ok, err := matchGlob(glob, rel)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		data, err := fs.ReadFile(d.fsys, p)
		if err != nil {
			return err
		}
		out = append(out, filterdef.AssetFile{RelativePath: rel, Data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func trimRoot(root, p string) string {
	if root == "" {
		return p
	}
	prefix := root + "/"
	if len(p) > len(prefix) && p[:len(prefix)] == prefix {
		return p[len(prefix):]
	}
	return p
}

// matchGlob treats a leading "**/" as "match at any depth" and delegates
// the remainder to path.Match, which is all the loader's two glob shapes
// ("**/*.toml" and "<dir>_test/*.toml") need.
func matchGlob(glob, rel string) (bool, error) {
	if len(glob) >= 3 && glob[:3] == "**/" {
		suffix := glob[3:]
		base := path.Base(rel)
		return path.Match(suffix, base)
	}
	return path.Match(glob, rel)
}
