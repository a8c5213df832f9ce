// CLI subtree/selection masks (-I/-X/-P/-g) are glob patterns over Path
// strings; gobwas/glob serves this shape of matching.
package dpath

import "github.com/gobwas/glob"

// Glob reports whether p's string form matches the given shell glob
// pattern, with "/" as the path separator so that "*" does not cross
// directory boundaries (mirroring gobwas/glob's WithSeparators option).
func (p Path) Glob(pattern string) (bool, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return false, err
	}
	return g.Match(p.String()), nil
}
