// Package purl renders moldau's resolved packages as Package URLs, for
// diagnostics and `moldau which --purl`.
package purl

import (
	"strings"

	packageurl "github.com/package-url/packageurl-go"
)

// NPM builds a pkg:npm/... PURL for name@version, handling the
// "@scope/name" namespace split npm scoped packages use.
func NPM(name, version string) string {
	namespace, short := "", name
	if strings.HasPrefix(name, "@") {
		if i := strings.Index(name, "/"); i >= 0 {
			namespace, short = name[:i], name[i+1:]
		}
	}
	p := packageurl.NewPackageURL("npm", namespace, short, version, nil, "")
	return p.ToString()
}
