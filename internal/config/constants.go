// Package config carries module-wide constants and the YAML-loaded runner
// configuration consumed by cmd/sievecore (spec.md's ambient stack: this
// module's counterpart to the teacher's internal/config/constants.go plus
// internal/ext/config.go's YAML-manifest loading).
package config

// Version is the current sievecore version. Set at build time via
// -ldflags, or written here directly for a source build.
var Version = "0.1.0"

const RelationFileExt = ".sieve"

// RelationFileExtensions are all recognized circuit-relation file
// extensions a CLI driver should treat as IR input.
var RelationFileExtensions = []string{".sieve", ".ir"}

// HasRelationExt returns true if path ends with a recognized relation
// file extension.
func HasRelationExt(path string) bool {
	for _, ext := range RelationFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// Standard plugin names, as declared by a circuit header's @plugin
// directive and matched against internal/plugin.Manager registrations.
const (
	PluginVectors     = "vectors"
	PluginMux         = "mux"
	PluginExtendedArith = "extended_arithmetic"
	PluginRAM         = "ram"
	PluginIterationMap = "iteration_map"
)

// AllStandardPlugins lists every plugin this module ships, in the order
// internal/config.RunnerConfig.Plugins defaults to when a config
// omits the "plugins" key entirely.
var AllStandardPlugins = []string{
	PluginVectors, PluginMux, PluginExtendedArith, PluginRAM, PluginIterationMap,
}
