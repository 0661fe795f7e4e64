package component

import "strings"

// ModuleSeparator joins a module name and a component name in a qualified
// reference such as "billing#Ledger".
const ModuleSeparator = "#"

type Singleton struct {
	Name string
	// Module is the base name of the descriptor the component was declared in.
	Module    string
	Source    string
	DependsOn []string
	Start     string
	Stop      string
	// Eager components are started by a plain "start"; the others only when
	// something that is started depends on them.
	Eager bool
}

func (s *Singleton) QualifiedName() string {
	if s.Module == "" {
		return s.Name
	}
	return s.Module + ModuleSeparator + s.Name
}

// SplitReference splits "module#Name" into its parts. Unqualified references
// return an empty module and qualified=false.
func SplitReference(ref string) (module, name string, qualified bool) {
	idx := strings.Index(ref, ModuleSeparator)
	if idx < 0 {
		return "", ref, false
	}
	return ref[:idx], ref[idx+len(ModuleSeparator):], true
}
