package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ZacxDev/eagerstart/component"
	"github.com/ZacxDev/eagerstart/fs"
	"github.com/ZacxDev/eagerstart/logging"
	"github.com/pkg/errors"
	"go.starlark.net/starlark"
)

// DescriptorGlobal is the Starlark global every descriptor must define.
const DescriptorGlobal = "singletons"

// ModuleCache is used to store loaded Starlark modules
type ModuleCache struct {
	modules map[string]starlark.StringDict
	mutex   sync.RWMutex
}

// NewModuleCache creates a new ModuleCache
func NewModuleCache() *ModuleCache {
	return &ModuleCache{
		modules: make(map[string]starlark.StringDict),
	}
}

// Get retrieves a module from the cache
func (mc *ModuleCache) Get(key string) (starlark.StringDict, bool) {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()
	module, ok := mc.modules[key]
	return module, ok
}

// Set stores a module in the cache
func (mc *ModuleCache) Set(key string, module starlark.StringDict) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	mc.modules[key] = module
}

// LoadModule resolves load() statements relative to the loading file and
// reads them through the thread's file system.
func LoadModule(thread *starlark.Thread, module string) (starlark.StringDict, error) {
	cache := thread.Local("moduleCache").(*ModuleCache)
	filesystem := thread.Local("fs").(fs.FileSystem)

	filename := module
	if !filepath.IsAbs(filename) {
		filename = filepath.Join(filepath.Dir(thread.Name), filename)
	}

	if cachedModule, ok := cache.Get(filename); ok {
		return cachedModule, nil
	}

	src, err := filesystem.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read module %s", module)
	}

	child := &starlark.Thread{Name: filename, Load: thread.Load}
	child.SetLocal("moduleCache", cache)
	child.SetLocal("fs", filesystem)

	globals, err := starlark.ExecFile(child, filename, src, nil)
	if err != nil {
		return nil, err
	}

	cache.Set(filename, globals)
	return globals, nil
}

// ModuleName derives a descriptor's module name from its path.
func ModuleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseDescriptor executes one Starlark descriptor and returns the singletons
// it declares, in declaration order.
func ParseDescriptor(filesystem fs.FileSystem, filename string) ([]*component.Singleton, error) {
	src, err := filesystem.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read descriptor %s", filename)
	}

	cache := NewModuleCache()
	thread := &starlark.Thread{
		Name: filename,
		Load: LoadModule,
	}
	thread.SetLocal("moduleCache", cache)
	thread.SetLocal("fs", filesystem)

	globals, err := starlark.ExecFile(thread, filename, src, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Starlark descriptor")
	}

	value, ok := globals[DescriptorGlobal]
	if !ok {
		return nil, &DescriptorError{Path: filename, Msg: fmt.Sprintf("global '%s' object not found", DescriptorGlobal)}
	}

	dict, ok := value.(*starlark.Dict)
	if !ok {
		return nil, &DescriptorError{Path: filename, Msg: fmt.Sprintf("global '%s' object is not a dictionary", DescriptorGlobal)}
	}

	module := ModuleName(filename)
	singletons := make([]*component.Singleton, 0, dict.Len())

	for _, item := range dict.Items() {
		key, ok := item.Index(0).(starlark.String)
		if !ok {
			return nil, &DescriptorError{Path: filename, Msg: fmt.Sprintf("component keys must be strings, got %s", item.Index(0).Type())}
		}
		name := key.GoString()

		entry, ok := item.Index(1).(*starlark.Dict)
		if !ok {
			return nil, &DescriptorError{Path: filename, Component: name, Msg: fmt.Sprintf("expected dict, got %s", item.Index(1).Type())}
		}

		singleton, err := parseSingleton(name, entry)
		if err != nil {
			return nil, &DescriptorError{Path: filename, Component: name, Msg: err.Error()}
		}
		singleton.Module = module
		singleton.Source = filename
		singletons = append(singletons, singleton)
	}

	logging.Debug("ConfigLoader", "Parsed %d singletons from %s", len(singletons), filename)
	return singletons, nil
}

func parseSingleton(name string, dict *starlark.Dict) (*component.Singleton, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("component name must not be empty")
	}
	if strings.Contains(name, component.ModuleSeparator) {
		return nil, errors.Errorf("component name must not contain %q", component.ModuleSeparator)
	}

	singleton := &component.Singleton{Name: name, Eager: true}

	if deps, ok, err := getStringList(dict, "depends_on"); err != nil {
		return nil, err
	} else if ok {
		singleton.DependsOn = deps
	}

	if start, ok, err := getStringValue(dict, "start"); err != nil {
		return nil, err
	} else if ok {
		singleton.Start = start
	}

	if stop, ok, err := getStringValue(dict, "stop"); err != nil {
		return nil, err
	} else if ok {
		singleton.Stop = stop
	}

	if eager, ok, err := getBooleanValue(dict, "eager"); err != nil {
		return nil, err
	} else if ok {
		singleton.Eager = eager
	}

	return singleton, nil
}

// LoadDescriptors expands the doublestar patterns, parses every matching
// descriptor in path order and resolves module-qualified dependencies.
func LoadDescriptors(filesystem fs.FileSystem, patterns []string) ([]*component.Singleton, error) {
	paths, err := expandPatterns(filesystem, patterns)
	if err != nil {
		return nil, err
	}

	var all []*component.Singleton
	byModule := make(map[string]map[string]bool)
	declaredIn := make(map[string]string)

	for _, path := range paths {
		singletons, err := ParseDescriptor(filesystem, path)
		if err != nil {
			return nil, err
		}

		module := ModuleName(path)
		if _, dup := byModule[module]; dup {
			return nil, &DescriptorError{Path: path, Msg: fmt.Sprintf("module %q is declared by more than one descriptor", module)}
		}
		names := make(map[string]bool, len(singletons))
		byModule[module] = names

		for _, s := range singletons {
			if prev, dup := declaredIn[s.Name]; dup {
				return nil, &DescriptorError{Path: path, Component: s.Name, Msg: fmt.Sprintf("already declared in %s", prev)}
			}
			declaredIn[s.Name] = path
			names[s.Name] = true
		}
		all = append(all, singletons...)
	}

	for _, s := range all {
		resolved, err := resolveDependencies(s, byModule)
		if err != nil {
			return nil, err
		}
		s.DependsOn = resolved
	}

	logging.Info("ConfigLoader", "Loaded %d singletons from %d descriptors", len(all), len(paths))
	return all, nil
}

func resolveDependencies(s *component.Singleton, byModule map[string]map[string]bool) ([]string, error) {
	resolved := make([]string, 0, len(s.DependsOn))
	for _, ref := range s.DependsOn {
		module, name, qualified := component.SplitReference(ref)
		if qualified {
			names, ok := byModule[module]
			if !ok {
				return nil, &DescriptorError{Path: s.Source, Component: s.Name, Msg: fmt.Sprintf("invalid depends_on %q: unknown module %q", ref, module)}
			}
			if !names[name] {
				return nil, &DescriptorError{Path: s.Source, Component: s.Name, Msg: fmt.Sprintf("invalid depends_on %q: module %q does not declare %q", ref, module, name)}
			}
		}
		if name == s.Name {
			return nil, &DescriptorError{Path: s.Source, Component: s.Name, Msg: "component depends on itself"}
		}
		resolved = append(resolved, name)
	}
	return resolved, nil
}

func expandPatterns(filesystem fs.FileSystem, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string

	for _, pattern := range patterns {
		matches, err := filesystem.DoublestarGlob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "error expanding glob pattern %s", pattern)
		}
		if len(matches) == 0 {
			return nil, &DescriptorError{Path: pattern, Msg: "no descriptors matched"}
		}
		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				paths = append(paths, match)
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func getBooleanValue(dict *starlark.Dict, key string) (bool, bool, error) {
	value, found, err := dict.Get(starlark.String(key))
	if err != nil || !found {
		return false, false, err
	}

	boolValue, ok := value.(starlark.Bool)
	if !ok {
		return false, false, fmt.Errorf("expected bool for key %s, got %s", key, value.Type())
	}

	return bool(boolValue), true, nil
}

func getStringValue(dict *starlark.Dict, key string) (string, bool, error) {
	value, found, err := dict.Get(starlark.String(key))
	if err != nil || !found {
		return "", false, err
	}

	strValue, ok := value.(starlark.String)
	if !ok {
		return "", false, fmt.Errorf("expected string for key %s, got %s", key, value.Type())
	}

	return strValue.GoString(), true, nil
}

func getStringList(dict *starlark.Dict, key string) ([]string, bool, error) {
	value, found, err := dict.Get(starlark.String(key))
	if err != nil || !found {
		return nil, false, err
	}

	var iterable starlark.Iterable
	switch v := value.(type) {
	case *starlark.List:
		iterable = v
	case starlark.Tuple:
		iterable = v
	default:
		return nil, false, fmt.Errorf("expected list for key %s, got %s", key, value.Type())
	}

	var result []string
	iter := iterable.Iterate()
	defer iter.Done()
	var x starlark.Value
	for iter.Next(&x) {
		str, ok := x.(starlark.String)
		if !ok {
			return nil, false, fmt.Errorf("expected string in list for key %s, got %s", key, x.Type())
		}
		result = append(result, str.GoString())
	}

	return result, true, nil
}
