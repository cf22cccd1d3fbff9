package logger

import "sync"

// named holds loggers registered by component name.
var named sync.Map // map[string]*Logger

// Register stores l under name. Later calls to Get(name) return it instead
// of a global-logger child.
func Register(name string, l *Logger) {
	named.Store(name, l)
}

// Unregister removes a named logger so Get falls back to the global logger.
func Unregister(name string) {
	named.Delete(name)
}

// Get returns the logger registered under name, or the global logger tagged
// with component=name. The fallback is built on each call, so a logger
// installed later with SetGlobalLogger is picked up.
func Get(name string) *Logger {
	if l, ok := named.Load(name); ok {
		return l.(*Logger)
	}
	return GetGlobalLogger().WithComponent(name)
}
