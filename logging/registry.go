package logging

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// LoggerPatternConfig sets the level of every logger whose name matches Pattern.
type LoggerPatternConfig struct {
	Pattern string `json:"pattern"`
	Level   string `json:"level"`
}

// e.g. "tracking", "motion.runner" or "motion.*".
var loggerPatternRegexp = regexp.MustCompile(`^([a-zA-Z0-9]+([_-]*[a-zA-Z0-9]+)*|\*)(\.([a-zA-Z0-9]+([_-]*[a-zA-Z0-9]+)*|\*))*$`)

func validatePattern(pattern string) bool {
	return loggerPatternRegexp.MatchString(pattern)
}

func buildRegexFromPattern(pattern string) string {
	var matcher strings.Builder
	matcher.WriteRune('^')
	for _, ch := range pattern {
		switch ch {
		case '*':
			matcher.WriteString(`.*`)
		case '.':
			matcher.WriteString(`\.`)
		default:
			matcher.WriteRune(ch)
		}
	}
	matcher.WriteRune('$')
	return matcher.String()
}

// Registry maps logger names to loggers so their levels can be changed by pattern at runtime.
type Registry struct {
	mu        sync.RWMutex
	loggers   map[string]Logger
	logConfig []LoggerPatternConfig
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		loggers: make(map[string]Logger),
	}
}

// GetOrRegister will either:
//   - return an existing logger for the input logger `name` or
//   - register the input `logger` for the given logger `name` and configure it based on the
//     existing patterns.
func (lr *Registry) GetOrRegister(name string, logger Logger) Logger {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if existingLogger, ok := lr.loggers[name]; ok {
		return existingLogger
	}

	lr.loggers[name] = logger
	for _, lpc := range lr.logConfig {
		level, matched, err := matchPattern(lpc, name)
		if err == nil && matched {
			logger.SetLevel(level)
		}
	}
	return logger
}

// Deregister removes a logger. It returns whether the logger was registered.
func (lr *Registry) Deregister(name string) bool {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	_, ok := lr.loggers[name]
	if ok {
		delete(lr.loggers, name)
	}
	return ok
}

// LoggerNamed returns the logger registered under `name`.
func (lr *Registry) LoggerNamed(name string) (logger Logger, ok bool) {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	logger, ok = lr.loggers[name]
	return
}

// UpdateLoggerLevel sets the level of a single registered logger.
func (lr *Registry) UpdateLoggerLevel(name string, level Level) error {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	logger, ok := lr.loggers[name]
	if !ok {
		return errors.Errorf("logger named %s not recognized", name)
	}
	logger.SetLevel(level)
	return nil
}

// UpdateConfig applies the pattern configuration to every registered logger. Loggers that no
// pattern matches are reset to INFO. Later patterns win over earlier ones. Invalid patterns are
// skipped with a warning on `errorLogger`.
func (lr *Registry) UpdateConfig(logConfig []LoggerPatternConfig, errorLogger Logger) error {
	lr.mu.Lock()
	lr.logConfig = logConfig
	lr.mu.Unlock()

	names := lr.RegisteredLoggerNames()
	appliedConfigs := make(map[string]Level)
	for _, lpc := range logConfig {
		if !validatePattern(lpc.Pattern) {
			errorLogger.Warnw("failed to validate a pattern", "pattern", lpc.Pattern)
			continue
		}
		for _, name := range names {
			level, matched, err := matchPattern(lpc, name)
			if err != nil {
				return err
			}
			if matched {
				appliedConfigs[name] = level
			}
		}
	}

	for _, name := range names {
		level, ok := appliedConfigs[name]
		if !ok {
			level = INFO
		}
		if err := lr.UpdateLoggerLevel(name, level); err != nil {
			return err
		}
	}

	return nil
}

// RegisteredLoggerNames returns the sorted names of every registered logger.
func (lr *Registry) RegisteredLoggerNames() []string {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	registeredNames := make([]string, 0, len(lr.loggers))
	for name := range lr.loggers {
		registeredNames = append(registeredNames, name)
	}
	sort.Strings(registeredNames)
	return registeredNames
}

func matchPattern(lpc LoggerPatternConfig, name string) (Level, bool, error) {
	r, err := regexp.Compile(buildRegexFromPattern(lpc.Pattern))
	if err != nil {
		return DEBUG, false, err
	}
	if !r.MatchString(name) {
		return DEBUG, false, nil
	}
	level, err := LevelFromString(lpc.Level)
	if err != nil {
		return DEBUG, false, err
	}
	return level, true, nil
}
