package compose

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// compose-go reports through the global logrus logger
var logrusMu sync.Mutex

// warningHook captures warning messages from logrus
type warningHook struct {
	warnings []string
}

func (h *warningHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.WarnLevel}
}

func (h *warningHook) Fire(entry *logrus.Entry) error {
	h.warnings = append(h.warnings, entry.Message)
	return nil
}

// ValidationResult contains the result of compose file validation
type ValidationResult struct {
	Valid    bool
	Images   *ComposeImages
	Errors   []string
	Warnings []string
}

// ValidateCompose parses a compose file, capturing loader warnings instead of printing them
func ValidateCompose(ctx context.Context, composeContent string) *ValidationResult {
	logrusMu.Lock()
	defer logrusMu.Unlock()

	hook := &warningHook{warnings: []string{}}

	originalLevel := logrus.GetLevel()
	originalHooks := logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
	originalOutput := logrus.StandardLogger().Out

	logrus.SetLevel(logrus.WarnLevel)
	logrus.SetOutput(io.Discard)
	logrus.AddHook(hook)

	defer func() {
		logrus.SetLevel(originalLevel)
		logrus.SetOutput(originalOutput)
		logrus.StandardLogger().ReplaceHooks(originalHooks)
	}()

	images, err := ParseImages(ctx, composeContent)

	result := &ValidationResult{
		Valid:    err == nil,
		Images:   images,
		Errors:   []string{},
		Warnings: hook.warnings,
	}
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
	}
	return result
}
