// Package debug renders field graphs and change events for inspection. It is
// read-only over the public field API and safe to use in examples and tests.
package debug

import (
	"fmt"
	"log/slog"

	"github.com/m1gwings/treedrawer/tree"

	zinc "github.com/cmlibs/zinc-go"
)

func label(f *zinc.Field) string {
	return fmt.Sprintf("%s (%s)", f.Name(), f.TypeName())
}

// TreeString draws field's source graph as a tree, one node per field with
// its name and operator type. Shared sources appear once per use.
func TreeString(f *zinc.Field) string {
	if f == nil {
		return ""
	}
	t := tree.NewTree(tree.NodeString(label(f)))
	addSources(t, f)
	return t.String()
}

func addSources(t *tree.Tree, f *zinc.Field) {
	for i := 0; i < f.SourceFieldCount(); i++ {
		source, err := f.SourceField(i)
		if err != nil {
			continue
		}
		t.AddChild(tree.NodeString(label(source)))
		child, err := t.Child(i)
		if err != nil {
			continue
		}
		addSources(child, source)
	}
}

// ChangeLogger returns a notifier callback logging each change event through
// logger, one line per event plus one per changed field at debug level.
//
//	notifier := fm.CreateNotifier()
//	notifier.SetCallback(debug.ChangeLogger(logger))
func ChangeLogger(logger *slog.Logger) func(*zinc.Event) {
	return func(event *zinc.Event) {
		logger.Info("field change event",
			slog.String("summary", event.Summary.String()),
			slog.Int("fields", event.NumberOfChangedFields()))
		event.ForEachField(func(f *zinc.Field, flags zinc.ChangeFlags) {
			logger.Debug("field changed",
				slog.String("field", f.Name()),
				slog.String("flags", flags.String()))
		})
	}
}
