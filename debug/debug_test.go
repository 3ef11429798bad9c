package debug

import (
	"log/slog"
	"strings"
	"testing"

	zinc "github.com/cmlibs/zinc-go"
)

func TestTreeString(t *testing.T) {
	fm := zinc.NewFieldmodule("test")

	fm.SetFieldName("a")
	a, _ := fm.CreateFieldConstant([]float64{1})
	fm.SetFieldName("b")
	b, _ := fm.CreateFieldConstant([]float64{2})
	fm.SetFieldName("sum")
	sum, _ := fm.CreateFieldAdd(a, b)
	fm.SetFieldName("norm")
	norm, _ := fm.CreateFieldMagnitude(sum)

	drawn := TreeString(norm)
	for _, want := range []string{"norm", "magnitude", "sum", "add", "a", "b", "constant"} {
		if !strings.Contains(drawn, want) {
			t.Errorf("expected %q in tree drawing:\n%s", want, drawn)
		}
	}
	if TreeString(nil) != "" {
		t.Errorf("expected empty drawing for nil field")
	}
}

func TestChangeLogger(t *testing.T) {
	fm := zinc.NewFieldmodule("test")

	var sb strings.Builder
	logger := slog.New(zinc.NewHumanHandler(&sb, slog.LevelDebug))
	notifier := fm.CreateNotifier()
	if err := notifier.SetCallback(ChangeLogger(logger)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	fm.SetFieldName("a")
	fm.CreateFieldConstant([]float64{1})

	out := sb.String()
	if !strings.Contains(out, "field change event") {
		t.Errorf("expected event line, got %q", out)
	}
	if !strings.Contains(out, "a") || !strings.Contains(out, "add") {
		t.Errorf("expected field name and flags in output, got %q", out)
	}
}
