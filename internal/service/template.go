package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/kinetichq/kinetic/internal/domain"
)

// templateVars derives the named variables a response template can
// reference from the context snapshot. Numeric values drive conditional
// fragments; everything is also available as a string placeholder.
func templateVars(ctx *domain.UserContext) map[string]any {
	vars := map[string]any{
		"persona": string(ctx.Profile.Persona),
	}

	if ctx.LastSleep != nil {
		if hours, ok := ctx.LastSleep.SleepHours(); ok {
			vars["sleep_hours"] = hours
		}
	}
	if ctx.LastWorkout != nil {
		if at, ok := ctx.LastWorkout.StringField(domain.FieldActivityType); ok {
			vars["activity_type"] = at
		}
		if intensity, ok := ctx.LastWorkout.Intensity(); ok {
			vars["intensity"] = intensity
		}
		vars["hours_since_workout"] = hoursSince(ctx.Now, ctx.LastWorkout.LoggedAt)
	}
	if ctx.LastMeal != nil {
		vars["hours_since_meal"] = hoursSince(ctx.Now, ctx.LastMeal.LoggedAt)
	}
	return vars
}

func hoursSince(now, t time.Time) float64 {
	h := now.Sub(t).Hours()
	if h < 0 {
		return 0
	}
	// Half-hour precision reads better than raw floats in rendered text.
	return float64(int(h*2)) / 2
}

// renderTemplate substitutes {placeholder} tokens and resolves typed
// conditional fragments. On any substitution failure it falls back to the
// unmodified template text.
func renderTemplate(tpl domain.ResponseTemplate, vars map[string]any) string {
	out := tpl.Text

	for _, frag := range tpl.Fragments {
		v, ok := numericVar(vars, frag.Field)
		text := frag.Else
		if ok && frag.Op.Eval(v, frag.Value) {
			text = frag.Then
		}
		out = strings.ReplaceAll(out, "{"+frag.Token+"}", text)
	}

	for name, v := range vars {
		out = strings.ReplaceAll(out, "{"+name+"}", formatVar(v))
	}

	// Unresolved placeholders mean a variable the snapshot could not
	// supply; return the original text rather than partial output.
	if strings.Contains(out, "{") && strings.Contains(out, "}") {
		return tpl.Text
	}
	return strings.Join(strings.Fields(out), " ")
}

func numericVar(vars map[string]any, name string) (float64, bool) {
	v, ok := vars[name]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func formatVar(v any) string {
	switch n := v.(type) {
	case float64:
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%.1f", n)
	case string:
		return n
	default:
		return fmt.Sprintf("%v", v)
	}
}
