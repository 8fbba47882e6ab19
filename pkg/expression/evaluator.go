// Package expression resolves {{ }} templates against a run-time scope of
// node outputs and workflow variables.
package expression

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

var (
	templatePattern = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)
	nodeRefPattern  = regexp.MustCompile(`^\$node\(\s*['"]([^'"]+)['"]\s*\)(.*)$`)
)

// Evaluator resolves expressions against a fixed scope mapping. The scope
// carries the reserved $prev and $nodes entries plus the workflow, user and
// spread-variable namespaces (see models.ExecutionContext.ExpressionScope).
type Evaluator struct {
	scope  map[string]any
	logger *slog.Logger
}

// New creates an evaluator over the given scope.
func New(scope map[string]any) *Evaluator {
	return &Evaluator{
		scope:  scope,
		logger: slog.With("module", "expression"),
	}
}

// Evaluate replaces every {{ expr }} occurrence with the string form of the
// resolved value. An expression that cannot be resolved is substituted back
// as its original literal text and logged as a warning; evaluation of the
// remaining expressions in the template continues.
func (e *Evaluator) Evaluate(template string) string {
	if !strings.Contains(template, "{{") {
		return template
	}

	return templatePattern.ReplaceAllStringFunc(template, func(match string) string {
		groups := templatePattern.FindStringSubmatch(match)
		expr := strings.TrimSpace(groups[1])

		value, ok := e.resolve(expr)
		if !ok {
			e.logger.Warn("failed to evaluate expression", "expression", expr)

			return match
		}

		return Stringify(value)
	})
}

// EvaluateObject recursively applies Evaluate to every string found inside
// a nested structure of maps, slices and scalars, preserving shape.
func (e *Evaluator) EvaluateObject(value any) any {
	switch v := value.(type) {
	case string:
		return e.Evaluate(v)
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = e.EvaluateObject(item)
		}

		return result
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, item := range v {
			result[key] = e.EvaluateObject(item)
		}

		return result
	default:
		return value
	}
}

// resolve dispatches an expression to its namespace, most specific prefix
// first, and reports whether it produced a defined value.
func (e *Evaluator) resolve(expr string) (any, bool) {
	if strings.HasPrefix(expr, "$node(") {
		groups := nodeRefPattern.FindStringSubmatch(expr)
		if groups == nil {
			return nil, false
		}

		nodes, _ := e.scope["$nodes"].(map[string]any)
		if nodes == nil {
			return nil, false
		}

		output, ok := nodes[groups[1]]
		if !ok {
			return nil, false
		}

		return lookup(output, groups[2])
	}

	if rest, ok := strings.CutPrefix(expr, "$prev"); ok {
		return lookup(e.scope["$prev"], rest)
	}

	if rest, ok := strings.CutPrefix(expr, "workflow."); ok {
		return lookup(e.scope["workflow"], rest)
	}

	if rest, ok := strings.CutPrefix(expr, "user."); ok {
		return lookup(e.scope["user"], rest)
	}

	return lookup(e.scope, expr)
}

// lookup walks a dot-separated path, short-circuiting to undefined the
// moment an intermediate value is missing or nil. A segment may carry a
// bracketed integer index ("items[0]") which first selects the property and
// then indexes into the value when it is a slice.
func lookup(root any, path string) (any, bool) {
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return root, root != nil
	}

	current := root

	for _, part := range strings.Split(path, ".") {
		if current == nil {
			return nil, false
		}

		prop, index, indexed := splitIndex(part)

		if prop != "" {
			value, ok := field(current, prop)
			if !ok {
				return nil, false
			}

			current = value
		}

		if indexed {
			items, ok := current.([]any)
			if !ok || index < 0 || index >= len(items) {
				return nil, false
			}

			current = items[index]
		}
	}

	if current == nil {
		return nil, false
	}

	return current, true
}

func field(current any, key string) (any, bool) {
	object, ok := current.(map[string]any)
	if !ok {
		return nil, false
	}

	value, ok := object[key]

	return value, ok
}

// splitIndex parses "items[0]" into ("items", 0, true); plain segments
// return (segment, 0, false).
func splitIndex(part string) (string, int, bool) {
	open := strings.IndexByte(part, '[')
	end := strings.IndexByte(part, ']')

	if open < 0 || end < open {
		return part, 0, false
	}

	index, err := strconv.Atoi(part[open+1 : end])
	if err != nil {
		return part, 0, false
	}

	return part[:open], index, true
}

// Stringify renders a resolved value for template substitution. Composite
// values are rendered as JSON.
func Stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(encoded)
	}
}

// ResolveParameters evaluates every template inside a node parameter bag
// against the given scope, preserving the bag's shape.
func ResolveParameters(scope map[string]any, parameters map[string]any) map[string]any {
	resolved, _ := New(scope).EvaluateObject(parameters).(map[string]any)
	if resolved == nil {
		return map[string]any{}
	}

	return resolved
}

// HasExpressions reports whether the string contains at least one
// {{ }} template.
func HasExpressions(s string) bool {
	return templatePattern.MatchString(s)
}

// ExtractExpressions lists the raw expressions inside a string, without
// their delimiters.
func ExtractExpressions(s string) []string {
	matches := templatePattern.FindAllStringSubmatch(s, -1)
	if matches == nil {
		return nil
	}

	expressions := make([]string, 0, len(matches))
	for _, match := range matches {
		expressions = append(expressions, strings.TrimSpace(match[1]))
	}

	return expressions
}
