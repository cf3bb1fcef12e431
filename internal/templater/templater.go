// Package templater implements the JSON template processor used for
// parametric diagram templates. A template is plain JSON enriched with
// directive keys ($-expr, $-str, $-if, $-else-if, $-else, $-for, $-foreach,
// $-eval, $-def:<name>, $-ref) that are expanded against a variable scope.
package templater

import (
	"fmt"
	"log/slog"
	"strings"
)

// Directive keys.
const (
	keyExpr    = "$-expr"
	keyStr     = "$-str"
	keyIf      = "$-if"
	keyElseIf  = "$-else-if"
	keyElse    = "$-else"
	keyFor     = "$-for"
	keyForeach = "$-foreach"
	keyEval    = "$-eval"
	keyRef     = "$-ref"
	defPrefix  = "$-def:"
)

// defs are stored in the scope chain under a prefix that cannot collide with
// expression variables.
const defScopePrefix = "$def:"

// ProcessJSONTemplate expands a JSON template against the given data. The
// template is never mutated and identical inputs produce identical outputs.
// Malformed expressions inside array elements cause the enclosing element to
// be skipped with a warning; malformed expressions elsewhere fail the whole
// template.
func ProcessJSONTemplate(template map[string]any, data map[string]any) (map[string]any, error) {
	vars := make(map[string]any, len(data))
	for k, v := range data {
		vars[k] = v
	}
	out, err := processValue(template, NewScope(vars))
	if err != nil {
		return nil, err
	}
	m, ok := out.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("template did not produce an object")
	}
	return m, nil
}

func processValue(value any, scope *Scope) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		return processObject(v, scope)
	case []any:
		return processArray(v, scope)
	default:
		return v, nil
	}
}

func processObject(obj map[string]any, scope *Scope) (any, error) {
	if raw, ok := obj[keyExpr]; ok {
		src, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%s directive must be a string", keyExpr)
		}
		return EvalString(src, scope)
	}
	if raw, ok := obj[keyStr]; ok {
		src, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%s directive must be a string", keyStr)
		}
		return interpolate(src, scope)
	}
	if raw, ok := obj[keyRef]; ok {
		name, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%s directive must be a string", keyRef)
		}
		def, ok := scope.Get(defScopePrefix + name)
		if !ok {
			return nil, fmt.Errorf("reference to undefined %q", name)
		}
		return processValue(def, scope)
	}

	local := scope.Child()

	if raw, ok := obj[keyEval]; ok {
		if err := runEval(raw, local); err != nil {
			return nil, err
		}
	}
	for key, raw := range obj {
		if strings.HasPrefix(key, defPrefix) {
			local.SetLocal(defScopePrefix+key[len(defPrefix):], raw)
		}
	}

	out := make(map[string]any, len(obj))
	for key, raw := range obj {
		if key == keyEval || strings.HasPrefix(key, defPrefix) {
			continue
		}
		processed, err := processValue(raw, local)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		out[key] = processed
	}
	return out, nil
}

// runEval executes the statement list of a $-eval directive.
func runEval(raw any, scope *Scope) error {
	statements, ok := raw.([]any)
	if !ok {
		if single, ok := raw.(string); ok {
			statements = []any{single}
		} else {
			return fmt.Errorf("%s directive must be a string list", keyEval)
		}
	}
	for _, stmt := range statements {
		src, ok := stmt.(string)
		if !ok {
			return fmt.Errorf("%s statement must be a string", keyEval)
		}
		if _, err := EvalString(src, scope); err != nil {
			return err
		}
	}
	return nil
}

func processArray(arr []any, scope *Scope) (any, error) {
	out := make([]any, 0, len(arr))
	// conditional chain state across consecutive elements
	inChain := false
	chainMatched := false

	appendElement := func(elem map[string]any, strip string, elemScope *Scope) {
		copied := make(map[string]any, len(elem))
		for k, v := range elem {
			if k == strip {
				continue
			}
			copied[k] = v
		}
		processed, err := processValue(copied, elemScope)
		if err != nil {
			slog.Warn("skipping template fragment", "err", err)
			return
		}
		out = append(out, processed)
	}

	for _, raw := range arr {
		elem, isObject := raw.(map[string]any)
		if !isObject {
			inChain = false
			processed, err := processValue(raw, scope)
			if err != nil {
				slog.Warn("skipping template fragment", "err", err)
				continue
			}
			out = append(out, processed)
			continue
		}

		switch {
		case hasKey(elem, keyIf):
			matched, err := evalCondition(elem[keyIf], scope)
			if err != nil {
				slog.Warn("skipping template fragment", "err", err)
				inChain, chainMatched = true, false
				continue
			}
			inChain, chainMatched = true, matched
			if matched {
				appendElement(elem, keyIf, scope)
			}
		case hasKey(elem, keyElseIf):
			if !inChain {
				slog.Warn("skipping template fragment", "err", fmt.Errorf("%s without preceding %s", keyElseIf, keyIf))
				continue
			}
			if chainMatched {
				continue
			}
			matched, err := evalCondition(elem[keyElseIf], scope)
			if err != nil {
				slog.Warn("skipping template fragment", "err", err)
				continue
			}
			chainMatched = matched
			if matched {
				appendElement(elem, keyElseIf, scope)
			}
		case hasKey(elem, keyElse):
			if inChain && !chainMatched {
				appendElement(elem, keyElse, scope)
			}
			inChain = false
		case hasKey(elem, keyFor):
			inChain = false
			if err := expandFor(elem, scope, func(elemScope *Scope) {
				appendElement(elem, keyFor, elemScope)
			}); err != nil {
				slog.Warn("skipping template fragment", "err", err)
			}
		case hasKey(elem, keyForeach):
			inChain = false
			if err := expandForeach(elem, scope, func(elemScope *Scope) {
				appendElement(elem, keyForeach, elemScope)
			}); err != nil {
				slog.Warn("skipping template fragment", "err", err)
			}
		default:
			inChain = false
			appendElement(elem, "", scope)
		}
	}
	return out, nil
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func evalCondition(raw any, scope *Scope) (bool, error) {
	src, ok := raw.(string)
	if !ok {
		return false, fmt.Errorf("condition must be a string")
	}
	v, err := EvalString(src, scope)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

// expandFor iterates a numeric $-for loop. Loop bounds may themselves be
// template values.
func expandFor(elem map[string]any, scope *Scope, emit func(*Scope)) error {
	spec, ok := elem[keyFor].(map[string]any)
	if !ok {
		return fmt.Errorf("%s directive must be an object", keyFor)
	}
	start, err := loopBound(spec, "start", scope, 0)
	if err != nil {
		return err
	}
	until, err := loopBound(spec, "until", scope, 0)
	if err != nil {
		return err
	}
	step, err := loopBound(spec, "step", scope, 1)
	if err != nil {
		return err
	}
	if step == 0 {
		return fmt.Errorf("%s step must not be zero", keyFor)
	}
	iterator, _ := spec["it"].(string)
	if iterator == "" {
		return fmt.Errorf("%s requires an iterator name", keyFor)
	}

	for x := start; (step > 0 && x < until) || (step < 0 && x > until); x += step {
		elemScope := scope.Child()
		elemScope.SetLocal(iterator, x)
		emit(elemScope)
	}
	return nil
}

func loopBound(spec map[string]any, field string, scope *Scope, fallback float64) (float64, error) {
	raw, ok := spec[field]
	if !ok {
		return fallback, nil
	}
	processed, err := processValue(raw, scope)
	if err != nil {
		return 0, err
	}
	v, err := toNumber(processed)
	if err != nil {
		return 0, fmt.Errorf("%s bound %q: %w", keyFor, field, err)
	}
	return v, nil
}

// expandForeach iterates a $-foreach loop over an array or List source.
func expandForeach(elem map[string]any, scope *Scope, emit func(*Scope)) error {
	spec, ok := elem[keyForeach].(map[string]any)
	if !ok {
		return fmt.Errorf("%s directive must be an object", keyForeach)
	}
	sourceExpr, _ := spec["source"].(string)
	if sourceExpr == "" {
		return fmt.Errorf("%s requires a source expression", keyForeach)
	}
	iterator, _ := spec["it"].(string)
	if iterator == "" {
		return fmt.Errorf("%s requires an iterator name", keyForeach)
	}

	source, err := EvalString(sourceExpr, scope)
	if err != nil {
		return err
	}
	var items []any
	switch s := source.(type) {
	case []any:
		items = s
	case *List:
		items = s.Items()
	default:
		return fmt.Errorf("%s source must be a list, got %T", keyForeach, source)
	}

	for _, item := range items {
		elemScope := scope.Child()
		elemScope.SetLocal(iterator, item)
		emit(elemScope)
	}
	return nil
}

// interpolate expands ${...} expressions inside a $-str template string.
func interpolate(src string, scope *Scope) (string, error) {
	var sb strings.Builder
	rest := src
	for {
		idx := strings.Index(rest, "${")
		if idx < 0 {
			sb.WriteString(rest)
			return sb.String(), nil
		}
		sb.WriteString(rest[:idx])
		end := strings.Index(rest[idx:], "}")
		if end < 0 {
			return "", fmt.Errorf("unterminated ${ in %q", src)
		}
		expr := rest[idx+2 : idx+end]
		v, err := EvalString(expr, scope)
		if err != nil {
			return "", err
		}
		sb.WriteString(valueToString(v))
		rest = rest[idx+end+1:]
	}
}
