package templater

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func process(t *testing.T, template, data map[string]any) map[string]any {
	t.Helper()
	out, err := ProcessJSONTemplate(template, data)
	require.NoError(t, err)
	return out
}

func itemNames(t *testing.T, result map[string]any) string {
	t.Helper()
	items, ok := result["items"].([]any)
	require.True(t, ok)
	names := make([]string, 0, len(items))
	for _, raw := range items {
		item := raw.(map[string]any)
		names = append(names, item["name"].(string))
	}
	return strings.Join(names, ",")
}

func TestExpressionsInTemplate(t *testing.T) {
	result := process(t, map[string]any{
		"items": []any{
			map[string]any{
				"area": map[string]any{
					"x": map[string]any{"$-expr": "x + 10 * y"},
					"y": map[string]any{"$-expr": "-y"},
				},
			},
			map[string]any{
				"area": map[string]any{"x": 1.0, "y": 5.0},
			},
		},
	}, map[string]any{"x": 3.0, "y": 10.0})

	assert.Equal(t, map[string]any{
		"items": []any{
			map[string]any{"area": map[string]any{"x": 103.0, "y": -10.0}},
			map[string]any{"area": map[string]any{"x": 1.0, "y": 5.0}},
		},
	}, result)
}

func TestStringExpressions(t *testing.T) {
	result := process(t, map[string]any{
		"items": []any{
			map[string]any{"name": map[string]any{"$-str": "id: ${id * 1000}, name: ${name}"}},
			map[string]any{"name": "item 2"},
		},
	}, map[string]any{"id": 2.0, "name": "john"})

	assert.Equal(t, map[string]any{
		"items": []any{
			map[string]any{"name": "id: 2000, name: john"},
			map[string]any{"name": "item 2"},
		},
	}, result)
}

func TestConditionsInArray(t *testing.T) {
	template := map[string]any{
		"items": []any{
			map[string]any{"name": "1"},
			map[string]any{"name": "2", "$-if": "animation == 'simple' || animation == 'scaled'"},
			map[string]any{"name": "3"},
		},
	}

	cases := []struct {
		data     map[string]any
		expected string
	}{
		{map[string]any{"animation": "simple"}, "1,2,3"},
		{map[string]any{"animation": "scaled"}, "1,2,3"},
		{map[string]any{"animation": "other"}, "1,3"},
	}
	for _, tc := range cases {
		result := process(t, template, tc.data)
		assert.Equal(t, tc.expected, itemNames(t, result))
	}
}

func TestElseConditionsInArray(t *testing.T) {
	template := map[string]any{
		"items": []any{
			map[string]any{"name": "1"},
			map[string]any{"name": "2", "$-if": "animation == 'simple' || animation == 'scaled'"},
			map[string]any{"name": "2_", "$-else": ""},
		},
	}

	cases := []struct {
		data     map[string]any
		expected string
	}{
		{map[string]any{"animation": "simple"}, "1,2"},
		{map[string]any{"animation": "scaled"}, "1,2"},
		{map[string]any{"animation": "other"}, "1,2_"},
	}
	for _, tc := range cases {
		result := process(t, template, tc.data)
		assert.Equal(t, tc.expected, itemNames(t, result))
	}
}

func TestElseIfConditionsInArray(t *testing.T) {
	template := map[string]any{
		"items": []any{
			map[string]any{"name": "1"},
			map[string]any{"name": "2", "$-if": `animation == "simple" || animation == "scaled"`},
			map[string]any{"name": "2_", "$-else-if": `pos == "centered"`},
			map[string]any{"name": "_2", "$-else": ""},
		},
	}

	cases := []struct {
		data     map[string]any
		expected string
	}{
		{map[string]any{"animation": "simple", "pos": "centered"}, "1,2"},
		{map[string]any{"animation": "scaled", "pos": "centered"}, "1,2"},
		{map[string]any{"animation": "other", "pos": "centered"}, "1,2_"},
		{map[string]any{"animation": "other", "pos": "stretched"}, "1,_2"},
	}
	for _, tc := range cases {
		result := process(t, template, tc.data)
		assert.Equal(t, tc.expected, itemNames(t, result))
	}
}

func TestForLoopsInArray(t *testing.T) {
	template := map[string]any{
		"items": []any{
			map[string]any{"name": "a"},
			map[string]any{
				"$-for": map[string]any{"start": -1.0, "until": map[string]any{"$-expr": "num"}, "step": 1.0, "it": "x"},
				"name":  "f",
				"x":     map[string]any{"$-expr": "x * 2 + margin"},
			},
			map[string]any{"name": "b"},
		},
	}

	result := process(t, template, map[string]any{"num": 3.0, "margin": 100.0})

	assert.Equal(t, map[string]any{
		"items": []any{
			map[string]any{"name": "a"},
			map[string]any{"name": "f", "x": 98.0},
			map[string]any{"name": "f", "x": 100.0},
			map[string]any{"name": "f", "x": 102.0},
			map[string]any{"name": "f", "x": 104.0},
			map[string]any{"name": "b"},
		},
	}, result)
}

func TestForeachOverList(t *testing.T) {
	template := map[string]any{
		"items": []any{
			map[string]any{"name": "a"},
			map[string]any{
				"$-foreach": map[string]any{"source": "myList", "it": "x"},
				"name":      "f",
				"x":         map[string]any{"$-expr": "x"},
			},
			map[string]any{"name": "b"},
		},
	}

	result := process(t, template, map[string]any{"myList": NewList(4.0, 6.0, 1.0), "margin": 100.0})

	assert.Equal(t, map[string]any{
		"items": []any{
			map[string]any{"name": "a"},
			map[string]any{"name": "f", "x": 4.0},
			map[string]any{"name": "f", "x": 6.0},
			map[string]any{"name": "f", "x": 1.0},
			map[string]any{"name": "b"},
		},
	}, result)
}

func TestForeachOverArray(t *testing.T) {
	template := map[string]any{
		"items": []any{
			map[string]any{
				"$-foreach": map[string]any{"source": "myArr", "it": "x"},
				"name":      "f",
				"x":         map[string]any{"$-expr": "x"},
			},
		},
	}

	result := process(t, template, map[string]any{"myArr": []any{4.0, 6.0, 1.0}})

	items := result["items"].([]any)
	require.Len(t, items, 3)
	assert.Equal(t, 4.0, items[0].(map[string]any)["x"])
	assert.Equal(t, 6.0, items[1].(map[string]any)["x"])
	assert.Equal(t, 1.0, items[2].(map[string]any)["x"])
}

func TestEvalAssignsVariables(t *testing.T) {
	template := map[string]any{
		"$-eval": []any{"x = 45", "y = 3"},
		"items": []any{
			map[string]any{"name": map[string]any{"$-str": "name: ${x}"}},
			map[string]any{"name": map[string]any{"$-str": "name: ${y}"}},
		},
	}

	result := process(t, template, map[string]any{"y": 6.0})
	assert.Equal(t, "name: 45,name: 3", itemNames(t, result))
}

func TestDefAndRef(t *testing.T) {
	template := map[string]any{
		"$-def:q1": "This is simple text",
		"$-def:q2": []any{"This", "is", "array"},
		"$-def:q3": map[string]any{"$-expr": "idx * 2 + 1"},
		"items": []any{
			map[string]any{
				"name": map[string]any{"$-ref": "q1"},
				"tags": map[string]any{"$-ref": "q2"},
			},
			map[string]any{
				"$-for": map[string]any{"start": 0.0, "until": 2.0, "it": "idx"},
				"name":  map[string]any{"$-str": "item ${idx}"},
				"size":  map[string]any{"$-ref": "q3"},
			},
		},
	}

	result := process(t, template, map[string]any{})

	assert.Equal(t, map[string]any{
		"items": []any{
			map[string]any{
				"name": "This is simple text",
				"tags": []any{"This", "is", "array"},
			},
			map[string]any{"name": "item 0", "size": 1.0},
			map[string]any{"name": "item 1", "size": 3.0},
		},
	}, result)
}

func TestTemplatePurity(t *testing.T) {
	template := map[string]any{
		"$-eval": []any{"doubled = n * 2"},
		"items": []any{
			map[string]any{
				"$-for": map[string]any{"start": 0.0, "until": map[string]any{"$-expr": "n"}, "it": "i"},
				"name":  map[string]any{"$-str": "row ${i} of ${doubled}"},
			},
		},
	}
	data := map[string]any{"n": 3.0}

	first := process(t, template, data)
	second := process(t, template, data)

	assert.Equal(t, first, second)
	// the input data map is untouched
	assert.Equal(t, map[string]any{"n": 3.0}, data)
}

func TestMalformedExpressionSkipsFragment(t *testing.T) {
	template := map[string]any{
		"items": []any{
			map[string]any{"name": "ok"},
			map[string]any{"name": map[string]any{"$-expr": "14 +"}},
			map[string]any{"name": "also ok"},
		},
	}

	result := process(t, template, map[string]any{})
	assert.Equal(t, "ok,also ok", itemNames(t, result))
}

func TestExpressionEvaluation(t *testing.T) {
	scope := NewScope(map[string]any{
		"a":    5.0,
		"name": "bob",
		"obj":  map[string]any{"width": 40.0},
	})

	cases := []struct {
		expr     string
		expected any
	}{
		{"2 + 3 * 4", 14.0},
		{"(2 + 3) * 4", 20.0},
		{"10 % 3", 1.0},
		{"-a + 1", -4.0},
		{"a > 3 && a < 10", true},
		{"a == 5", true},
		{"name == 'bob'", true},
		{"name != 'alice'", true},
		{"!(a == 5)", false},
		{"'a: ' + a", "a: 5"},
		{"min(3, 8, 1)", 1.0},
		{"max(3, 8)", 8.0},
		{"abs(-7)", 7.0},
		{"round(2.4)", 2.0},
		{"pow(2, 10)", 1024.0},
		{"obj.width / 2", 20.0},
		{"true && false || true", true},
	}
	for _, tc := range cases {
		v, err := EvalString(tc.expr, scope)
		require.NoError(t, err, tc.expr)
		assert.Equal(t, tc.expected, v, tc.expr)
	}
}

func TestExpressionErrors(t *testing.T) {
	scope := NewScope(nil)
	for _, expr := range []string{"", "5 +", "unknownVar", "foo(1)", "1 / 0", "'unterminated"} {
		_, err := EvalString(expr, scope)
		assert.Error(t, err, expr)
	}
}

func TestListFunctionInExpression(t *testing.T) {
	v, err := EvalString("List(1, 2, 3)", NewScope(nil))
	require.NoError(t, err)
	list, ok := v.(*List)
	require.True(t, ok)
	assert.Equal(t, 3, list.Size())
}
