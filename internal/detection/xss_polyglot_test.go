package detection

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorePolyglot(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"\"><script>", 1.0},
		{"<SVG ONLOAD=alert(1)>", 1.0},
		{"x --!> y", 1.0},
		{"<div onclick=alert(1)>", 0.8},
		{"<p title=\" onmouse\">", 0.8},
		{"<b>bold</b>", 0.0},
		{"'-alert(1)-'", 0.0},
		{"plain text", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, scorePolyglot([]byte(tt.in)))
		})
	}
}

func TestCountContexts(t *testing.T) {
	assert.Equal(t, 0, countContexts([]byte("a < b")))
	assert.Equal(t, 1, countContexts([]byte("a < b <!-- x")))
	assert.Equal(t, 1, countContexts([]byte("x' >")))
	assert.Equal(t, 1, countContexts([]byte("eval (1)")))
	assert.Equal(t, 3, countContexts([]byte("<x a=' onz' b=confirm(1)>")))
}

func TestContainsCall(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"alert(1)", true},
		{"ALERT (1)", true},
		{"alert\t\n(1)", true},
		{"alert/**/(1)", true},
		{"alert/* a */ /* b */(1)", true},
		{`alert\u0041(1)`, true},
		{`alert\x28(1)`, true},
		{"alert the team (now)", false},
		{"alert/* unterminated (", false},
		{"no call here", false},
		{"alert x alert(2)", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, containsCall([]byte(tt.in), "alert"))
		})
	}
}

func TestScoreXSSHeuristics(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"<noscript>", 1.0},
		{"data:image/svg+xml,abc", 1.0},
		{"<x onanimationstart = go>", 1.0},
		{"<x onerror\x01=go>", 1.0},
		{"onclickable words", 0.0},
		{"onmouseleave onclick=go", 1.0},
		{"ONCLICKonload=go", 1.0},
		{"ononload=go", 1.0},
		{"<details open>", 0.5},
		{"hello", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, scoreXSSHeuristics([]byte(tt.in)))
		})
	}
}

func TestScanEventHandlersIsLinear(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantHit bool
	}{
		{"late handler repeated", "'" + strings.Repeat("onmouseleave ", 615), false},
		{"last handler repeated", strings.Repeat("onanimationstart ", 470), false},
		{"near miss repeated", strings.Repeat("onanimationstar ", 500), false},
		{"bare prefix repeated", strings.Repeat("on", 4096), false},
		{"assignment at the end", strings.Repeat("onmouseleave ", 615) + "onclick=go", true},
	}
	limit := func(n int) int { return (1 + len(xssEventHandlers)) * n }
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, steps := scanEventHandlers([]byte(tt.in))
			assert.Equal(t, tt.wantHit, found)
			assert.LessOrEqual(t, steps, limit(len(tt.in)))
		})
	}
}
