package main

import (
	"bytes"
	"testing"

	"listing-billing-be/pkg/entitlement/dependency"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestRenderTree(t *testing.T) {
	color.NoColor = true

	shared := &dependency.Node{Code: "bump", Active: true, Requires: []*dependency.Node{}}
	root := &dependency.Node{
		Code:   "showcase",
		Name:   "Showcase",
		Active: true,
		Requires: []*dependency.Node{
			{Code: "spotlight", Active: true, Requires: []*dependency.Node{shared}},
			{Code: "gallery", Active: false, Requires: []*dependency.Node{}},
			{Code: "ghost", Missing: true, Requires: []*dependency.Node{}},
		},
	}

	var buf bytes.Buffer
	renderTree(&buf, root)

	expected := "showcase Showcase\n" +
		"├── spotlight\n" +
		"│   └── bump\n" +
		"├── gallery (inactive)\n" +
		"└── ghost (missing)\n"
	assert.Equal(t, expected, buf.String())
}

func TestRenderPlanReport(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	renderPlanReport(&buf, &dependency.PlanReport{
		PlanCode:  "gold",
		Valid:     false,
		Missing:   []string{"gallery"},
		ByUpgrade: map[string][]string{"showcase": {"gallery"}},
	})

	out := buf.String()
	assert.Contains(t, out, "showcase")
	assert.Contains(t, out, "Plan gold: missing gallery")
}
