package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollapseWhitespace(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{in: "", expected: ""},
		{in: "   ", expected: ""},
		{in: "Population", expected: "Population"},
		{in: "  Área da\n\tunidade  territorial ", expected: "Área da unidade territorial"},
		{in: "12 345 pessoas", expected: "12 345 pessoas"},
		{in: "a \r\n\r\n b", expected: "a b"},
		{in: "no\u00a0break", expected: "no break"},
		{in: "Área\u2003\u2003territorial", expected: "Área territorial"},
		{in: "12\u2009345", expected: "12 345"},
		{in: "a \u202f b", expected: "a b"},
		{in: "\u3000ideographic\u205f", expected: "ideographic"},
	}

	for _, test := range testCases {
		out := CollapseWhitespace(test.in)
		require.Equal(t, test.expected, out, "input %q", test.in)
		require.Equal(t, out, CollapseWhitespace(out), "not idempotent for %q", test.in)
	}
}

func TestSlug(t *testing.T) {
	testCases := []struct {
		name     string
		expected string
	}{
		{name: "Belo Horizonte", expected: "belo-horizonte"},
		{name: "São João del-Rei", expected: "sao-joao-del-rei"},
		{name: "Olhos-d'Água", expected: "olhos-dagua"},
		{name: "Pingo-d’Água", expected: "pingo-dagua"},
		{name: "Florianópolis", expected: "florianopolis"},
		{name: "Itaú de Minas", expected: "itau-de-minas"},
		{name: "Conceição", expected: "conceicao"},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, Slug(test.name))
	}
}
