package llm

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Workshop descriptions use BBCode; models tend to translate or drop the
// tags, so they travel as opaque tokens.
var (
	bbcodeRE      = regexp.MustCompile(`\[/?[a-zA-Z][a-zA-Z0-9]*(?:=[^\]]*)?\]`)
	placeholderRE = regexp.MustCompile(`\{[^{}\s]+\}`)
)

func extractTokens(s string) []string {
	m := append(placeholderRE.FindAllString(s, -1), bbcodeRE.FindAllString(s, -1)...)
	if len(m) == 0 {
		return nil
	}
	uniq := make(map[string]struct{}, len(m))
	for _, v := range m {
		uniq[v] = struct{}{}
	}
	out := make([]string, 0, len(uniq))
	for v := range uniq {
		out = append(out, v)
	}
	// longest first so "[url=a]" is not split by a shorter overlap
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

func maskTokens(s string) (string, func(string) string) {
	tokens := extractTokens(s)
	masked := s
	repls := make([]struct{ from, to string }, 0, len(tokens))
	for i, tg := range tokens {
		token := fmt.Sprintf("__TAG_%d__", i)
		masked = strings.ReplaceAll(masked, tg, token)
		repls = append(repls, struct{ from, to string }{from: token, to: tg})
	}
	unmask := func(in string) string {
		out := in
		// restore in reverse order
		for i := len(repls) - 1; i >= 0; i-- {
			out = strings.ReplaceAll(out, repls[i].from, repls[i].to)
		}
		return out
	}
	return masked, unmask
}
