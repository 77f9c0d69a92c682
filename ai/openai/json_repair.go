// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import "strings"

// repairJSON fixes the formatting slips small models make in JSON answers:
// a missing opening quote before a key (`{summary": ...`), raw newlines
// inside string values, and a trailing comma before the closing brace.
func repairJSON(s string) string {
	in := []rune(s)
	var out strings.Builder
	out.Grow(len(s) + 8)

	inString := false
	escaped := false
	for i := 0; i < len(in); i++ {
		ch := in[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			case ch == '\n':
				out.WriteString(`\n`)
				continue
			case ch == '\r':
				continue
			}
			out.WriteRune(ch)
			continue
		}

		switch ch {
		case '"':
			inString = true
			out.WriteRune(ch)
		case ',':
			// Drop a comma that only precedes whitespace and a closing brace or bracket.
			j := skipSpace(in, i+1)
			if j < len(in) && (in[j] == '}' || in[j] == ']') {
				continue
			}
			out.WriteRune(ch)
			i = quoteBareKey(in, i+1, &out) - 1
		case '{':
			out.WriteRune(ch)
			i = quoteBareKey(in, i+1, &out) - 1
		default:
			out.WriteRune(ch)
		}
	}

	return out.String()
}

// quoteBareKey copies whitespace starting at i and, when a key like `name":`
// follows, writes it with the missing opening quote. It returns the index of
// the first rune not consumed.
func quoteBareKey(in []rune, i int, out *strings.Builder) int {
	j := skipSpace(in, i)
	out.WriteString(string(in[i:j]))
	if j >= len(in) || !isLetter(in[j]) {
		return j
	}
	k := j
	for k < len(in) && (isLetter(in[k]) || in[k] == '_') {
		k++
	}
	if k+1 < len(in) && in[k] == '"' && in[k+1] == ':' {
		out.WriteRune('"')
		out.WriteString(string(in[j:k]))
		out.WriteRune('"')
		return k + 1
	}
	return j
}

func skipSpace(in []rune, i int) int {
	for i < len(in) && (in[i] == ' ' || in[i] == '\n' || in[i] == '\t' || in[i] == '\r') {
		i++
	}
	return i
}
