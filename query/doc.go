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

// Package query turns conversational search text into a structured query.
//
// Parsing is rule based and driven by a closed Lexicon:
//   - intent detection ("how many" counts, "list all" lists, anything else searches)
//   - result limits written as digits or number words next to a result noun
//   - attribute tags from a fixed phrase table
//   - search terms with stop words removed and synonyms appended
//
// The semantic query is the text that gets embedded. Instruction phrases such as
// "get me" or the numeral of "3 books" are removed from it; content words stay
// in their original order so the query still reads as natural language.
//
// Parse never fails.
package query
