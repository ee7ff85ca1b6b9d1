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


// Package search provides hybrid semantic and lexical retrieval capabilities.
//
// The Retriever type implements a multi-stage retrieval algorithm that combines:
//   - Semantic search via exhaustive cosine scan over stored embeddings
//   - Lexical search via per-topic BM25 full-text indexes
//
// Both score sets are min-max normalized to [0, 1] independently, then
// blended with a configurable alpha weight for the union of candidates.
// Results are ranked by the blended score and truncated to a configurable
// context size.
package search
