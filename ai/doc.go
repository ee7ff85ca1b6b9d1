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


// Package ai provides the abstraction for the embedding generation
// service used by corpus.
//
// The core retrieval and ingestion logic depends only on the Embedder
// interface defined here. The openai subpackage implements it against
// any OpenAI-compatible embeddings API; the mock subpackage provides
// deterministic test doubles.
package ai
