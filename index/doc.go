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


// Package index maintains per-topic lexical search indexes.
//
// Each topic owns a fully isolated SQLite FTS5 database file, giving
// BM25-style term-frequency/IDF/length-normalized ranking over chunk
// text. The Manager exposes the index lifecycle (upsert, batch upsert,
// rebuild, delete, delete-index) and ranked search.
//
// The on-disk layout is an implementation detail of SQLite; callers
// only rely on the operation contracts. Concurrent writers against the
// same topic must be serialized by the caller, matching the
// single-writer assumption of the underlying index files.
package index
