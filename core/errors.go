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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrMissingDocumentId indicates the DocumentId field is zero.
	ErrMissingDocumentId = errors.New("document id required")

	// ErrMissingTopicId indicates the TopicId field is zero.
	ErrMissingTopicId = errors.New("topic id required")

	// ErrNegativeChunkIndex indicates the ChunkIndex field is negative.
	ErrNegativeChunkIndex = errors.New("chunk index cannot be negative")

	// ErrDimensionMismatch indicates two vectors have different dimensions.
	ErrDimensionMismatch = errors.New("vectors must have same dimension")
)

// Configuration errors for retrieval tunables
var (
	// ErrInvalidAlpha indicates alpha is outside [0, 1].
	ErrInvalidAlpha = errors.New("alpha must be in range [0, 1]")

	// ErrInvalidKSemantic indicates a non-positive semantic candidate bound.
	ErrInvalidKSemantic = errors.New("k semantic must be positive")

	// ErrInvalidKLexical indicates a non-positive lexical candidate bound.
	ErrInvalidKLexical = errors.New("k lexical must be positive")

	// ErrInvalidKContext indicates a non-positive context size.
	ErrInvalidKContext = errors.New("k context must be positive")
)
