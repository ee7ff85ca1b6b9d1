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

import "fmt"

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - DocumentId and TopicId must be set
//   - ChunkIndex must not be negative
//
// NOT validated:
//   - ID (0 means "derive from content" at storage time)
//   - TokenCount (informational, populated by the chunker)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if chunk.DocumentId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrMissingDocumentId)
	}

	if chunk.TopicId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrMissingTopicId)
	}

	if chunk.ChunkIndex < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativeChunkIndex)
	}

	return nil
}

// Validate checks the retrieval tunables against their domain constraints.
// The first violated constraint is reported.
func (p Params) Validate() error {
	if p.Alpha < 0.0 || p.Alpha > 1.0 {
		return ErrInvalidAlpha
	}
	if p.KSemantic <= 0 {
		return ErrInvalidKSemantic
	}
	if p.KLexical <= 0 {
		return ErrInvalidKLexical
	}
	if p.KContext <= 0 {
		return ErrInvalidKContext
	}
	return nil
}
