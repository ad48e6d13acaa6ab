package topic

import "github.com/johnquangdev/speech-insights/internal/domain/entities"

const (
	DefaultBatchSize = 3
	DefaultMaxLength = 500
)

// SplitBatches partitions docs into contiguous batches of at most batchSize
// documents, keeping input order. Every transcription is cut to its first
// maxLen characters. The input slice is left untouched.
func SplitBatches(docs []entities.Document, batchSize, maxLen int) []entities.Batch {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}

	batches := make([]entities.Batch, 0, (len(docs)+batchSize-1)/batchSize)
	for offset := 0; offset < len(docs); offset += batchSize {
		end := min(offset+batchSize, len(docs))

		batchDocs := make([]entities.Document, 0, end-offset)
		for _, doc := range docs[offset:end] {
			batchDocs = append(batchDocs, entities.Document{
				FileName:      doc.FileName,
				Transcription: Truncate(doc.Transcription, maxLen),
			})
		}

		batches = append(batches, entities.Batch{
			Number:    len(batches) + 1,
			Offset:    offset,
			Documents: batchDocs,
		})
	}
	return batches
}

// Truncate returns the first maxLen runes of s
func Truncate(s string, maxLen int) string {
	if maxLen < 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == maxLen {
			return s[:i]
		}
		count++
	}
	return s
}
