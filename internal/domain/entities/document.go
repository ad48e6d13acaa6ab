package entities

import "fmt"

// UnknownTopic is the topic reported when the classifier omits one
const UnknownTopic = "Unknown"

// Document is a transcribed audio file submitted for topic modeling
type Document struct {
	FileName      string `json:"fileName"`
	Transcription string `json:"transcription"`
}

// Batch is an ordered group of documents classified in a single run.
// Offset is the position of the first document in the submitted sequence.
type Batch struct {
	Number    int        `json:"number"`
	Offset    int        `json:"offset"`
	Documents []Document `json:"documents"`
}

// Len returns the number of documents in the batch
func (b Batch) Len() int {
	return len(b.Documents)
}

// Texts returns the transcriptions in batch order
func (b Batch) Texts() []string {
	texts := make([]string, len(b.Documents))
	for i, doc := range b.Documents {
		texts[i] = doc.Transcription
	}
	return texts
}

// DocumentName returns the file name of the j-th document, or a positional
// placeholder when the caller did not supply one.
func (b Batch) DocumentName(j int) string {
	if j >= 0 && j < len(b.Documents) && b.Documents[j].FileName != "" {
		return b.Documents[j].FileName
	}
	return fmt.Sprintf("Document %d", b.Offset+j+1)
}

// TopicResult is the classification outcome for one document
type TopicResult struct {
	FileName    string `json:"fileName"`
	Topic       string `json:"topic"`
	Description string `json:"description"`
}
