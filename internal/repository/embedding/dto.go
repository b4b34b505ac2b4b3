package embedding

import (
	"encoding/binary"
	"math"
	"strconv"
	"time"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
)

func buildHashFields(e *domain.TaskEmbedding) map[string]string {
	return map[string]string{
		VectorField:    vectorToBytes(e.Vector),
		"content_text": e.ContentText,
		OrgField:       e.OrgID,
		"indexed_at":   strconv.FormatInt(e.IndexedAt.Unix(), 10),
	}
}

func parseHashFields(taskID int64, m map[string]string) domain.TaskEmbedding {
	e := domain.TaskEmbedding{
		TaskID:      taskID,
		OrgID:       m[OrgField],
		Vector:      bytesToVector(m[VectorField]),
		ContentText: m["content_text"],
	}
	if sec, err := strconv.ParseInt(m["indexed_at"], 10, 64); err == nil {
		e.IndexedAt = time.Unix(sec, 0).UTC()
	}
	return e
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float,
// little-endian), the layout the vector index expects.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
