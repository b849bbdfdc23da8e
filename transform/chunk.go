// Package transform turns extracted document records into the hierarchical
// parent/child chunk stream consumed by the index injectors.
package transform

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// DocType distinguishes the two chunk roles.
type DocType string

const (
	DocTypeParent DocType = "parent"
	DocTypeChild  DocType = "child"
)

// Chunk is the persisted unit of the corpus. Parents preserve surrounding
// context for generation; children are the small units the search indexes
// point at.
type Chunk struct {
	ID          string         `json:"id"`
	DocType     DocType        `json:"doc_type"`
	ParentID    *string        `json:"parent_id"`
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata"`
}

// DeriveID derives a stable chunk identifier from the chunk's position within
// its lineage, the lineage itself (source file for parents, parent id for
// children), a fingerprint of the content, and a role suffix. Equal inputs
// always produce the same id; the role suffix keeps identical text from
// colliding across roles.
func DeriveID(index int, source, content, suffix string) string {
	sum := md5.Sum([]byte(content))
	seed := fmt.Sprintf("%d_%s_%s_%s", index, source, hex.EncodeToString(sum[:]), suffix)

	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(seed)).String()
}
