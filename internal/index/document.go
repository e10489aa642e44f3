package index

import (
	"strconv"
	"strings"

	"github.com/Aman-CERP/cranir/internal/cranfield"
	"github.com/Aman-CERP/cranir/internal/store"
)

// contentSeparator joins the sections of the aggregate content field.
const contentSeparator = "\n"

// BuildDocument converts a parsed record into the engine-neutral document.
// seq is the 1-based position of the record in the corpus. A record without
// an identifier is stored under store.FallbackDocNo of its position.
func BuildDocument(seq int, rec cranfield.Document) *store.Document {
	docNo := strings.TrimSpace(rec.ID)
	if docNo == "" {
		docNo = store.FallbackDocNo(strconv.Itoa(seq))
	}

	return &store.Document{
		Seq:          seq,
		DocNo:        docNo,
		Title:        rec.Title,
		Authors:      rec.Authors,
		Bibliography: rec.Bibliography,
		Abstract:     rec.Abstract,
		Content: strings.Join([]string{
			rec.Title,
			rec.Authors,
			rec.Bibliography,
			rec.Abstract,
		}, contentSeparator),
	}
}
