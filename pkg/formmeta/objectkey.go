package formmeta

import "fmt"

// AttachmentKey builds the blob-store key for an attachment. Media files
// live under the form owner's formid-media directory; everything else goes
// under docs.
func AttachmentKey(username string, kind Kind, filename string) string {
	if kind == KindMedia {
		return fmt.Sprintf("%s/formid-media/%s", username, filename)
	}
	return fmt.Sprintf("%s/docs/%s", username, filename)
}
