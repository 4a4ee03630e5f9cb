package assistant

import "github.com/Backland-Labs/waitlist/internal/core"

// TrimToNew returns the messages of page that the caller has not seen yet,
// and the cursor to remember afterwards. page must be newest first; the
// result keeps that order.
//
// With an empty cursor the whole page is new. Otherwise the new messages are
// those in front of the cursor message. When the cursor is not on the page
// the whole page is treated as new, which can repeat messages after a gap
// larger than one page.
//
// TrimToNew does not modify page and depends only on its arguments.
func TrimToNew(cursor string, page []core.Message) ([]core.Message, string) {
	end := len(page)
	if cursor != "" {
		for i, msg := range page {
			if msg.ID == cursor {
				end = i
				break
			}
		}
	}

	fresh := make([]core.Message, end)
	copy(fresh, page[:end])

	if len(fresh) == 0 {
		return fresh, cursor
	}
	return fresh, fresh[0].ID
}
