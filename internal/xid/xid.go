package xid

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// New returns prefix-<uuidv7>. Ids from one process sort in creation order.
func New(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%s", prefix, id.String())
}
