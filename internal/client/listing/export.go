// internal/client/listing/export.go
package listing

import (
	"time"

	"github.com/dalemusser/communityhub/internal/client/share"
	"go.uber.org/zap"
)

// Export writes the loaded page to t. A failure is shown on the banner and
// returned; it never disturbs the list.
func (c *Controller) Export(t share.Target, now time.Time) (string, error) {
	items := c.State().Items
	path, err := share.Page(t, c.kind.Name, items, now)
	if err != nil {
		c.log.Warn("export failed", zap.String("kind", c.kind.Name), zap.Error(err))
		c.showError(err)
		return "", err
	}
	c.showSuccess("Saved to " + path)
	return path, nil
}
