package webapp

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/drummonds/bibview/apiclient"
)

// remoteDocument is a PDF held by the backend. Pages are rasterised server
// side, so drawing one means fetching its PNG and handing it to draw, which
// puts it on screen.
type remoteDocument struct {
	client *apiclient.Client
	id     string
	pages  int
	draw   func(ctx context.Context, page int, src string) error
}

func (d *remoteDocument) TotalPages() int {
	return d.pages
}

func (d *remoteDocument) RenderPage(ctx context.Context, page int) error {
	data, err := d.client.PagePNG(ctx, d.id, page)
	if err != nil {
		return fmt.Errorf("fetching page %d: %w", page, err)
	}
	return d.draw(ctx, page, pngDataURL(data))
}

// pngDataURL inlines a PNG so the img element swaps without a second request
func pngDataURL(data []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}
