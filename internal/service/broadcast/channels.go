package broadcast

import (
	"fmt"

	"github.com/mamadbah2/stocklive/internal/domain/models"
)

// GlobalChannel is the catch-all subscription every new session starts with.
// It is never produced by the router; the hub treats it specially.
const GlobalChannel = "global"

// ChannelsFor maps an event to every channel interested in it. The rules are
// additive: all that apply are included.
func ChannelsFor(event models.Event) []string {
	var channels []string

	if event.VariantID != "" {
		channels = append(channels, "variant:"+event.VariantID)
	}
	if event.UomID != "" {
		channels = append(channels, "uom:"+event.UomID)
	}
	if event.ProductID != "" && event.WarehouseID != "" {
		channels = append(channels, fmt.Sprintf("product:%s:warehouse:%s", event.ProductID, event.WarehouseID))
	}
	if event.ProductID != "" {
		channels = append(channels, "product:"+event.ProductID)
	}
	if event.WarehouseID != "" {
		channels = append(channels, "warehouse:"+event.WarehouseID)
	}
	if event.Kind.IsTransfer() && event.TransferID != "" {
		channels = append(channels, "transfer:"+event.TransferID)
	}

	return channels
}

// ChannelFromParams derives a single channel name from the legacy parameter
// form of a subscribe request, using the router precedence without the
// uom and transfer rules. Returns "" when no identifier is present.
func ChannelFromParams(p models.ChannelParams) string {
	switch {
	case p.VariantID != "":
		return "variant:" + p.VariantID
	case p.ProductID != "" && p.WarehouseID != "":
		return fmt.Sprintf("product:%s:warehouse:%s", p.ProductID, p.WarehouseID)
	case p.ProductID != "":
		return "product:" + p.ProductID
	case p.WarehouseID != "":
		return "warehouse:" + p.WarehouseID
	default:
		return ""
	}
}
