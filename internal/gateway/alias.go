package gateway

// Gateway identifiers are never exposed to the browser by name; the client
// stores an opaque alias instead.
var aliasByGateway = map[string]string{
	"ghostpay": "gw_alpha",
	"ezzpag":   "gw_beta",
	"umbrela":  "gw_gamma",
	"nitro":    "gw_delta",
}

var gatewayByAlias = map[string]string{
	"gw_alpha": "ghostpay",
	"gw_beta":  "ezzpag",
	"gw_gamma": "umbrela",
	"gw_delta": "nitro",
}

// EncodeAlias returns the opaque alias for a gateway identifier.
func EncodeAlias(gateway string) string {
	if a, ok := aliasByGateway[gateway]; ok {
		return a
	}
	return "gw_unknown"
}

// DecodeAlias resolves an alias (or a plain identifier) back to a gateway
// identifier, falling back to fallback when unknown.
func DecodeAlias(encoded, fallback string) string {
	if g, ok := gatewayByAlias[encoded]; ok {
		return g
	}
	if _, ok := aliasByGateway[encoded]; ok {
		return encoded
	}
	return fallback
}
