package model

// Event names on the subscription channel.
const (
	EventSubscribe   = "subscribeToToken"
	EventUnsubscribe = "unsubscribe"

	EventPriceUpdate = "priceUpdate"
	EventPriceSpike  = "priceSpike"
	EventVolumeSpike = "volumeSpike"
	EventPriceError  = "priceError"
)

// Event is a named payload emitted to a subscriber.
type Event struct {
	Name    string
	Payload any
}

type PriceUpdate struct {
	Query     string        `json:"query"`
	Window    Window        `json:"period"`
	Timestamp int64         `json:"timestamp"` // unix ms
	Data      []TokenRecord `json:"data"`
}

type PriceSpike struct {
	Address  string  `json:"token_address"`
	OldPrice float64 `json:"old_price"`
	NewPrice float64 `json:"new_price"`
	Change   float64 `json:"change"`
}

type VolumeSpike struct {
	Address   string  `json:"token_address"`
	OldVolume float64 `json:"old_volume"`
	NewVolume float64 `json:"new_volume"`
	Factor    float64 `json:"factor"`
}

type PriceError struct {
	Query   string `json:"query"`
	Window  Window `json:"period"`
	Message string `json:"message"`
}
