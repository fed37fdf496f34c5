package route

// Route is a fixed delivery run.
type Route struct {
	Code         string
	Region       string
	ScannerPhone string
	Duration     string
	Stops        []Stop
}

// Stop is one facility on a route, in delivery order.
type Stop struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}
