package models

// MeteringPoint is one physical electricity connection as returned by the
// metering point listing endpoint. Only the fields the pipeline reads are
// mapped; the endpoint returns many more.
type MeteringPoint struct {
	MeteringPointID string `json:"meteringPointId"`
	TypeOfMP        string `json:"typeOfMP"`
	BalanceSupplier string `json:"balanceSupplierName"`
	Postcode        string `json:"postcode"`
	CityName        string `json:"cityName"`
}

// ID returns the canonical identifier of the metering point.
func (m MeteringPoint) ID() string {
	return NormalizeMeteringPointID(m.MeteringPointID)
}
